package sync_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wgbh/bawstun/pkg/sync"
)

func Test_TypedSyncMap(t *testing.T) {
	var m sync.TypedSyncMap[string, int]

	_, ok := m.Load("missing")
	assert.False(t, ok)

	m.Store("a", 1)
	m.Store("b", 2)
	v, loaded := m.LoadOrStore("a", 10)
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())

	v, ok = m.LoadAndDelete("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"a"}, m.Keys())

	m.Delete("a")
	assert.Empty(t, m.Keys())
}
