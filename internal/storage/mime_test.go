package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wgbh/bawstun/internal/storage"
)

func Test_ContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"world.png", "image/png"},
		{"SHEEPB.JPG", "image/jpeg"},
		{"programme.mxf", "application/mxf"},
		{"interview.wav", "audio/x-wav"},
		{"notes.txt", "text/plain"},
		{"no_extension", ""},
		{"archive.definitelynotatype", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, storage.ContentTypeFor(tt.filename))
		})
	}
}
