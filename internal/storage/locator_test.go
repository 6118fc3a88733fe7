package storage_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/storage"
	"github.com/wgbh/bawstun/pkg/logger"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

func Test_Segments(t *testing.T) {
	tests := []struct {
		summary    string
		identifier string
		expected   []string
	}{
		{"empty", "", []string{}},
		{"single char", "a", []string{"a"}},
		{"even length", "abcdef", []string{"ab", "cd", "ef"}},
		{"odd length", "x2g5t3", []string{"x2", "g5", "t3"}},
		{"odd remainder", "abcde", []string{"ab", "cd", "e"}},
		{"multibyte", "ñaüb", []string{"ña", "üb"}},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.expected, storage.Segments(tt.identifier))
		})
	}
}

func Test_Directory_DeterministicAndCreated(t *testing.T) {
	base := t.TempDir()
	locator, err := storage.NewLocator(base)
	require.NoError(t, err)

	first, err := locator.Directory("x2g5t3")
	require.NoError(t, err)
	second, err := locator.Directory("x2g5t3")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(base, "x2", "g5", "t3"), first)
	assert.DirExists(t, first)
}

func Test_Directory_EmptyIdentifierIsBase(t *testing.T) {
	base := t.TempDir()
	locator, err := storage.NewLocator(base)
	require.NoError(t, err)

	dir, err := locator.Directory("")
	require.NoError(t, err)
	assert.Equal(t, base, dir)
}

func Test_Directory_ConcurrentCreatorsSucceed(t *testing.T) {
	locator, err := storage.NewLocator(t.TempDir())
	require.NoError(t, err)

	wg := sync.WaitGroup{}
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := locator.Directory("raceraceracerace")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func Test_Directory_FileInTheWay(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "ab"), []byte("not a dir"), 0o644))

	locator, err := storage.NewLocator(base)
	require.NoError(t, err)

	_, err = locator.Directory("ab")
	assert.Error(t, err)
}

func Test_FileURI_RoundTrip(t *testing.T) {
	path := "/srv/store/ab/cd/my file #1.mov"
	uri := storage.FileURI(path)
	assert.Equal(t, "file:///srv/store/ab/cd/my%20file%20%231.mov", uri)

	back, err := storage.PathFromURI(uri)
	require.NoError(t, err)
	assert.Equal(t, path, back)
}

func Test_PathFromURI_RejectsOtherSchemes(t *testing.T) {
	_, err := storage.PathFromURI("http://example.com/file.mov")
	assert.ErrorIs(t, err, storage.ErrNotFileLocator)
}
