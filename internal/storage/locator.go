// Package storage maps repository identifiers on to the external
// file store, and classifies stored files by their filename.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgbh/bawstun/pkg/logger"
)

// SegmentLength is the number of identifier characters used for
// each directory level of the store.
const SegmentLength = 2

var (
	log = logger.Get("Storage")

	ErrNotFileLocator = errors.New("locator is not a file:// URI")
)

// Locator derives the on-disk location of an objects content from
// its identifier. The identifier is split in to two-character segments,
// each of which becomes a directory beneath the base directory, which
// keeps any single directory in the store small.
//
// A Locator holds no mutable state and is safe for concurrent use.
type Locator struct {
	baseDir string
}

// NewLocator constructs a Locator rooted at the base directory provided. Relative
// paths are resolved against the working directory so that every path (and
// therefore every locator URI) produced is absolute.
func NewLocator(baseDir string) (*Locator, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage base directory '%s': %w", baseDir, err)
	}

	return &Locator{baseDir: abs}, nil
}

func (l *Locator) BaseDir() string { return l.baseDir }

// Segments splits the identifier in to ordered chunks of SegmentLength
// characters. The final chunk may be shorter. An empty identifier yields no segments.
func Segments(identifier string) []string {
	runes := []rune(identifier)
	segments := make([]string, 0, (len(runes)+SegmentLength-1)/SegmentLength)
	for start := 0; start < len(runes); start += SegmentLength {
		end := min(start+SegmentLength, len(runes))
		segments = append(segments, string(runes[start:end]))
	}

	return segments
}

// DirectoryPath returns the directory for the identifier without touching the file system.
func (l *Locator) DirectoryPath(identifier string) string {
	return filepath.Join(append([]string{l.baseDir}, Segments(identifier)...)...)
}

// Directory returns the directory for the identifier, creating it (and any
// missing parents) if it does not exist yet. The same identifier always
// yields the same directory.
//
// Callers are expected to validate identifiers; an empty identifier
// resolves to the base directory itself.
func (l *Locator) Directory(identifier string) (string, error) {
	dir := l.DirectoryPath(identifier)
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("storage path '%s' exists but is not a directory", dir)
		}

		return dir, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("storage path '%s' could not be accessed: %w", dir, err)
	}

	// MkdirAll treats a directory created concurrently by another caller as success
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory '%s': %w", dir, err)
	}

	log.Emit(logger.NEW, "Created storage directory %s\n", dir)
	return dir, nil
}

// FilePath returns the destination path for a file named filename belonging
// to the identifier, ensuring the parent directory exists.
func (l *Locator) FilePath(identifier string, filename string) (string, error) {
	dir, err := l.Directory(identifier)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, filepath.Base(filename)), nil
}

// FileURI converts an absolute path in to a file:// URI. Characters which are
// not safe inside a URI path are percent-escaped.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// PathFromURI is the inverse of FileURI.
func PathFromURI(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("locator '%s' is not a valid URI: %w", locator, err)
	}

	if !strings.EqualFold(u.Scheme, "file") {
		return "", fmt.Errorf("%w: %s", ErrNotFileLocator, locator)
	}

	return filepath.FromSlash(u.Path), nil
}
