package testutil

import (
	"testing"

	"gotest.tools/v3/fs"
)

// SourceFiles creates a temporary directory containing a file for each
// entry in the map provided (filename -> content). The directory is
// removed when the test completes.
func SourceFiles(t *testing.T, files map[string]string) *fs.Dir {
	ops := make([]fs.PathOp, 0, len(files))
	for name, content := range files {
		ops = append(ops, fs.WithFile(name, content))
	}

	return fs.NewDir(t, "bawstun-src", ops...)
}

// Executable creates a temporary shell script with the body provided
// and returns its path.
func Executable(t *testing.T, name, body string) string {
	dir := fs.NewDir(t, "bawstun-bin",
		fs.WithFile(name, "#!/bin/sh\n"+body+"\n", fs.WithMode(0o755)),
	)

	return dir.Join(name)
}
