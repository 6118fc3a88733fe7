// Package tool executes the external characterization binaries
// and captures the document they write to stdout.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/wgbh/bawstun/pkg/logger"
)

var log = logger.Get("Tool")

const (
	DefaultTimeout = 5 * time.Minute

	// waitDelay bounds how long we wait for output pipes to close after
	// the process has been killed.
	waitDelay = 2 * time.Second

	maxStderrExcerpt = 512
)

// Runner invokes a single external tool as `Path Args... file`.
type Runner struct {
	Name    string
	Path    string
	Args    []string
	Timeout time.Duration
}

func NewRunner(name, path string, args []string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Runner{Name: name, Path: path, Args: append([]string(nil), args...), Timeout: timeout}
}

func (r *Runner) ToolName() string { return r.Name }

// Run executes the tool against the file provided and returns everything
// it wrote to stdout. A non-zero exit, or a failure to start the binary,
// results in an InvocationError; exceeding the runners timeout results
// in a TimeoutError.
func (r *Runner) Run(ctx context.Context, file string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, 0, len(r.Args)+1)
	args = append(args, r.Args...)
	args = append(args, file)

	cmd := exec.CommandContext(runCtx, r.Path, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Emit(logger.DEBUG, "Running %s: %s %s\n", r.Name, r.Path, strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	if err != nil {
		// Our own deadline expiring is reported distinctly from the caller
		// cancelling, or the tool failing on its own.
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			log.Emit(logger.WARNING, "%s timed out after %s\n", r.Name, timeout)
			return nil, &TimeoutError{Tool: r.Name, Timeout: timeout}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &InvocationError{Tool: r.Name, Err: ctxErr}
		}

		return nil, &InvocationError{Tool: r.Name, Stderr: excerpt(stderr.String()), Err: err}
	}

	log.Emit(logger.VERBOSE, "%s completed in %s (%d bytes)\n", r.Name, time.Since(start), stdout.Len())
	return stdout.Bytes(), nil
}

func (r *Runner) String() string {
	return fmt.Sprintf("Runner{name=%s path=%s args=%v timeout=%s}", r.Name, r.Path, r.Args, r.Timeout)
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrExcerpt {
		return s[:maxStderrExcerpt] + "..."
	}

	return s
}
