// Package build runs the documentation build command as a subprocess,
// either to completion (rebuild tool) or streaming (wrap mode).
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a full rebuild.
const DefaultTimeout = 5 * time.Minute

// Result holds the outcome of a completed build command.
type Result struct {
	Command  string
	Output   string
	ExitCode int
	Duration time.Duration
}

// Run executes command via the shell and captures its combined output.
// A non-zero exit is not an error here; callers inspect ExitCode and
// parse the output for issues either way.
func Run(ctx context.Context, command string) (*Result, error) {
	if command == "" {
		return nil, fmt.Errorf("build command is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	result := &Result{
		Command:  command,
		Output:   string(output),
		Duration: duration,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("build timed out after %s: %s", DefaultTimeout, command)
		}
		return nil, fmt.Errorf("failed to run build command: %w", err)
	}

	return result, nil
}

// Stream starts command via the shell with stdout and stderr merged into
// a single pipe. The caller reads the pipe to exhaustion, then calls wait
// to reap the process and learn its exit status.
func Stream(ctx context.Context, command string) (io.ReadCloser, func() error, error) {
	if command == "" {
		return nil, nil, fmt.Errorf("build command is empty")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, nil, fmt.Errorf("failed to start build command: %w", err)
	}

	// Close the write end when the process exits so the reader sees EOF
	// even if it has not called wait yet.
	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitCh <- err
	}()

	wait := func() error {
		return <-waitCh
	}

	return pr, wait, nil
}
