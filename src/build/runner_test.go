package build

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("captures combined output", func(t *testing.T) {
		result, err := Run(ctx, "echo out; echo err 1>&2")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.ExitCode != 0 {
			t.Errorf("ExitCode = %d, want 0", result.ExitCode)
		}
		if !strings.Contains(result.Output, "out") || !strings.Contains(result.Output, "err") {
			t.Errorf("Output = %q, want both streams", result.Output)
		}
	})

	t.Run("nonzero exit is not an error", func(t *testing.T) {
		result, err := Run(ctx, "echo broken; exit 3")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.ExitCode != 3 {
			t.Errorf("ExitCode = %d, want 3", result.ExitCode)
		}
		if !strings.Contains(result.Output, "broken") {
			t.Errorf("Output = %q", result.Output)
		}
	})

	t.Run("empty command rejected", func(t *testing.T) {
		if _, err := Run(ctx, ""); err == nil {
			t.Error("expected error for empty command")
		}
	})
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	r, wait, err := Stream(ctx, "echo one; echo two 1>&2; echo three")
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if err := wait(); err != nil {
		t.Fatalf("wait failed: %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("got %d lines %v, want 3", len(lines), lines)
	}
}

func TestStream_ExitError(t *testing.T) {
	ctx := context.Background()

	r, wait, err := Stream(ctx, "exit 2")
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
	}

	if err := wait(); err == nil {
		t.Error("expected exit error from wait")
	}
}
