// Package store defines the interface for persistent run storage.
package store

import (
	"context"
	"time"

	"docsift/src/contracts"
)

// Run records one pass over a documentation build log: where the log
// came from, what the build reported, and every issue parsed out of it.
type Run struct {
	ID          string              `json:"id"`
	Source      string              `json:"source"`
	Status      string              `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	BuildInfo   contracts.BuildInfo `json:"build_info"`
	Issues      []contracts.Issue   `json:"issues"`
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store defines the interface for persisting parse runs and their issues.
type Store interface {
	// CreateRun records the start of a new parse run.
	CreateRun(ctx context.Context, runID string, source string) error

	// AppendIssues adds parsed issues to an existing run.
	AppendIssues(ctx context.Context, runID string, issues []contracts.Issue) error

	// CompleteRun marks a run finished and records the final build info.
	CompleteRun(ctx context.Context, runID string, info contracts.BuildInfo, status string) error

	// GetRun returns a run with all its issues.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns the most recent runs, newest first, without issues.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store connection.
	Close() error
}
