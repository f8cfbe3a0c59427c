// Package store provides an in-memory store implementation.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"docsift/src/contracts"
)

// MemoryStore is an in-memory implementation of Store.
// Useful for testing and single-process runs without Postgres.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*Run),
	}
}

// CreateRun records the start of a new parse run.
func (s *MemoryStore) CreateRun(ctx context.Context, runID string, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; exists {
		return fmt.Errorf("run already exists: %s", runID)
	}

	s.runs[runID] = &Run{
		ID:        runID,
		Source:    source,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	return nil
}

// AppendIssues adds parsed issues to an existing run.
func (s *MemoryStore) AppendIssues(ctx context.Context, runID string, issues []contracts.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[runID]
	if !exists {
		return fmt.Errorf("run not found: %s", runID)
	}

	run.Issues = append(run.Issues, issues...)
	return nil
}

// CompleteRun marks a run finished and records the final build info.
func (s *MemoryStore) CompleteRun(ctx context.Context, runID string, info contracts.BuildInfo, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[runID]
	if !exists {
		return fmt.Errorf("run not found: %s", runID)
	}

	now := time.Now()
	run.BuildInfo = info
	run.Status = status
	run.CompletedAt = &now
	return nil
}

// GetRun returns a copy of the run with all its issues.
func (s *MemoryStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	runCopy := *run
	runCopy.Issues = make([]contracts.Issue, len(run.Issues))
	copy(runCopy.Issues, run.Issues)
	return &runCopy, nil
}

// ListRuns returns the most recent runs, newest first, without issues.
func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runCopy := *run
		runCopy.Issues = nil
		runs = append(runs, runCopy)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close closes the store (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}
