package mcp

import (
	"sync"
	"time"

	"docsift/src/contracts"
)

// Snapshot is the thread-safe view of the latest parse run that the MCP
// tools read from. Tool handlers run concurrently with snapshot updates
// from rebuilds, fetches, and watch-mode refreshes.
type Snapshot struct {
	mu        sync.RWMutex
	runID     string
	source    string
	issues    []contracts.Issue
	buildInfo contracts.BuildInfo
	rawTail   []string
	updatedAt time.Time
	loaded    bool
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Update replaces the snapshot with the results of a new run.
func (s *Snapshot) Update(runID, source string, issues []contracts.Issue, info contracts.BuildInfo, rawTail []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runID = runID
	s.source = source
	s.issues = issues
	s.buildInfo = info
	s.rawTail = rawTail
	s.updatedAt = time.Now()
	s.loaded = true
}

// Loaded reports whether any run has been recorded yet.
func (s *Snapshot) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// RunID returns the identifier of the snapshotted run.
func (s *Snapshot) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// Issues returns the run's issues, optionally filtered to errors and
// capped at limit (0 means no cap). The returned slice is a copy.
func (s *Snapshot) Issues(errorsOnly bool, limit int) []contracts.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]contracts.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		if errorsOnly && issue.Level != contracts.LevelError {
			continue
		}
		result = append(result, issue)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Issue looks up a single issue by ID.
func (s *Snapshot) Issue(id string) (contracts.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, issue := range s.issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return contracts.Issue{}, false
}

// BuildInfo returns the run's build metadata.
func (s *Snapshot) BuildInfo() contracts.BuildInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildInfo
}

// RawTail returns up to n of the most recent raw log lines (0 means all).
func (s *Snapshot) RawTail(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tail := s.rawTail
	if n > 0 && len(tail) > n {
		tail = tail[len(tail)-n:]
	}
	result := make([]string, len(tail))
	copy(result, tail)
	return result
}
