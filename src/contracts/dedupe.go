package contracts

import (
	"docsift/src/patterns"
)

type dedupeKey struct {
	level   Level
	source  string
	file    string
	message string
}

func issueKey(is Issue) dedupeKey {
	return dedupeKey{
		level:   is.Level,
		source:  is.Source,
		file:    is.File,
		message: patterns.Normalize(is.Message, patterns.MaskRecurrence),
	}
}

// Deduplicator filters repeated issues across successive calls, so a
// streaming consumer can suppress issues already shown in earlier
// flushes. Two issues are considered the same when they share level,
// source, file, and a normalized message (line numbers and paths masked
// so a repeated failure across rebuilds still collapses).
type Deduplicator struct {
	seen map[dedupeKey]bool
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[dedupeKey]bool)}
}

// Filter returns the issues not seen before, preserving order, and
// records them as seen.
func (d *Deduplicator) Filter(issues []Issue) []Issue {
	unique := make([]Issue, 0, len(issues))
	for _, is := range issues {
		k := issueKey(is)
		if d.seen[k] {
			continue
		}
		d.seen[k] = true
		unique = append(unique, is)
	}
	return unique
}

// DeduplicateIssues removes repeated issues from a complete run,
// preserving first-seen order.
func DeduplicateIssues(issues []Issue) []Issue {
	if len(issues) < 2 {
		return issues
	}
	return NewDeduplicator().Filter(issues)
}
