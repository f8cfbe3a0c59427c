// Package patterns provides log message normalization for both recurrence
// detection (grouping repeated issues across rebuilds) and presentation
// (compact display of noisy messages).
//
// The same underlying patterns are used with different masking levels:
//   - MaskRecurrence: aggressive normalization for grouping (masks line numbers)
//   - MaskPresentation: conservative normalization for display (preserves line numbers)
package patterns

import (
	"regexp"
	"strings"
)

// MaskingLevel controls how aggressively log messages are normalized.
type MaskingLevel int

const (
	// MaskPresentation preserves diagnostic details like line numbers.
	// Use for: MCP responses, terminal display.
	// Example: /home/user/project/docs/guide/index.md:42 → .../index.md:42
	MaskPresentation MaskingLevel = iota

	// MaskRecurrence normalizes for grouping identical issues.
	// Use for: deduplication, issue ID hashing.
	// Example: line 42 → line [NUM]
	MaskRecurrence
)

var (
	// timestampPattern matches the timestamped log prefix some build tools
	// emit when logging is reconfigured, e.g. "2024-01-01 12:00:00,123".
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)

	// sessionPattern matches execution-session references embedded in
	// tracebacks, e.g. `<code block: session intro; n3>`.
	sessionPattern = regexp.MustCompile(`<code block: session [^;>]+; n\d+>`)

	// longPathPattern matches absolute paths with 3+ directories,
	// capturing the filename and optional :line suffix for preservation.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

	// numberPattern matches standalone numbers (line numbers, timings).
	numberPattern = regexp.MustCompile(`\b\d+(\.\d+)?\b`)

	// whitespacePattern matches runs of whitespace.
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize applies pattern normalization to a single message.
func Normalize(msg string, level MaskingLevel) string {
	switch level {
	case MaskPresentation:
		// Strip a leading timestamp entirely for cleaner display.
		if loc := timestampPattern.FindStringIndex(msg); loc != nil && loc[0] < 5 {
			msg = strings.TrimSpace(msg[loc[1]:])
		}
		msg = longPathPattern.ReplaceAllString(msg, ".../$1")
	case MaskRecurrence:
		msg = timestampPattern.ReplaceAllString(msg, "[TIMESTAMP]")
		msg = sessionPattern.ReplaceAllString(msg, "[SESSION]")
		msg = longPathPattern.ReplaceAllString(msg, "[PATH]")
		msg = numberPattern.ReplaceAllString(msg, "[NUM]")
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(msg, " "))
}

// NormalizeLines applies normalization to multiple lines.
func NormalizeLines(lines []string, level MaskingLevel) []string {
	if len(lines) == 0 {
		return lines
	}
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = Normalize(line, level)
	}
	return result
}
