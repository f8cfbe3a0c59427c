// Package sanitize provides utilities for cleaning build tool output before
// classification. Documentation build tools colorize their logs when attached
// to a terminal; escape sequences would otherwise defeat the line patterns.
//
// This package is for pre-parse sanitization. For TUI rendering width math,
// use the display package which handles ANSI via charmbracelet/x/ansi.
package sanitize

import "regexp"

var (
	// ANSI escape codes: \x1b[...m (SGR sequences) plus cursor movements
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

	// OSC sequences such as terminal title updates: \x1b]...\x07
	oscPattern = regexp.MustCompile(`\x1b\][^\x07]*\x07`)
)

// StripANSI removes ANSI escape codes and OSC sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = ansiPattern.ReplaceAllString(s, "")
	return s
}
