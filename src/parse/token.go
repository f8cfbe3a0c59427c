// Package parse implements the stateful log-stream parser for documentation
// build output. It classifies raw lines, reconstructs multi-line constructs
// (embedded code blocks, tracebacks) into Issue records, tracks build
// metadata, and detects chunk boundaries so consumers can be shown results
// incrementally.
package parse

import (
	"regexp"
	"strings"
)

// Token describes the shape of a single classified line.
type Token int

const (
	// TokenPlain is routine informational noise; never a parse failure.
	TokenPlain Token = iota
	// TokenBlank is an empty or whitespace-only line.
	TokenBlank
	// TokenWarning is a generic "WARNING - <text>" line.
	TokenWarning
	// TokenError is a generic "ERROR - <text>" line.
	TokenError
	// TokenMDExecHeader is a warning opening a markdown_exec code-block
	// failure construct.
	TokenMDExecHeader
	// TokenCodeMarker is the literal "Code block is:" marker.
	TokenCodeMarker
	// TokenOutputMarker is the literal "Output is:" marker.
	TokenOutputMarker
	// TokenTracebackFrame is a traceback frame referencing a code-block
	// execution session.
	TokenTracebackFrame
	// TokenIndented is a line with leading whitespace, meaningful only
	// inside a code/output block.
	TokenIndented
	// TokenBuildComplete matches "Documentation built in <n> seconds".
	TokenBuildComplete
	// TokenServerStarted matches "Serving on <url>".
	TokenServerStarted
	// TokenRebuild matches the rebuild-trigger lines of the live server.
	TokenRebuild
	// TokenOutputDir matches "Building documentation to directory: <path>".
	TokenOutputDir
)

var tokenNames = map[Token]string{
	TokenPlain:          "plain",
	TokenBlank:          "blank",
	TokenWarning:        "warning",
	TokenError:          "error",
	TokenMDExecHeader:   "md_exec_header",
	TokenCodeMarker:     "code_marker",
	TokenOutputMarker:   "output_marker",
	TokenTracebackFrame: "traceback_frame",
	TokenIndented:       "indented",
	TokenBuildComplete:  "build_complete",
	TokenServerStarted:  "server_started",
	TokenRebuild:        "rebuild",
	TokenOutputDir:      "output_dir",
}

func (t Token) String() string { return tokenNames[t] }

var (
	// prefixPattern strips "[stderr]" and timestamped logger prefixes that
	// appear in front of level markers when output is captured from a pipe.
	stderrPrefixPattern    = regexp.MustCompile(`^\[stderr\]\s*`)
	timestampPrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}[.,\d]*\s*-\s*\S+\s*-\s*`)

	warningPattern = regexp.MustCompile(`^WARNING\s*-+\s*(.*)$`)
	errorPattern   = regexp.MustCompile(`^ERROR\s*-+\s*(.*)$`)

	mdExecPattern = regexp.MustCompile("^markdown_exec: Execution of `?([^`\\s]+)`? code block exited with errors")

	tracebackFramePattern = regexp.MustCompile(`File "<code block: session ([^;]+); n(\d+)>", line (\d+)`)

	buildCompletePattern = regexp.MustCompile(`Documentation built in ([\d.]+) seconds`)
	serverStartedPattern = regexp.MustCompile(`Serving on (https?://\S+)`)
	outputDirPattern     = regexp.MustCompile(`Building documentation to directory: (.+)`)

	// sourceTagPattern splits an optional leading "[plugin]" tag off a
	// generic warning/error message.
	sourceTagPattern = regexp.MustCompile(`^\[([^\]\s]+)\]\s+(.*)$`)

	// mdFilePattern pulls a quoted markdown path out of a generic message.
	mdFilePattern = regexp.MustCompile(`['"]([^'"]+\.md)['"]`)
)

// Classify maps one raw line to a token describing its shape. It is pure and
// total: every line maps to exactly one token, unmatched lines to TokenPlain.
//
// Precedence is significant. Boundary markers are checked before the generic
// warning/error patterns because some boundary lines share leading tokens
// with other categories; the markdown_exec header is checked before the
// generic warning pattern it would otherwise match.
func Classify(line string) Token {
	if strings.TrimSpace(line) == "" {
		return TokenBlank
	}

	stripped := stripLinePrefixes(line)

	switch {
	case buildCompletePattern.MatchString(stripped):
		return TokenBuildComplete
	case serverStartedPattern.MatchString(stripped):
		return TokenServerStarted
	case isRebuildLine(stripped):
		return TokenRebuild
	case outputDirPattern.MatchString(stripped):
		return TokenOutputDir
	}

	if m := warningPattern.FindStringSubmatch(stripped); m != nil {
		if mdExecPattern.MatchString(m[1]) {
			return TokenMDExecHeader
		}
		return TokenWarning
	}
	if errorPattern.MatchString(stripped) {
		return TokenError
	}

	trimmed := strings.TrimSpace(stripped)
	switch trimmed {
	case "Code block is:":
		return TokenCodeMarker
	case "Output is:":
		return TokenOutputMarker
	}

	if tracebackFramePattern.MatchString(stripped) {
		return TokenTracebackFrame
	}

	if line[0] == ' ' || line[0] == '\t' {
		return TokenIndented
	}

	return TokenPlain
}

// stripLinePrefixes removes pipe-capture prefixes so the level patterns can
// anchor at the start of the logical message.
func stripLinePrefixes(line string) string {
	line = stderrPrefixPattern.ReplaceAllString(line, "")
	line = timestampPrefixPattern.ReplaceAllString(line, "")
	return line
}

func isRebuildLine(line string) bool {
	return strings.Contains(line, "Detected file changes") ||
		strings.Contains(line, "Reloading docs")
}

// messageText returns the free text of a generic warning/error line.
func messageText(line string) string {
	stripped := stripLinePrefixes(line)
	if m := warningPattern.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := errorPattern.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(stripped)
}
