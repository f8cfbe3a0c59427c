// Package contracts defines the stable data types exchanged between the
// parser core and its consumers (renderer, MCP server, broker, store).
// Field names on the JSON tags are a published contract; do not rename them.
package contracts

// Level is the severity of an issue.
type Level string

const (
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// CodeLine is one line of an embedded code block, with its original
// 1-based line number preserved.
type CodeLine struct {
	Number int    `json:"line_number"`
	Text   string `json:"text"`
}

// Issue is a single warning or error extracted from build output.
//
// Code is non-empty only for issues originating from an executable code
// block. Line, when set, indexes into Code's 1-based numbering.
type Issue struct {
	// ID is stable for identical content and unique per finalized issue
	// within a run.
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	// Session is the execution session name for code-block errors.
	Session string     `json:"session,omitempty"`
	Line    int        `json:"line,omitempty"`
	Code    []CodeLine `json:"code,omitempty"`
	// Output is the captured raw error/traceback text.
	Output string `json:"output,omitempty"`
	// Incomplete marks issues finalized best-effort because the input
	// ended before the construct closed.
	Incomplete bool `json:"incomplete,omitempty"`
}

// BuildInfo is the metadata snapshot for one build chunk.
type BuildInfo struct {
	BuildDir         string  `json:"build_dir,omitempty"`
	ServerURL        string  `json:"server_url,omitempty"`
	BuildTimeSeconds float64 `json:"build_time,omitempty"`
	// Success means the build finished, not that it had zero issues.
	Success bool `json:"success"`
}

// ChunkBoundary identifies the kind of boundary that triggered a flush.
type ChunkBoundary string

const (
	BoundaryBuildComplete  ChunkBoundary = "build_complete"
	BoundaryServerStarted  ChunkBoundary = "server_started"
	BoundaryRebuildStarted ChunkBoundary = "rebuild_started"
)

// FlushEvent carries all issues finalized since the previous flush, in
// detection order, together with the build info snapshot at the boundary.
type FlushEvent struct {
	Issues    []Issue       `json:"issues"`
	BuildInfo BuildInfo     `json:"build_info"`
	Boundary  ChunkBoundary `json:"boundary"`
}

// ErrorCount returns the number of ERROR-level issues.
func ErrorCount(issues []Issue) int {
	n := 0
	for _, is := range issues {
		if is.Level == LevelError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of WARNING-level issues.
func WarningCount(issues []Issue) int {
	n := 0
	for _, is := range issues {
		if is.Level == LevelWarning {
			n++
		}
	}
	return n
}

// CodeText flattens the code block back into a newline-joined string.
func (i Issue) CodeText() string {
	if len(i.Code) == 0 {
		return ""
	}
	out := make([]byte, 0, 64*len(i.Code))
	for n, cl := range i.Code {
		if n > 0 {
			out = append(out, '\n')
		}
		out = append(out, cl.Text...)
	}
	return string(out)
}
