package parse

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"docsift/src/contracts"
	"docsift/src/patterns"
)

// builderStatus reports the outcome of feeding one line to an issueBuilder.
type builderStatus int

const (
	// statusContinue means the line was consumed and the construct is open.
	statusContinue builderStatus = iota
	// statusDone means the construct is closed. The terminating line was
	// NOT consumed and must be re-dispatched by the caller.
	statusDone
)

// builder phases for the markdown_exec multi-line construct.
type builderPhase int

const (
	// phaseDone: generic single-line issues finalize immediately.
	phaseDone builderPhase = iota
	// phaseAwaitingMarker: header seen, waiting for "Code block is:".
	phaseAwaitingMarker
	// phaseInCodeBlock: collecting indented code lines.
	phaseInCodeBlock
	// phaseAwaitingOutput: code closed, waiting for "Output is:".
	phaseAwaitingOutput
	// phaseInOutputBlock: collecting traceback/output lines.
	phaseInOutputBlock
)

// issueBuilder accumulates and finalizes one Issue record. It is driven
// incrementally by the StreamingProcessor: newIssueBuilder corresponds to the
// issue's start line, feed to each subsequent line, finalize to completion.
//
// A failure while parsing the internal structure of one issue never
// propagates outward; unparsable sub-fields are simply left absent.
type issueBuilder struct {
	phase   builderPhase
	level   contracts.Level
	source  string
	message string
	file    string
	session string
	line    int

	codeRaw   []string
	outputRaw []string
}

// newIssueBuilder begins an issue from a classified warning/error start line.
func newIssueBuilder(tok Token, line string) *issueBuilder {
	b := &issueBuilder{level: contracts.LevelWarning}
	if tok == TokenError {
		b.level = contracts.LevelError
	}

	text := messageText(line)

	if tok == TokenMDExecHeader {
		b.phase = phaseAwaitingMarker
		b.source = "markdown_exec"
		b.message = text
		return b
	}

	// Generic single-line shape: finalize immediately, splitting an optional
	// bracketed source tag off the front of the message.
	b.phase = phaseDone
	if m := sourceTagPattern.FindStringSubmatch(text); m != nil {
		b.source = m[1]
		text = m[2]
	}
	b.message = text
	if m := mdFilePattern.FindStringSubmatch(text); m != nil {
		b.file = m[1]
	}
	return b
}

// done reports whether the construct needs no further lines.
func (b *issueBuilder) done() bool { return b.phase == phaseDone }

// terminates reports whether a token closes any open multi-line construct.
// A new warning/error start or any boundary/metadata line means the block is
// over regardless of phase; the line belongs to the next construct.
func terminates(tok Token) bool {
	switch tok {
	case TokenWarning, TokenError, TokenMDExecHeader,
		TokenBuildComplete, TokenServerStarted, TokenRebuild, TokenOutputDir:
		return true
	}
	return false
}

// feed routes one line into the open construct.
func (b *issueBuilder) feed(tok Token, line string) builderStatus {
	if terminates(tok) {
		// A block whose output was already captured is complete even when
		// the closing blank was swallowed by the next log line.
		if b.phase == phaseInOutputBlock && len(b.outputRaw) > 0 {
			b.phase = phaseDone
		}
		return statusDone
	}

	switch b.phase {
	case phaseAwaitingMarker:
		switch tok {
		case TokenCodeMarker:
			b.phase = phaseInCodeBlock
		case TokenOutputMarker:
			b.phase = phaseInOutputBlock
		}
		// Blank and plain lines between header and marker are noise.

	case phaseInCodeBlock:
		switch tok {
		case TokenBlank:
			// A blank before any code is the marker's own spacing; a blank
			// after collected code closes the block.
			if len(b.codeRaw) > 0 {
				b.phase = phaseAwaitingOutput
			}
		case TokenOutputMarker:
			b.phase = phaseInOutputBlock
		default:
			b.codeRaw = append(b.codeRaw, strings.TrimRight(line, " \t"))
		}

	case phaseAwaitingOutput:
		if tok == TokenOutputMarker {
			b.phase = phaseInOutputBlock
		}

	case phaseInOutputBlock:
		switch tok {
		case TokenBlank:
			if len(b.outputRaw) > 0 {
				b.phase = phaseDone
				return statusDone
			}
		default:
			b.outputRaw = append(b.outputRaw, strings.TrimRight(line, " \t"))
			if tok == TokenTracebackFrame {
				b.scanTracebackFrame(line)
			}
		}
	}

	if b.phase == phaseDone {
		return statusDone
	}
	return statusContinue
}

// scanTracebackFrame extracts session and line from a frame line. An
// unparsable frame leaves both fields untouched.
func (b *issueBuilder) scanTracebackFrame(line string) {
	m := tracebackFramePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	b.session = m[1]
	if n, err := strconv.Atoi(m[3]); err == nil {
		b.line = n
	}
}

// finalize returns the best-effort Issue for whatever was captured. It never
// fails: truncated constructs produce a partial Issue marked incomplete.
func (b *issueBuilder) finalize() contracts.Issue {
	issue := contracts.Issue{
		Level:   b.level,
		Source:  b.source,
		Message: b.message,
		File:    b.file,
		Session: b.session,
	}

	if len(b.codeRaw) > 0 {
		issue.Code = dedentCode(b.codeRaw)
	}
	if len(b.outputRaw) > 0 {
		issue.Output = strings.Join(dedentLines(b.outputRaw), "\n")
		// The last non-empty output line is the failure summary,
		// typically "<Kind>: <text>".
		for i := len(b.outputRaw) - 1; i >= 0; i-- {
			if s := strings.TrimSpace(b.outputRaw[i]); s != "" {
				issue.Message = s
				break
			}
		}
	}

	// Line must index within the code block when one was captured.
	if b.line > 0 && (len(issue.Code) == 0 || b.line <= len(issue.Code)) {
		issue.Line = b.line
	}

	issue.Incomplete = b.phase != phaseDone
	issue.ID = issueID(issue)
	return issue
}

// issueID derives a stable content hash for an issue. The processor appends a
// sequence suffix when the same content repeats within a run.
func issueID(issue contracts.Issue) string {
	content := strings.Join([]string{
		string(issue.Level),
		issue.Source,
		patterns.Normalize(issue.Message, patterns.MaskRecurrence),
		issue.File,
	}, ":")
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("issue-%s", hex.EncodeToString(sum[:4]))
}

// dedentCode removes the common leading indent and assigns 1-based numbers.
func dedentCode(raw []string) []contracts.CodeLine {
	lines := dedentLines(raw)
	code := make([]contracts.CodeLine, len(lines))
	for i, text := range lines {
		code[i] = contracts.CodeLine{Number: i + 1, Text: text}
	}
	return code
}

// dedentLines strips the minimum shared leading whitespace, preserving
// relative indentation.
func dedentLines(raw []string) []string {
	minIndent := -1
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return raw
	}
	out := make([]string, len(raw))
	for i, line := range raw {
		if len(line) >= minIndent {
			out[i] = line[minIndent:]
		} else {
			out[i] = line
		}
	}
	return out
}
