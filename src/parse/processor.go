package parse

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"docsift/src/contracts"
	"docsift/src/sanitize"
)

// RawTailLimit bounds the retained raw-output buffer (lines).
const RawTailLimit = 10000

// StreamingProcessor is the driving loop of the parser. It pulls lines one
// at a time, routes them through the classifier to the issue builder, the
// build-info extractor and the boundary detector, and yields a FlushEvent
// whenever a boundary fires or the input ends.
//
// All parser state is owned exclusively by one processor instance and must
// never be mutated concurrently. A caller may abandon the processor at any
// point; no resources beyond plain memory are held.
type StreamingProcessor struct {
	reader  *bufio.Reader
	drained bool
	readErr error

	builder          *issueBuilder
	issuesSinceFlush []contracts.Issue
	buildInfo        contracts.BuildInfo
	detector         boundaryDetector

	// idSeen counts content hashes so repeated issues still get unique IDs
	// within the run.
	idSeen map[string]int

	rawTail []string
}

// NewStreamingProcessor creates a processor over a line source. The source
// is handed to the processor, not owned by it; closing it is the caller's
// concern.
func NewStreamingProcessor(r io.Reader) *StreamingProcessor {
	return &StreamingProcessor{
		reader: bufio.NewReader(r),
		idSeen: make(map[string]int),
	}
}

// Next returns the next FlushEvent, or nil once the input is exhausted and
// any final pending flush has been emitted. The processor does not read
// further input until the caller has consumed the returned event, so
// buffering between flushes stays bounded in interactive use.
func (p *StreamingProcessor) Next() *contracts.FlushEvent {
	if p.drained {
		return nil
	}
	for {
		line, ok := p.readLine()
		if !ok {
			p.drained = true
			return p.finishEOF()
		}
		if ev := p.ProcessLine(line); ev != nil {
			return ev
		}
	}
}

// ProcessLine feeds a single raw line through the state machine, returning a
// FlushEvent if the line fired a boundary. Used directly by callers that own
// their line source (the interactive TUI); Next is the pull-driven form.
func (p *StreamingProcessor) ProcessLine(raw string) *contracts.FlushEvent {
	line := sanitize.StripANSI(strings.TrimRight(raw, "\r\n"))
	p.appendRaw(line)

	tok := Classify(line)

	// An open multi-line construct consumes everything except its
	// terminators; a terminating line closes the issue and is then
	// re-dispatched below so it is never lost.
	if p.builder != nil {
		if p.builder.feed(tok, line) == statusContinue {
			return nil
		}
		p.finishIssue()
	}

	switch tok {
	case TokenWarning, TokenError, TokenMDExecHeader:
		p.builder = newIssueBuilder(tok, line)
		if p.builder.done() {
			p.finishIssue()
		}
		return nil
	}

	observeBuildInfo(tok, line, &p.buildInfo)

	if boundary, fired := p.detector.observe(tok); fired {
		ev := p.flush(boundary)
		if boundary == contracts.BoundaryRebuildStarted {
			// Each post-rebuild chunk starts from fresh metadata; the
			// REBUILD_STARTED event itself carries the prior snapshot.
			p.buildInfo = contracts.BuildInfo{}
		}
		return ev
	}
	return nil
}

// finishEOF finalizes any mid-construction issue best-effort and emits the
// terminal flush. BUILD_COMPLETE is reused as the terminal flush marker when
// the input ends without an explicit boundary line.
func (p *StreamingProcessor) finishEOF() *contracts.FlushEvent {
	if p.builder != nil {
		p.finishIssue()
	}
	if len(p.issuesSinceFlush) == 0 {
		return nil
	}
	return p.flush(contracts.BoundaryBuildComplete)
}

func (p *StreamingProcessor) finishIssue() {
	issue := p.builder.finalize()
	p.builder = nil

	p.idSeen[issue.ID]++
	if n := p.idSeen[issue.ID]; n > 1 {
		issue.ID = fmt.Sprintf("%s-%d", issue.ID, n)
	}
	p.issuesSinceFlush = append(p.issuesSinceFlush, issue)
}

func (p *StreamingProcessor) flush(boundary contracts.ChunkBoundary) *contracts.FlushEvent {
	ev := &contracts.FlushEvent{
		Issues:    p.issuesSinceFlush,
		BuildInfo: p.buildInfo,
		Boundary:  boundary,
	}
	p.issuesSinceFlush = nil
	return ev
}

// Finish emits any terminal flush for callers driving ProcessLine directly.
// Returns nil when nothing is pending.
func (p *StreamingProcessor) Finish() *contracts.FlushEvent {
	if p.drained {
		return nil
	}
	p.drained = true
	return p.finishEOF()
}

// BuildInfo returns the current metadata snapshot.
func (p *StreamingProcessor) BuildInfo() contracts.BuildInfo {
	return p.buildInfo
}

// RawTail returns the retained raw lines (most recent RawTailLimit).
func (p *StreamingProcessor) RawTail() []string {
	return p.rawTail
}

// Err returns any non-EOF read error; the processor treats read failures as
// end-of-input rather than aborting the stream.
func (p *StreamingProcessor) Err() error {
	return p.readErr
}

func (p *StreamingProcessor) readLine() (string, bool) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF && p.readErr == nil {
			p.readErr = err
		}
		// The final line needs no trailing terminator.
		if len(line) == 0 {
			return "", false
		}
	}
	return line, true
}

func (p *StreamingProcessor) appendRaw(line string) {
	p.rawTail = append(p.rawTail, line)
	if len(p.rawTail) > RawTailLimit {
		p.rawTail = p.rawTail[len(p.rawTail)-RawTailLimit:]
	}
}
