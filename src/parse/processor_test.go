package parse

import (
	"reflect"
	"strings"
	"testing"

	"docsift/src/contracts"
)

func drain(p *StreamingProcessor) []contracts.FlushEvent {
	var events []contracts.FlushEvent
	for {
		ev := p.Next()
		if ev == nil {
			return events
		}
		events = append(events, *ev)
	}
}

const markdownExecLog = `WARNING -  markdown_exec: Execution of python code block exited with errors

Code block is:

  x = 1
  y = 2
  raise ValueError("test error")

Output is:

  File "<code block: session test; n1>", line 3, in <module>
    raise ValueError("test error")
  ValueError: test error

INFO    -  Documentation built in 1.23 seconds
`

func TestProcessor_SingleMarkdownExecWarning(t *testing.T) {
	events := drain(NewStreamingProcessor(strings.NewReader(markdownExecLog)))

	if len(events) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(events))
	}
	ev := events[0]
	if ev.Boundary != contracts.BoundaryBuildComplete {
		t.Errorf("boundary = %v, want build_complete", ev.Boundary)
	}
	if ev.BuildInfo.BuildTimeSeconds != 1.23 {
		t.Errorf("build_time = %v, want 1.23", ev.BuildInfo.BuildTimeSeconds)
	}
	if !ev.BuildInfo.Success {
		t.Error("build must be marked successful")
	}

	if len(ev.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(ev.Issues))
	}
	issue := ev.Issues[0]
	if issue.Level != contracts.LevelWarning {
		t.Errorf("level = %v", issue.Level)
	}
	if issue.Source != "markdown_exec" {
		t.Errorf("source = %q", issue.Source)
	}
	if issue.Message != "ValueError: test error" {
		t.Errorf("message = %q", issue.Message)
	}
	if issue.Session != "test" || issue.Line != 3 {
		t.Errorf("session/line = %q/%d, want test/3", issue.Session, issue.Line)
	}
	if len(issue.Code) != 3 || issue.Code[2].Text != `raise ValueError("test error")` {
		t.Errorf("code = %v", issue.Code)
	}
}

func TestProcessor_PlainErrorLine(t *testing.T) {
	issues, _ := RunToCompletion(strings.NewReader("ERROR   -  [broken-links] target not found\n"))

	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	issue := issues[0]
	if issue.Level != contracts.LevelError {
		t.Errorf("level = %v", issue.Level)
	}
	if issue.Source != "broken-links" {
		t.Errorf("source = %q", issue.Source)
	}
	if issue.Message != "target not found" {
		t.Errorf("message = %q", issue.Message)
	}
	if len(issue.Code) != 0 {
		t.Errorf("code must be empty, got %v", issue.Code)
	}
}

func TestProcessor_RebuildCycle(t *testing.T) {
	log := strings.Join([]string{
		"INFO    -  Building documentation to directory: /site",
		"WARNING -  first build warning",
		"INFO    -  Documentation built in 2.50 seconds",
		"INFO    -  Serving on http://127.0.0.1:8000/",
		"INFO    -  Detected file changes",
		"WARNING -  rebuild warning",
		"INFO    -  Documentation built in 0.75 seconds",
	}, "\n")

	events := drain(NewStreamingProcessor(strings.NewReader(log)))

	if len(events) != 4 {
		t.Fatalf("expected 4 flushes, got %d", len(events))
	}

	if events[0].Boundary != contracts.BoundaryBuildComplete {
		t.Errorf("flush 0 boundary = %v", events[0].Boundary)
	}
	if len(events[0].Issues) != 1 || events[0].Issues[0].Message != "first build warning" {
		t.Errorf("flush 0 issues = %v", events[0].Issues)
	}
	if events[0].BuildInfo.BuildTimeSeconds != 2.50 || events[0].BuildInfo.BuildDir != "/site" {
		t.Errorf("flush 0 build info = %+v", events[0].BuildInfo)
	}

	if events[1].Boundary != contracts.BoundaryServerStarted {
		t.Errorf("flush 1 boundary = %v", events[1].Boundary)
	}
	if events[1].BuildInfo.ServerURL != "http://127.0.0.1:8000/" {
		t.Errorf("flush 1 server url = %q", events[1].BuildInfo.ServerURL)
	}

	if events[2].Boundary != contracts.BoundaryRebuildStarted {
		t.Errorf("flush 2 boundary = %v", events[2].Boundary)
	}

	// The rebuilt chunk starts from a fresh BuildInfo: no carried-over
	// build time, dir, or server URL from the previous chunk.
	last := events[3]
	if last.Boundary != contracts.BoundaryBuildComplete {
		t.Errorf("flush 3 boundary = %v", last.Boundary)
	}
	if last.BuildInfo.BuildTimeSeconds != 0.75 {
		t.Errorf("flush 3 build time = %v, want 0.75", last.BuildInfo.BuildTimeSeconds)
	}
	if last.BuildInfo.ServerURL != "" || last.BuildInfo.BuildDir != "" {
		t.Errorf("stale per-chunk fields not cleared: %+v", last.BuildInfo)
	}
	if len(last.Issues) != 1 || last.Issues[0].Message != "rebuild warning" {
		t.Errorf("flush 3 issues = %v", last.Issues)
	}
}

// Every issue started before a boundary line lands in that boundary's flush,
// never a later one; concatenated flushes preserve input detection order.
func TestProcessor_OrderAndNoCrossBoundarySplitting(t *testing.T) {
	log := strings.Join([]string{
		"WARNING -  alpha",
		"ERROR   -  beta",
		"INFO    -  Documentation built in 1.00 seconds",
		"INFO    -  Serving on http://127.0.0.1:8000/",
		"INFO    -  Detected file changes",
		"WARNING -  gamma",
		"INFO    -  Documentation built in 1.00 seconds",
		"WARNING -  delta",
	}, "\n")

	events := drain(NewStreamingProcessor(strings.NewReader(log)))

	var flushSizes []int
	var order []string
	for _, ev := range events {
		flushSizes = append(flushSizes, len(ev.Issues))
		for _, is := range ev.Issues {
			order = append(order, is.Message)
		}
	}

	wantOrder := []string{"alpha", "beta", "gamma", "delta"}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("issue order = %v, want %v", order, wantOrder)
	}
	// alpha+beta flush at the first build-complete; gamma at the rebuilt
	// chunk's build-complete; delta in the terminal flush.
	wantSizes := []int{2, 0, 0, 1, 1}
	if !reflect.DeepEqual(flushSizes, wantSizes) {
		t.Errorf("flush sizes = %v, want %v", flushSizes, wantSizes)
	}
}

// Feeding identical input through two fresh processors yields identical
// event sequences.
func TestProcessor_Deterministic(t *testing.T) {
	a := drain(NewStreamingProcessor(strings.NewReader(markdownExecLog)))
	b := drain(NewStreamingProcessor(strings.NewReader(markdownExecLog)))

	if !reflect.DeepEqual(a, b) {
		t.Errorf("runs differ:\n%+v\n%+v", a, b)
	}
}

// A markdown-exec header with no closing blank line, then end-of-input,
// yields exactly one issue (marked incomplete) in a terminal flush.
func TestProcessor_GracefulTruncation(t *testing.T) {
	log := "WARNING -  markdown_exec: Execution of python code block exited with errors\n" +
		"Code block is:\n" +
		"  x = 1"

	events := drain(NewStreamingProcessor(strings.NewReader(log)))

	if len(events) != 1 {
		t.Fatalf("expected exactly one terminal flush, got %d", len(events))
	}
	if events[0].Boundary != contracts.BoundaryBuildComplete {
		t.Errorf("terminal boundary = %v", events[0].Boundary)
	}
	if len(events[0].Issues) != 1 {
		t.Fatalf("expected exactly one issue, got %d", len(events[0].Issues))
	}
	if !events[0].Issues[0].Incomplete {
		t.Error("truncated issue must be marked incomplete")
	}
}

func TestProcessor_NoIssuesNoTerminalFlush(t *testing.T) {
	log := "INFO    -  Cleaning site directory\nINFO    -  some noise\n"
	events := drain(NewStreamingProcessor(strings.NewReader(log)))
	if len(events) != 0 {
		t.Errorf("expected no flushes for issue-free unbounded input, got %d", len(events))
	}
}

// Repeated identical warnings still get unique IDs within the run.
func TestProcessor_UniqueIDsForRepeatedIssues(t *testing.T) {
	log := "WARNING -  same thing\nWARNING -  same thing\nWARNING -  same thing\n"
	issues, _ := RunToCompletion(strings.NewReader(log))

	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	seen := map[string]bool{}
	for _, is := range issues {
		if seen[is.ID] {
			t.Errorf("duplicate id %q", is.ID)
		}
		seen[is.ID] = true
	}
}

// Malformed input never crashes the parser; unrecognized lines are noise.
func TestProcessor_ArbitraryNoise(t *testing.T) {
	log := strings.Join([]string{
		"\x1b[31msome colored garbage\x1b[0m",
		"}{ not a log line at all ][",
		"\tstray tab line",
		"WARNING -  real warning",
		"",
	}, "\n")

	issues, _ := RunToCompletion(strings.NewReader(log))
	if len(issues) != 1 || issues[0].Message != "real warning" {
		t.Errorf("issues = %v", issues)
	}
}

func TestProcessor_RawTail(t *testing.T) {
	p := NewStreamingProcessor(strings.NewReader("INFO -  a\nINFO -  b"))
	drain(p)

	want := []string{"INFO -  a", "INFO -  b"}
	if !reflect.DeepEqual(p.RawTail(), want) {
		t.Errorf("raw tail = %v, want %v", p.RawTail(), want)
	}
}

func TestProcessor_FinalLineWithoutTerminator(t *testing.T) {
	issues, info := RunToCompletion(strings.NewReader(
		"WARNING -  no trailing newline here"))

	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if info.Success {
		t.Error("no build-complete line seen; success must be false")
	}
}
