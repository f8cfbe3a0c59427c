package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"docsift/src/broker"
	"docsift/src/contracts"
	"docsift/src/state"
	"docsift/src/store"
)

const buildLog = `INFO - Building documentation...
WARNING -  Doc file 'docs/index.md' contains an unrecognized relative link
ERROR -  Error reading page 'api.md'
INFO - Documentation built in 2.25 seconds
INFO - [mkdocs] Serving on http://127.0.0.1:8000/
`

func collectEvents(t *testing.T, p *Pipeline) []contracts.FlushEvent {
	t.Helper()
	var events []contracts.FlushEvent
	for event := range p.Events() {
		events = append(events, event)
	}
	return events
}

func TestPipeline_DeliversFlushEvents(t *testing.T) {
	p := New(Options{RunID: "run-test"})
	p.Start(context.Background(), strings.NewReader(buildLog))

	events := collectEvents(t, p)
	result, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Boundary != contracts.BoundaryBuildComplete {
		t.Errorf("events[0].Boundary = %q", events[0].Boundary)
	}
	if events[1].Boundary != contracts.BoundaryServerStarted {
		t.Errorf("events[1].Boundary = %q", events[1].Boundary)
	}

	if len(result.Issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(result.Issues))
	}
	if !result.BuildInfo.Success {
		t.Error("BuildInfo.Success = false")
	}
	if result.BuildInfo.ServerURL != "http://127.0.0.1:8000/" {
		t.Errorf("ServerURL = %q", result.BuildInfo.ServerURL)
	}
}

func TestPipeline_PublishesToBroker(t *testing.T) {
	b := broker.NewInMemoryBroker()
	defer b.Close()

	ctx := context.Background()
	sub, err := b.Subscribe(ctx, broker.TopicFlushEvents, "test")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	p := New(Options{RunID: "run-pub", Broker: b})
	p.Start(ctx, strings.NewReader(buildLog))
	collectEvents(t, p)
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	select {
	case msg := <-sub:
		if msg.Key != "run-pub" {
			t.Errorf("Key = %q, want run-pub", msg.Key)
		}
		var event contracts.FlushEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			t.Fatalf("published payload not valid JSON: %v", err)
		}
		if len(event.Issues) != 2 {
			t.Errorf("published event has %d issues, want 2", len(event.Issues))
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for published event")
	}
}

func TestPipeline_PersistsToStore(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	p := New(Options{RunID: "run-store", Source: "url", Store: s})
	p.Start(ctx, strings.NewReader(buildLog))
	collectEvents(t, p)
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	run, err := s.GetRun(ctx, "run-store")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != store.StatusCompleted {
		t.Errorf("Status = %q", run.Status)
	}
	if run.Source != "url" {
		t.Errorf("Source = %q", run.Source)
	}
	if len(run.Issues) != 2 {
		t.Errorf("stored %d issues, want 2", len(run.Issues))
	}
	if !run.BuildInfo.Success {
		t.Error("stored BuildInfo.Success = false")
	}
}

func TestPipeline_WritesSharedState(t *testing.T) {
	dir := t.TempDir()

	p := New(Options{RunID: "run-state", ShareState: true, StateDir: dir})
	p.Start(context.Background(), strings.NewReader(buildLog))
	collectEvents(t, p)
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	st, err := state.Read(dir)
	if err != nil {
		t.Fatalf("Read state failed: %v", err)
	}
	if st.RunID != "run-state" {
		t.Errorf("RunID = %q", st.RunID)
	}
	if len(st.Issues) != 2 {
		t.Errorf("state has %d issues, want 2", len(st.Issues))
	}
	if len(st.RawTail) == 0 {
		t.Error("state RawTail is empty")
	}
}

func TestPipeline_GeneratesRunID(t *testing.T) {
	p := New(Options{})
	p.Start(context.Background(), strings.NewReader(""))
	collectEvents(t, p)
	result, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.RunID == "" {
		t.Error("RunID not generated")
	}
}
