// Package pipeline wires the streaming parser to the broker, store, and
// shared state file, and delivers flush events to the caller.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"docsift/src/broker"
	"docsift/src/contracts"
	"docsift/src/logger"
	"docsift/src/parse"
	"docsift/src/state"
	"docsift/src/store"
)

// Options configures a pipeline run. Broker, Store, and state sharing are
// all optional; the zero value parses and delivers events only.
type Options struct {
	// RunID identifies this run; generated when empty.
	RunID string

	// Source describes where the log came from (stdin, a URL, a command).
	Source string

	// Broker, when set, receives each flush event on the flush topic.
	Broker broker.Broker

	// Store, when set, persists the run and its issues.
	Store store.Store

	// ShareState, when set, writes the run snapshot to StateDir after
	// every flush so other processes can read it.
	ShareState bool
	StateDir   string

	Logger logger.Logger
}

// Result summarizes a completed run.
type Result struct {
	RunID     string
	Issues    []contracts.Issue
	BuildInfo contracts.BuildInfo
	RawTail   []string
}

// Pipeline runs the streaming parser over a log reader.
type Pipeline struct {
	opts   Options
	events chan contracts.FlushEvent
	done   chan struct{}
	result Result
	err    error
}

// New creates a Pipeline. Call Start to begin parsing.
func New(opts Options) *Pipeline {
	if opts.RunID == "" {
		opts.RunID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	if opts.Source == "" {
		opts.Source = "stdin"
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	return &Pipeline{
		opts:   opts,
		events: make(chan contracts.FlushEvent),
		done:   make(chan struct{}),
	}
}

// Events returns the channel on which flush events are delivered.
// The channel is unbuffered and closes when the input is drained.
func (p *Pipeline) Events() <-chan contracts.FlushEvent {
	return p.events
}

// Start launches the reader goroutine. Events must be consumed from
// Events() until it closes, then Wait returns the final result.
func (p *Pipeline) Start(ctx context.Context, r io.Reader) {
	go p.run(ctx, r)
}

// Wait blocks until parsing finishes and returns the run summary.
func (p *Pipeline) Wait() (*Result, error) {
	<-p.done
	return &p.result, p.err
}

func (p *Pipeline) run(ctx context.Context, r io.Reader) {
	defer close(p.done)
	defer close(p.events)

	opts := &p.opts
	log := opts.Logger

	if opts.Store != nil {
		if err := opts.Store.CreateRun(ctx, opts.RunID, opts.Source); err != nil {
			log.Error("failed to record run start: %v", err)
		}
	}

	proc := parse.NewStreamingProcessor(r)
	var all []contracts.Issue

	for event := proc.Next(); event != nil; event = proc.Next() {
		all = append(all, event.Issues...)

		p.persistFlush(ctx, event, all, proc)

		select {
		case p.events <- *event:
		case <-ctx.Done():
			p.finish(ctx, proc, all, ctx.Err())
			return
		}
	}

	p.finish(ctx, proc, all, proc.Err())
}

// persistFlush fans a flush event out to the broker, store, and state
// file. Failures are logged, never fatal; parsing is the primary job.
func (p *Pipeline) persistFlush(ctx context.Context, event *contracts.FlushEvent, all []contracts.Issue, proc *parse.StreamingProcessor) {
	opts := &p.opts
	log := opts.Logger

	if opts.Broker != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Error("failed to marshal flush event: %v", err)
		} else if err := opts.Broker.Publish(ctx, broker.TopicFlushEvents, opts.RunID, payload); err != nil {
			log.Error("failed to publish flush event: %v", err)
		}
	}

	if opts.Store != nil && len(event.Issues) > 0 {
		if err := opts.Store.AppendIssues(ctx, opts.RunID, event.Issues); err != nil {
			log.Error("failed to persist issues: %v", err)
		}
	}

	if opts.ShareState {
		p.writeState(all, event.BuildInfo, proc.RawTail())
	}
}

func (p *Pipeline) writeState(issues []contracts.Issue, info contracts.BuildInfo, rawTail []string) {
	st := &state.State{
		RunID:     p.opts.RunID,
		Source:    p.opts.Source,
		UpdatedAt: time.Now(),
		BuildInfo: info,
		Issues:    issues,
		RawTail:   rawTail,
	}
	if err := state.Write(p.opts.StateDir, st); err != nil {
		p.opts.Logger.Error("failed to write shared state: %v", err)
	}
}

func (p *Pipeline) finish(ctx context.Context, proc *parse.StreamingProcessor, all []contracts.Issue, err error) {
	opts := &p.opts

	p.result = Result{
		RunID:     opts.RunID,
		Issues:    all,
		BuildInfo: proc.BuildInfo(),
		RawTail:   proc.RawTail(),
	}
	p.err = err

	if opts.ShareState {
		p.writeState(all, p.result.BuildInfo, p.result.RawTail)
	}

	if opts.Store != nil {
		status := store.StatusCompleted
		if err != nil {
			status = store.StatusFailed
		}
		if cerr := opts.Store.CompleteRun(ctx, opts.RunID, p.result.BuildInfo, status); cerr != nil {
			opts.Logger.Error("failed to record run completion: %v", cerr)
		}
	}
}
