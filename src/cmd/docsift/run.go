package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"docsift/src/broker"
	"docsift/src/build"
	"docsift/src/contracts"
	"docsift/src/display"
	"docsift/src/logger"
	"docsift/src/pipeline"
	"docsift/src/store"
	"docsift/src/tui"
)

// newLogger picks the logger for the current invocation.
func newLogger(silent bool) logger.Logger {
	if silent {
		return logger.NewSilentLogger()
	}
	return logger.NewConsoleLogger(flagVerbose)
}

// newPipelineOptions wires the optional broker and store from config.
// Either failing to come up is logged and skipped; parsing always runs.
func newPipelineOptions(source string, log logger.Logger) pipeline.Options {
	opts := pipeline.Options{
		Source:     source,
		Logger:     log,
		ShareState: flagShareState,
		StateDir:   appConfig.StateDir,
	}

	if len(appConfig.Brokers) > 0 {
		b, err := broker.NewRedpandaBroker(appConfig.Brokers, log)
		if err != nil {
			log.Error("broker unavailable, continuing without: %v", err)
		} else {
			opts.Broker = b
		}
	}

	if appConfig.PostgresDSN != "" {
		s, err := store.NewPostgresStore(appConfig.PostgresDSN)
		if err != nil {
			log.Error("store unavailable, continuing without: %v", err)
		} else {
			opts.Store = s
		}
	}

	return opts
}

func closePipelineOptions(opts pipeline.Options) {
	if opts.Broker != nil {
		opts.Broker.Close()
	}
	if opts.Store != nil {
		opts.Store.Close()
	}
}

func filterIssues(issues []contracts.Issue) []contracts.Issue {
	if !flagErrorsOnly {
		return issues
	}
	var filtered []contracts.Issue
	for _, issue := range issues {
		if issue.Level == contracts.LevelError {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

// runStream parses r incrementally, reporting each flush as it happens.
func runStream(ctx context.Context, r io.Reader, source string) error {
	if flagInteractive {
		return runInteractive(ctx, r, source)
	}

	log := newLogger(false)
	opts := newPipelineOptions(source, log)
	defer closePipelineOptions(opts)

	p := pipeline.New(opts)
	p.Start(ctx, r)

	renderer := display.NewRenderer(flagNoColor)
	dedupe := contracts.NewDeduplicator()
	for event := range p.Events() {
		issues := filterIssues(event.Issues)
		if flagJSON {
			if err := json.NewEncoder(os.Stdout).Encode(event); err != nil {
				return err
			}
			continue
		}
		if issues = dedupe.Filter(issues); len(issues) > 0 {
			fmt.Print(renderer.RenderIssues(issues))
		}
		log.Debug("flush: boundary=%s issues=%d", event.Boundary, len(event.Issues))
	}

	result, err := p.Wait()
	if err != nil {
		return fmt.Errorf("stream ended with error: %w", err)
	}

	if !flagJSON {
		fmt.Print(renderer.RenderSummary(result.Issues, result.BuildInfo))
	}
	return issuesErr(result.Issues)
}

// runBatch parses r to completion, then prints everything at once.
func runBatch(ctx context.Context, r io.Reader, source string) error {
	log := newLogger(false)
	opts := newPipelineOptions(source, log)
	defer closePipelineOptions(opts)

	p := pipeline.New(opts)
	p.Start(ctx, r)
	for range p.Events() {
	}

	result, err := p.Wait()
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}

	issues := contracts.DeduplicateIssues(filterIssues(result.Issues))

	if flagJSON {
		out := struct {
			Issues    []contracts.Issue   `json:"issues"`
			BuildInfo contracts.BuildInfo `json:"build_info"`
		}{Issues: issues, BuildInfo: result.BuildInfo}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			return err
		}
	} else {
		renderer := display.NewRenderer(flagNoColor)
		if len(issues) > 0 {
			fmt.Print(renderer.RenderIssues(issues))
			fmt.Println()
		}
		fmt.Print(renderer.RenderSummary(issues, result.BuildInfo))
	}

	return issuesErr(issues)
}

// runWrap runs the build command and streams its output through the parser.
func runWrap(ctx context.Context, command string) error {
	log := newLogger(false)
	log.Info("running: %s", command)

	r, wait, err := build.Stream(ctx, command)
	if err != nil {
		return err
	}

	streamErr := runStream(ctx, r, "wrap: "+command)
	if err := wait(); err != nil {
		return fmt.Errorf("build command failed: %w", err)
	}
	return streamErr
}

// tailBox hands the raw log tail from the pipeline goroutine to the TUI.
// The TUI reads it from its own goroutine whenever the raw view is open.
type tailBox struct {
	mu    sync.Mutex
	lines []string
}

func (b *tailBox) Set(lines []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = lines
}

func (b *tailBox) Get() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines
}

// runInteractive drives the TUI from the flush event stream.
func runInteractive(ctx context.Context, r io.Reader, source string) error {
	opts := newPipelineOptions(source, logger.NewSilentLogger())
	defer closePipelineOptions(opts)

	p := pipeline.New(opts)
	p.Start(ctx, r)

	var tail tailBox
	model := tui.NewWatchModel(p.Events(), tail.Get)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Keep the raw tail current for the TUI's raw view.
	done := make(chan struct{})
	go func() {
		result, _ := p.Wait()
		if result != nil {
			tail.Set(result.RawTail)
		}
		close(done)
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	<-done

	result, err := p.Wait()
	if err != nil {
		return err
	}
	return issuesErr(result.Issues)
}

// openStore connects to the configured run store for the read commands.
func openStore() (store.Store, error) {
	if appConfig.PostgresDSN == "" {
		return nil, fmt.Errorf("no run store configured: set DOCSIFT_POSTGRES_DSN")
	}
	return store.NewPostgresStore(appConfig.PostgresDSN)
}

// listRuns prints the most recent stored runs, newest first.
func listRuns(ctx context.Context, s store.Store, limit int, w io.Writer) error {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if flagJSON {
		return json.NewEncoder(w).Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	for _, run := range runs {
		status := run.Status
		if run.BuildInfo.Success {
			status += fmt.Sprintf(" (built in %.2fs)", run.BuildInfo.BuildTimeSeconds)
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Source, status)
	}
	return nil
}

// showRun prints one stored run with all its issues.
func showRun(ctx context.Context, s store.Store, runID string, w io.Writer) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if flagJSON {
		return json.NewEncoder(w).Encode(run)
	}

	issues := filterIssues(run.Issues)
	renderer := display.NewRenderer(flagNoColor)
	if len(issues) > 0 {
		fmt.Fprint(w, renderer.RenderIssues(issues))
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, renderer.RenderSummary(issues, run.BuildInfo))
	return nil
}

// shellJoin rebuilds a shell command from argv, quoting where needed.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \t'\"$&|;<>()*?#") {
			quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}
