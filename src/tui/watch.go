// Package tui provides the terminal user interface for watching a
// documentation build as it is parsed.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsift/src/contracts"
)

// Spinner frames for the live indicator.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FlushEventMsg delivers one flush event from the pipeline.
type FlushEventMsg contracts.FlushEvent

// StreamDoneMsg signals that the input stream is drained.
type StreamDoneMsg struct {
	Err error
}

// SpinnerTickMsg advances the spinner animation.
type SpinnerTickMsg time.Time

// RawTailFunc returns the most recent raw log lines for the raw view.
type RawTailFunc func() []string

// WatchModel is the Bubble Tea model for live build watching.
// It shows parsed issues as they flush, with a detail panel for the
// selected issue and a toggleable raw log view.
type WatchModel struct {
	styles  *StyleConfig
	list    list.Model
	events  <-chan contracts.FlushEvent
	rawTail RawTailFunc

	issues     []contracts.Issue
	buildInfo  contracts.BuildInfo
	errorsOnly bool
	showRaw    bool
	done       bool
	streamErr  error

	spinnerFrame int
	width        int
	height       int
}

// NewWatchModel creates a WatchModel consuming events until the channel closes.
func NewWatchModel(events <-chan contracts.FlushEvent, rawTail RawTailFunc) WatchModel {
	delegate := NewDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	if rawTail == nil {
		rawTail = func() []string { return nil }
	}

	return WatchModel{
		styles:  DefaultStyles(),
		list:    l,
		events:  events,
		rawTail: rawTail,
	}
}

// Init starts event consumption and the spinner.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), spinnerTick())
}

func waitForEvent(events <-chan contracts.FlushEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return StreamDoneMsg{}
		}
		return FlushEventMsg(event)
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

// Update handles messages and updates the model state.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-2, m.listHeight())
		return m, nil

	case FlushEventMsg:
		m.issues = append(m.issues, msg.Issues...)
		m.buildInfo = msg.BuildInfo
		m.refreshItems()
		return m, waitForEvent(m.events)

	case StreamDoneMsg:
		m.done = true
		m.streamErr = msg.Err
		return m, nil

	case SpinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		if !m.done {
			return m, spinnerTick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f":
			m.errorsOnly = !m.errorsOnly
			m.refreshItems()
			return m, nil
		case "r":
			m.showRaw = !m.showRaw
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Visible returns the issues currently shown, honoring the filter.
func (m WatchModel) Visible() []contracts.Issue {
	if !m.errorsOnly {
		return m.issues
	}
	var filtered []contracts.Issue
	for _, issue := range m.issues {
		if issue.Level == contracts.LevelError {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

func (m *WatchModel) refreshItems() {
	visible := m.Visible()
	items := make([]list.Item, len(visible))
	for i, issue := range visible {
		items[i] = Item{Issue: issue}
	}
	m.list.SetItems(items)
}

func (m WatchModel) listHeight() int {
	h := m.height/2 - 3
	if h < 3 {
		h = 3
	}
	return h
}

// View renders the watch display.
func (m WatchModel) View() string {
	if m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	if m.showRaw {
		b.WriteString(m.rawView())
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
		b.WriteString(m.detailView())
	}

	b.WriteString("\n")
	b.WriteString(m.styles.HelpStyle().Render(
		"↑/↓ navigate · f errors only · r raw log · q quit"))
	return b.String()
}

func (m WatchModel) header() string {
	var status string
	switch {
	case m.done && m.streamErr != nil:
		status = lipgloss.NewStyle().Foreground(m.styles.ErrorColor).
			Render(fmt.Sprintf("stream error: %v", m.streamErr))
	case m.done:
		status = lipgloss.NewStyle().Foreground(m.styles.SuccessColor).Render("done")
	default:
		status = spinnerFrames[m.spinnerFrame] + " watching"
	}

	errs := contracts.ErrorCount(m.issues)
	warns := contracts.WarningCount(m.issues)
	counts := fmt.Sprintf("%d errors, %d warnings", errs, warns)
	if m.errorsOnly {
		counts += " (errors only)"
	}

	return m.styles.TitleStyle().Render("docsift") + "  " + counts + "  " + status
}

func (m WatchModel) detailView() string {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return m.styles.DetailStyle().Width(m.width - 2).Render("no issue selected")
	}

	issue := item.Issue
	var lines []string
	lines = append(lines, string(issue.Level)+": "+issue.Message)
	if issue.File != "" {
		lines = append(lines, "file: "+issue.File)
	}
	if issue.Session != "" {
		lines = append(lines, fmt.Sprintf("session: %s (line %d)", issue.Session, issue.Line))
	}
	for _, cl := range issue.Code {
		marker := "  "
		if cl.Number == issue.Line {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%3d | %s", marker, cl.Number, cl.Text))
	}
	if issue.Output != "" {
		lines = append(lines, "", issue.Output)
	}
	if issue.Incomplete {
		lines = append(lines, "", "(truncated)")
	}

	return m.styles.DetailStyle().Width(m.width - 2).Render(strings.Join(lines, "\n"))
}

func (m WatchModel) rawView() string {
	tail := m.rawTail()
	visible := m.height - 5
	if visible < 1 {
		visible = 1
	}
	if len(tail) > visible {
		tail = tail[len(tail)-visible:]
	}
	return m.styles.DetailStyle().Width(m.width - 2).Render(strings.Join(tail, "\n"))
}
