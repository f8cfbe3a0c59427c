package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsift/src/contracts"
	"docsift/src/display"
)

const (
	// listRenderingOverhead accounts for padding added by bubbles/list
	// plus the panel border around the list.
	listRenderingOverhead = 10

	levelWidth = 7
	fileWidth  = 32
)

// Delegate renders issues as single-line table rows.
type Delegate struct {
	styles *StyleConfig
}

// NewDelegate creates a new issue row delegate with default styles.
func NewDelegate() Delegate {
	return Delegate{styles: DefaultStyles()}
}

// Height returns the height of a list item.
func (d Delegate) Height() int { return 1 }

// Spacing returns spacing between items.
func (d Delegate) Spacing() int { return 0 }

// Update handles item updates.
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

// Render renders a single issue row.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	isSelected := index == m.Index()
	issue := entry.Issue

	levelCol := display.TruncateAndPad(string(issue.Level), levelWidth, false)

	loc := issue.File
	if loc != "" && issue.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, issue.Line)
	}
	fileCol := display.TruncateAndPad(loc, fileWidth, true)

	var snippet string
	availableWidth := m.Width() - levelWidth - fileWidth - listRenderingOverhead
	if availableWidth > 0 {
		snippet = display.TruncateAndPad(issue.Message, availableWidth, true)
	}

	line := fmt.Sprintf("%s │ %s │ %s", levelCol, fileCol, snippet)

	levelColor := d.styles.WarningColor
	if issue.Level == contracts.LevelError {
		levelColor = d.styles.ErrorColor
	}

	style := lipgloss.NewStyle().Foreground(levelColor)
	if isSelected {
		style = style.Bold(true).Background(d.styles.SelectedColor)
	}

	fmt.Fprint(w, style.Render(line))
}
