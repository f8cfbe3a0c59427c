// Package display renders parsed issues and build summaries for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"docsift/src/contracts"
)

// Renderer formats issues and summaries with a consistent color palette.
type Renderer struct {
	noColor bool

	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	fileStyle    lipgloss.Style
	codeStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	okStyle      lipgloss.Style
}

// NewRenderer creates a Renderer. With noColor set, all styling is disabled.
func NewRenderer(noColor bool) *Renderer {
	r := &Renderer{noColor: noColor}
	if noColor {
		plain := lipgloss.NewStyle()
		r.errorStyle = plain
		r.warningStyle = plain
		r.fileStyle = plain
		r.codeStyle = plain
		r.dimStyle = plain
		r.okStyle = plain
		return r
	}

	r.errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EA4335")).Bold(true)
	r.warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBC04")).Bold(true)
	r.fileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8AB4F8"))
	r.codeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA0A6"))
	r.dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F6368"))
	r.okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34A853")).Bold(true)
	return r
}

// RenderIssue formats a single issue as a multi-line block.
func (r *Renderer) RenderIssue(issue contracts.Issue) string {
	var b strings.Builder

	level := string(issue.Level)
	switch issue.Level {
	case contracts.LevelError:
		level = r.errorStyle.Render(level)
	case contracts.LevelWarning:
		level = r.warningStyle.Render(level)
	}

	b.WriteString(fmt.Sprintf("%s %s", level, issue.Message))
	if issue.Source != "" {
		b.WriteString(r.dimStyle.Render(fmt.Sprintf("  [%s]", issue.Source)))
	}
	b.WriteString("\n")

	if issue.File != "" {
		loc := issue.File
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
		b.WriteString("  " + r.fileStyle.Render(loc) + "\n")
	}
	if issue.Session != "" {
		b.WriteString("  " + r.dimStyle.Render("session: "+issue.Session) + "\n")
	}

	for _, cl := range issue.Code {
		marker := "  "
		if cl.Number == issue.Line {
			marker = "> "
		}
		b.WriteString(r.codeStyle.Render(fmt.Sprintf("  %s%3d | %s", marker, cl.Number, cl.Text)) + "\n")
	}

	if issue.Incomplete {
		b.WriteString("  " + r.dimStyle.Render("(truncated)") + "\n")
	}

	return b.String()
}

// RenderSummary formats the run summary line plus build info details.
func (r *Renderer) RenderSummary(issues []contracts.Issue, info contracts.BuildInfo) string {
	var b strings.Builder

	errs := contracts.ErrorCount(issues)
	warns := contracts.WarningCount(issues)

	switch {
	case errs == 0 && warns == 0:
		b.WriteString(r.okStyle.Render("No issues found") + "\n")
	default:
		parts := []string{}
		if errs > 0 {
			parts = append(parts, r.errorStyle.Render(fmt.Sprintf("%d error(s)", errs)))
		}
		if warns > 0 {
			parts = append(parts, r.warningStyle.Render(fmt.Sprintf("%d warning(s)", warns)))
		}
		b.WriteString(strings.Join(parts, ", ") + "\n")
	}

	if info.BuildDir != "" {
		b.WriteString(r.dimStyle.Render("build dir: "+info.BuildDir) + "\n")
	}
	if info.ServerURL != "" {
		b.WriteString(r.dimStyle.Render("serving at: "+info.ServerURL) + "\n")
	}
	if info.Success {
		b.WriteString(r.dimStyle.Render(fmt.Sprintf("built in %.2f seconds", info.BuildTimeSeconds)) + "\n")
	}

	return b.String()
}

// RenderIssues formats a list of issues separated by blank lines.
func (r *Renderer) RenderIssues(issues []contracts.Issue) string {
	blocks := make([]string, 0, len(issues))
	for _, issue := range issues {
		blocks = append(blocks, r.RenderIssue(issue))
	}
	return strings.Join(blocks, "\n")
}
