package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// renderHistory draws one line per executed statement, most recent
// last, with the selected (m.cursor) row marked.
func (m Model) renderHistory() string {
	rows := filteredHistory(m.history, m.filterQuery)
	if len(rows) == 0 {
		return dimStyle.Render("(no statements yet — type SQL and press enter)")
	}

	var b strings.Builder
	for _, idx := range rows {
		s := m.history[idx]
		marker := "  "
		if idx == m.cursor {
			marker = "> "
		}
		status := okStyle.Render("ok")
		if s.Err != nil {
			status = errStyle.Render("err")
		}
		summary := summarize(s)
		b.WriteString(fmt.Sprintf("%s[%s] %-40s %s\n", marker, status, truncate(s.SQL, 40), summary))
	}
	return b.String()
}

func summarize(s Statement) string {
	switch {
	case s.Err != nil:
		return s.Err.Error()
	case len(s.Columns) > 0:
		return fmt.Sprintf("%d rows in %s", len(s.Rows), s.Duration.Round(1000))
	case s.HasAffectedRows:
		return fmt.Sprintf("%d affected in %s", s.AffectedRows, s.Duration.Round(1000))
	default:
		return s.Duration.String()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
