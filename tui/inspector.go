package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gomysqlx/client/clipboard"
)

func (m Model) updateInspect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		_ = m.sess.Close()
		return m, tea.Quit
	case "q", "esc":
		m.view = viewHistory
		return m, nil
	case "x":
		return m.startExplain()
	case "c":
		if cur := m.currentStatement(); cur != nil {
			_ = clipboard.Copy(context.Background(), cur.SQL)
		}
		return m, nil
	case "j", "down":
		maxScroll := max(m.inspectLineCount()-m.inspectVisibleRows(), 0)
		if m.inspectScroll < maxScroll {
			m.inspectScroll++
		}
		return m, nil
	case "k", "up":
		if m.inspectScroll > 0 {
			m.inspectScroll--
		}
		return m, nil
	}
	return m, nil
}

func (m Model) inspectVisibleRows() int {
	return max(m.height-4, 3)
}

func (m Model) inspectLineCount() int {
	return len(m.inspectLines())
}

// inspectLines renders the currently selected statement's full result
// as one line per row (plus a header and summary line), the unit the
// inspector scrolls over.
func (m Model) inspectLines() []string {
	cur := m.currentStatement()
	if cur == nil {
		return nil
	}

	var lines []string
	lines = append(lines, "SQL:      "+cur.SQL)
	lines = append(lines, "Duration: "+cur.Duration.String())
	if cur.Err != nil {
		lines = append(lines, "Error:    "+cur.Err.Error())
		return lines
	}
	if cur.HasAffectedRows {
		lines = append(lines, fmt.Sprintf("Affected: %d", cur.AffectedRows))
	}
	if cur.HasLastInsertID {
		lines = append(lines, fmt.Sprintf("Insert ID: %d", cur.LastInsertID))
	}
	for _, w := range cur.Warnings {
		lines = append(lines, "Warning:  "+w)
	}

	if len(cur.Columns) == 0 {
		return lines
	}

	lines = append(lines, "")
	widths := columnWidths(cur.Columns, cur.Rows)
	lines = append(lines, formatRow(cur.Columns, widths))
	lines = append(lines, strings.Repeat("-", sumWidths(widths)))
	for _, row := range cur.Rows {
		lines = append(lines, formatRow(row, widths))
	}
	return lines
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func sumWidths(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	return total
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		parts[i] = fmt.Sprintf("%-*s", w, c)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderInspector() string {
	innerWidth := max(m.width-4, 20)
	visibleRows := m.inspectVisibleRows()

	lines := m.inspectLines()
	if lines == nil {
		return ""
	}

	maxScroll := max(len(lines)-visibleRows, 0)
	scroll := m.inspectScroll
	if scroll > maxScroll {
		scroll = maxScroll
	}
	end := min(scroll+visibleRows, len(lines))
	content := strings.Join(lines[scroll:end], "\n")

	borderColor := lipgloss.Color("240")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(innerWidth).
		BorderForeground(borderColor).
		Render(content)

	boxLines := strings.Split(box, "\n")
	if len(boxLines) > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		titleStyle := lipgloss.NewStyle().Bold(true)
		title := " Inspector "
		dashes := max(innerWidth-len([]rune(title)), 0)
		boxLines[0] = borderFg.Render("╭") +
			titleStyle.Render(title) +
			borderFg.Render(strings.Repeat("─", dashes)+"╮")
	}
	if n := len(boxLines); n > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		help := " q: back  j/k: scroll  c: copy query  x: explain "
		dashes := max(innerWidth-len([]rune(help)), 0)
		boxLines[n-1] = borderFg.Render("╰") +
			lipgloss.NewStyle().Faint(true).Render(help) +
			borderFg.Render(strings.Repeat("─", dashes)+"╯")
	}

	return strings.Join(boxLines, "\n")
}
