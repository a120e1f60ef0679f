package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/gomysqlx/client/clipboard"
	"github.com/gomysqlx/client/session"
)

type explainResultMsg struct {
	plan string
	err  error
}

// startExplain runs EXPLAIN against the currently selected statement's
// SQL and switches to the explain view while the result is pending.
func (m Model) startExplain() (tea.Model, tea.Cmd) {
	cur := m.currentStatement()
	if cur == nil || cur.SQL == "" {
		return m, nil
	}
	m.explainSQL = cur.SQL
	m.explainPlan = ""
	m.explainErr = nil
	m.view = viewExplain
	m.inspectScroll = 0
	return m, runExplain(m.sess, cur.SQL)
}

func runExplain(sess *session.Session, sql string) tea.Cmd {
	return func() tea.Msg {
		res, err := sess.ExecuteSQL("EXPLAIN "+sql, nil)
		if err != nil {
			return explainResultMsg{err: err}
		}
		defer res.Close()

		has, herr := res.HasResultset()
		if herr != nil {
			return explainResultMsg{err: herr}
		}
		if !has {
			return explainResultMsg{plan: "(no plan returned)"}
		}

		var lines []string
		header := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			header[i] = col.Name
		}
		lines = append(lines, strings.Join(header, "  "))
		for {
			row, rerr := res.NextRow()
			if rerr != nil {
				return explainResultMsg{err: rerr}
			}
			if row == nil {
				break
			}
			cells := make([]string, len(row.Field))
			for i, f := range row.Field {
				cells[i] = formatValue(f)
			}
			lines = append(lines, strings.Join(cells, "  "))
		}
		return explainResultMsg{plan: strings.Join(lines, "\n")}
	}
}

func (m Model) updateExplain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		_ = m.sess.Close()
		return m, tea.Quit
	case "q", "esc":
		m.view = viewHistory
		return m, nil
	case "j", "down":
		lines := m.explainLines()
		maxScroll := max(len(lines)-m.explainVisibleRows(), 0)
		if m.inspectScroll < maxScroll {
			m.inspectScroll++
		}
		return m, nil
	case "k", "up":
		if m.inspectScroll > 0 {
			m.inspectScroll--
		}
		return m, nil
	case "c":
		if m.explainPlan == "" {
			return m, nil
		}
		_ = clipboard.Copy(context.Background(), m.explainPlan)
		return m, nil
	}
	return m, nil
}

func (m Model) explainLines() []string {
	if m.explainErr != nil {
		return []string{"Error: " + m.explainErr.Error()}
	}
	if m.explainPlan == "" {
		return []string{"Running EXPLAIN..."}
	}
	return strings.Split(m.explainPlan, "\n")
}

func (m Model) explainVisibleRows() int {
	return max(m.height-4, 3)
}

func (m Model) renderExplain() string {
	innerWidth := max(m.width-4, 20)
	visibleRows := m.explainVisibleRows()

	lines := m.explainLines()

	maxScroll := max(len(lines)-visibleRows, 0)
	scroll := m.inspectScroll
	if scroll > maxScroll {
		scroll = maxScroll
	}

	end := min(scroll+visibleRows, len(lines))
	visible := make([]string, len(lines[scroll:end]))
	copy(visible, lines[scroll:end])
	for i, line := range visible {
		visible[i] = ansi.Cut(line, 0, innerWidth)
	}
	content := strings.Join(visible, "\n")

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
		title := " explain "
		dashes := max(innerWidth-len([]rune(title)), 0)
		boxLines[0] = borderFg.Render("╭") +
			titleStyle.Render(title) +
			borderFg.Render(strings.Repeat("─", dashes)+"╮")
	}

	if n := len(boxLines); n > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		help := " q: back  j/k: scroll  c: copy plan "
		dashes := max(innerWidth-len([]rune(help)), 0)
		boxLines[n-1] = borderFg.Render("╰") +
			lipgloss.NewStyle().Faint(true).Render(help) +
			borderFg.Render(strings.Repeat("─", dashes)+"╯")
	}

	return strings.Join(boxLines, "\n")
}
