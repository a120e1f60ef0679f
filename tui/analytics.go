package tui

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gomysqlx/client/clipboard"
	"github.com/gomysqlx/client/query"
)

type analyticsRow struct {
	query         string
	count         int
	errors        int
	totalDuration time.Duration
	avgDuration   time.Duration
	p95Duration   time.Duration
	maxDuration   time.Duration
}

// buildAnalyticsRows groups the session's executed statements by
// normalized SQL text, aggregating count, error count, and duration
// percentiles per distinct statement shape.
func buildAnalyticsRows(history []Statement) []analyticsRow {
	type agg struct {
		count     int
		errors    int
		totalDur  time.Duration
		durations []time.Duration
	}
	groups := make(map[string]*agg)
	var order []string

	for _, s := range history {
		nq := query.Normalize(s.SQL)
		if nq == "" {
			continue
		}
		g, ok := groups[nq]
		if !ok {
			g = &agg{}
			groups[nq] = g
			order = append(order, nq)
		}
		g.count++
		if s.Err != nil {
			g.errors++
		}
		g.totalDur += s.Duration
		g.durations = append(g.durations, s.Duration)
	}

	rows := make([]analyticsRow, 0, len(order))
	for _, q := range order {
		g := groups[q]
		slices.SortFunc(g.durations, cmp.Compare)
		rows = append(rows, analyticsRow{
			query:         q,
			count:         g.count,
			errors:        g.errors,
			totalDuration: g.totalDur,
			avgDuration:   g.totalDur / time.Duration(g.count),
			p95Duration:   percentile(g.durations, 0.95),
			maxDuration:   g.durations[len(g.durations)-1],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].totalDuration > rows[j].totalDuration })
	return rows
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func (m Model) updateAnalytics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		_ = m.sess.Close()
		return m, tea.Quit
	case "q", "esc":
		m.view = viewHistory
		return m, nil
	case "c":
		if len(m.analyticsRows) > 0 {
			_ = clipboard.Copy(context.Background(), m.analyticsRows[0].query)
		}
		return m, nil
	}
	return m, nil
}

const (
	analyticsColCount = 7
	analyticsColErr   = 6
	analyticsColAvg   = 10
	analyticsColP95   = 10
	analyticsColMax   = 10
	analyticsColTotal = 10
)

func (m Model) renderAnalytics() string {
	innerWidth := max(m.width-4, 20)
	title := fmt.Sprintf(" analytics (%d statement shapes) ", len(m.analyticsRows))

	fixedWidth := analyticsColCount + analyticsColErr + analyticsColAvg +
		analyticsColP95 + analyticsColMax + analyticsColTotal + 7
	colQuery := max(innerWidth-fixedWidth, 10)

	header := fmt.Sprintf("%*s %*s %*s %*s %*s %*s  %s",
		analyticsColCount, "Count",
		analyticsColErr, "Errs",
		analyticsColAvg, "Avg",
		analyticsColP95, "P95",
		analyticsColMax, "Max",
		analyticsColTotal, "Total",
		"Query",
	)

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render(header))
	for _, r := range m.analyticsRows {
		q := truncate(r.query, colQuery)
		row := fmt.Sprintf("%*d %*d %*s %*s %*s %*s  %s",
			analyticsColCount, r.count,
			analyticsColErr, r.errors,
			analyticsColAvg, r.avgDuration.Round(time.Microsecond),
			analyticsColP95, r.p95Duration.Round(time.Microsecond),
			analyticsColMax, r.maxDuration.Round(time.Microsecond),
			analyticsColTotal, r.totalDuration.Round(time.Microsecond),
			q,
		)
		rows = append(rows, row)
	}

	content := strings.Join(rows, "\n")

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
		dashes := max(innerWidth-len([]rune(title)), 0)
		boxLines[0] = borderFg.Render("╭") +
			titleStyle.Render(title) +
			borderFg.Render(strings.Repeat("─", dashes)+"╮")
	}
	if n := len(boxLines); n > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		help := " q: back  c: copy top query "
		dashes := max(innerWidth-len([]rune(help)), 0)
		boxLines[n-1] = borderFg.Render("╰") +
			lipgloss.NewStyle().Faint(true).Render(help) +
			borderFg.Render(strings.Repeat("─", dashes)+"╯")
	}

	return strings.Join(boxLines, "\n")
}
