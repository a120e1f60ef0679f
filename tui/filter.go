package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// filteredHistory returns the indices into history whose SQL text
// contains query as a case-insensitive substring, in original order.
// An empty query matches everything.
func filteredHistory(history []Statement, query string) []int {
	idx := make([]int, 0, len(history))
	q := strings.ToLower(strings.TrimSpace(query))
	for i, s := range history {
		if q == "" || strings.Contains(strings.ToLower(s.SQL), q) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
		m.filterQuery = ""
		return m, nil
	case "enter":
		m.filterMode = false
		rows := filteredHistory(m.history, m.filterQuery)
		if len(rows) > 0 {
			m.cursor = rows[len(rows)-1]
		}
		return m, nil
	case "backspace":
		r := []rune(m.filterQuery)
		if len(r) > 0 {
			m.filterQuery = string(r[:len(r)-1])
		}
		return m, nil
	}
	if r := msg.Runes; len(r) > 0 {
		m.filterQuery += string(r)
	}
	return m, nil
}
