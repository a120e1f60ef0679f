// Package tui implements an interactive Bubble Tea shell over a
// Session: a single-line SQL editor backed by a scrollback of
// executed statements, each inspectable as a rendered result table.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gomysqlx/client/clipboard"
	"github.com/gomysqlx/client/highlight"
	"github.com/gomysqlx/client/resultset"
	"github.com/gomysqlx/client/session"
)

type viewMode int

const (
	viewHistory viewMode = iota
	viewInspect
	viewExplain
	viewAnalytics
)

// Statement is one executed SQL statement and its outcome, kept in the
// shell's scrollback for inspection, re-explaining, or export.
type Statement struct {
	SQL      string
	Started  time.Time
	Duration time.Duration
	Err      error

	Columns []string
	Rows    [][]string

	AffectedRows    uint64
	HasAffectedRows bool
	LastInsertID    uint64
	HasLastInsertID bool
	Warnings        []string
}

// Model is the Bubble Tea model for the interactive shell.
type Model struct {
	sess *session.Session

	history []Statement
	cursor  int

	input       string
	inputCursor int

	width, height int
	view          viewMode
	err           error

	filterMode  bool
	filterQuery string

	inspectScroll int

	explainPlan string
	explainErr  error
	explainSQL  string

	analyticsRows []analyticsRow
}

// New returns a Model driving sess. The caller is responsible for
// having already connected sess before running the program.
func New(sess *session.Session) Model {
	return Model{sess: sess}
}

type execResultMsg struct {
	stmt Statement
}

func runStatement(sess *session.Session, sql string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		stmt := Statement{SQL: sql, Started: start}

		res, err := sess.ExecuteSQL(sql, nil)
		if err != nil {
			stmt.Err = err
			stmt.Duration = time.Since(start)
			return execResultMsg{stmt: stmt}
		}
		fillFromResult(&stmt, res)
		stmt.Duration = time.Since(start)
		return execResultMsg{stmt: stmt}
	}
}

func fillFromResult(stmt *Statement, res *resultset.Result) {
	has, err := res.HasResultset()
	if err != nil {
		stmt.Err = err
		_ = res.Close()
		return
	}
	if has {
		for _, col := range res.Columns {
			stmt.Columns = append(stmt.Columns, col.Name)
		}
		for {
			row, rerr := res.NextRow()
			if rerr != nil {
				stmt.Err = rerr
				break
			}
			if row == nil {
				break
			}
			cells := make([]string, len(row.Field))
			for i, f := range row.Field {
				cells[i] = formatValue(f)
			}
			stmt.Rows = append(stmt.Rows, cells)
		}
	}
	if cerr := res.Close(); cerr != nil && stmt.Err == nil {
		stmt.Err = cerr
	}
	if v, ok := res.AffectedRows(); ok {
		stmt.AffectedRows, stmt.HasAffectedRows = v, true
	}
	if v, ok := res.LastInsertID(); ok {
		stmt.LastInsertID, stmt.HasLastInsertID = v, true
	}
	for _, w := range res.Warnings() {
		stmt.Warnings = append(stmt.Warnings, w.Msg)
	}
}

// Init starts the shell with an empty prompt; the connection is
// assumed already established by the caller.
func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case execResultMsg:
		m.history = append(m.history, msg.stmt)
		m.cursor = len(m.history) - 1
		return m, nil

	case explainResultMsg:
		m.explainPlan = msg.plan
		m.explainErr = msg.err
		return m, nil

	case editorResultMsg:
		if msg.err == nil && msg.sql != "" {
			m.input = msg.sql
			m.inputCursor = len([]rune(m.input))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case viewInspect:
			return m.updateInspect(msg)
		case viewExplain:
			return m.updateExplain(msg)
		case viewAnalytics:
			return m.updateAnalytics(msg)
		default:
			return m.updateHistory(msg)
		}
	}
	return m, nil
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterMode {
		return m.updateFilter(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		_ = m.sess.Close()
		return m, tea.Quit
	case "enter":
		sql := strings.TrimSpace(m.input)
		if sql == "" {
			return m, nil
		}
		m.input = ""
		m.inputCursor = 0
		return m, runStatement(m.sess, sql)
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.history)-1 {
			m.cursor++
		}
		return m, nil
	case "i":
		if len(m.history) > 0 {
			m.view = viewInspect
			m.inspectScroll = 0
		}
		return m, nil
	case "x":
		return m.startExplain()
	case "e":
		return m, openEditor(m.input)
	case "c":
		if cur := m.currentStatement(); cur != nil {
			_ = clipboard.Copy(context.Background(), cur.SQL)
		}
		return m, nil
	case "a":
		m.analyticsRows = buildAnalyticsRows(m.history)
		m.view = viewAnalytics
		return m, nil
	case "/":
		m.filterMode = true
		m.filterQuery = ""
		return m, nil
	case "w":
		_, _ = writeExport(m.history, m.filterQuery, exportJSON, "")
		return m, nil
	case "W":
		_, _ = writeExport(m.history, m.filterQuery, exportMarkdown, "")
		return m, nil
	case "backspace":
		if m.inputCursor > 0 {
			r := []rune(m.input)
			m.input = string(r[:m.inputCursor-1]) + string(r[m.inputCursor:])
			m.inputCursor--
		}
		return m, nil
	case "left":
		if m.inputCursor > 0 {
			m.inputCursor--
		}
		return m, nil
	case "right":
		if m.inputCursor < len([]rune(m.input)) {
			m.inputCursor++
		}
		return m, nil
	}

	if r := msg.Runes; len(r) > 0 {
		ru := []rune(m.input)
		m.input = string(ru[:m.inputCursor]) + string(r) + string(ru[m.inputCursor:])
		m.inputCursor += len(r)
	}
	return m, nil
}

func (m Model) currentStatement() *Statement {
	if m.cursor < 0 || m.cursor >= len(m.history) {
		return nil
	}
	return &m.history[m.cursor]
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	switch m.view {
	case viewInspect:
		return m.renderInspector()
	case viewExplain:
		return m.renderExplain()
	case viewAnalytics:
		return m.renderAnalytics()
	}

	var b strings.Builder
	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	if m.filterMode {
		b.WriteString("  filter: " + renderInputWithCursor(m.filterQuery, len([]rune(m.filterQuery))) + "\n")
	} else {
		b.WriteString(fmt.Sprintf("  [client %d]: ctrl+c: quit  enter: run  i: inspect  x: explain  e: edit  c: copy  a: analytics  /: filter  w/W: export json/md\n",
			m.sess.ClientID()))
	}
	b.WriteString("> " + highlight.SQL(renderInputWithCursor(m.input, m.inputCursor)))
	return b.String()
}

func renderInputWithCursor(s string, cursor int) string {
	r := []rune(s)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(r) {
		cursor = len(r)
	}
	return string(r[:cursor]) + "█" + string(r[cursor:])
}

func formatValue(v resultset.Value) string {
	switch {
	case v.Null:
		return "NULL"
	case v.Str != "":
		return v.Str
	case v.Raw != nil:
		return fmt.Sprintf("%x", v.Raw)
	case v.Float != 0:
		return fmt.Sprintf("%v", v.Float)
	case v.UInt != 0:
		return fmt.Sprintf("%d", v.UInt)
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}
