package tui

import (
	"context"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type editorResultMsg struct {
	sql string
	err error
}

// openEditor opens $EDITOR (falling back to vi) on a temp file seeded
// with initial, returning the edited SQL with comment lines stripped.
func openEditor(initial string) tea.Cmd {
	f, err := os.CreateTemp("", "xsh-*.sql")
	if err != nil {
		return func() tea.Msg { return editorResultMsg{err: err} }
	}
	path := f.Name()

	header := "-- Edit this statement, then save and quit to load it into the prompt.\n" +
		"-- Lines starting with -- are stripped before it's loaded.\n\n"

	if _, err := f.WriteString(header + initial); err != nil {
		_ = f.Close()
		_ = os.Remove(path) //nolint:gosec // path is a controlled temp file created by this function
		return func() tea.Msg { return editorResultMsg{err: err} }
	}
	_ = f.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.CommandContext(context.Background(), editor, path) //nolint:gosec // $EDITOR is user-controlled by design
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	return tea.ExecProcess(c, func(err error) tea.Msg {
		defer func() { _ = os.Remove(path) }()

		if err != nil {
			return editorResultMsg{err: err}
		}

		edited, err := os.ReadFile(path) //nolint:gosec // path is our own temp file
		if err != nil {
			return editorResultMsg{err: err}
		}

		return editorResultMsg{sql: stripComments(string(edited))}
	})
}

// stripComments removes SQL single-line comments (-- ...) and trims whitespace.
func stripComments(s string) string {
	lines := make([]string, 0)
	for line := range strings.SplitSeq(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
