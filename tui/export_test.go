package tui

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func testHistory() []Statement {
	return []Statement{
		{
			SQL:      "SELECT id FROM users WHERE email = 'alice@example.com'",
			Duration: 152300 * time.Microsecond,
			Columns:  []string{"id"},
			Rows:     [][]string{{"1"}},
		},
		{
			SQL:      "SELECT id FROM users WHERE email = 'bob@example.com'",
			Duration: 203100 * time.Microsecond,
			Columns:  []string{"id"},
			Rows:     [][]string{{"2"}},
		},
		{
			SQL:             "INSERT INTO orders (user_id) VALUES (1)",
			Duration:        50 * time.Millisecond,
			AffectedRows:    1,
			HasAffectedRows: true,
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	md := renderMarkdown(testHistory(), "")

	checks := []string{
		"# shell session export",
		"- Statements: 3",
		"## Queries",
		"| # | Duration | Rows | Query | Error |",
		"SELECT id FROM users WHERE email",
		"INSERT INTO orders",
		"## Analytics",
		"| Query | Count | Errors | Avg |",
	}

	for _, want := range checks {
		if !strings.Contains(md, want) {
			t.Errorf("renderMarkdown output missing %q\n\nGot:\n%s", want, md)
		}
	}
}

func TestRenderMarkdownFiltered(t *testing.T) {
	t.Parallel()

	md := renderMarkdown(testHistory(), "select")

	if !strings.Contains(md, "- Statements: 3") {
		t.Error("should show total statement count regardless of filter")
	}
	if !strings.Contains(md, "- Filter: select") {
		t.Error("should show active filter")
	}
	if strings.Contains(md, "INSERT INTO orders") {
		t.Error("should not include non-matching statements")
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	out, err := renderJSON(testHistory(), "select")
	if err != nil {
		t.Fatalf("renderJSON error: %v", err)
	}

	var d exportData
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("JSON decode error: %v", err)
	}

	if d.Statements != 3 {
		t.Errorf("statements = %d, want 3", d.Statements)
	}
	if d.Filter != "select" {
		t.Errorf("filter = %q, want %q", d.Filter, "select")
	}
	if len(d.Queries) != 2 {
		t.Errorf("queries count = %d, want 2", len(d.Queries))
	}
}

func TestRenderJSONWithError(t *testing.T) {
	t.Parallel()

	history := []Statement{
		{SQL: "SELECT 1", Duration: 10 * time.Millisecond, Err: errors.New("boom")},
	}

	out, err := renderJSON(history, "")
	if err != nil {
		t.Fatalf("renderJSON error: %v", err)
	}

	var d exportData
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("JSON decode error: %v", err)
	}
	if d.Queries[0].Error != "boom" {
		t.Errorf("error = %q, want %q", d.Queries[0].Error, "boom")
	}
}

func TestWriteExport(t *testing.T) {
	t.Parallel()

	history := testHistory()
	dir := t.TempDir()

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		path, err := writeExport(history, "", exportMarkdown, dir)
		if err != nil {
			t.Fatalf("writeExport error: %v", err)
		}
		if !strings.HasSuffix(path, ".md") {
			t.Errorf("path %q should end with .md", path)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("read file error: %v", err)
		}
		if !strings.Contains(string(data), "# shell session export") {
			t.Error("written file should contain markdown header")
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		path, err := writeExport(history, "", exportJSON, dir)
		if err != nil {
			t.Fatalf("writeExport error: %v", err)
		}
		if !strings.HasSuffix(path, ".json") {
			t.Errorf("path %q should end with .json", path)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("read file error: %v", err)
		}
		var d exportData
		if err := json.Unmarshal(data, &d); err != nil {
			t.Fatalf("JSON decode error: %v", err)
		}
		if d.Statements != 3 {
			t.Errorf("statements = %d, want 3", d.Statements)
		}
	})
}

func TestBuildAnalyticsRowsGrouping(t *testing.T) {
	t.Parallel()

	rows := buildAnalyticsRows(testHistory())
	if len(rows) != 2 {
		t.Fatalf("analytics rows = %d, want 2", len(rows))
	}

	var selectRow, insertRow *analyticsRow
	for i := range rows {
		switch {
		case strings.Contains(rows[i].query, "SELECT"):
			selectRow = &rows[i]
		case strings.Contains(rows[i].query, "INSERT"):
			insertRow = &rows[i]
		}
	}
	if selectRow == nil || selectRow.count != 2 {
		t.Errorf("select row = %+v, want count 2", selectRow)
	}
	if insertRow == nil || insertRow.count != 1 {
		t.Errorf("insert row = %+v, want count 1", insertRow)
	}
}

func TestEscapeMarkdownPipe(t *testing.T) {
	t.Parallel()

	got := escapeMarkdownPipe("a | b | c")
	want := "a \\| b \\| c"
	if got != want {
		t.Errorf("escapeMarkdownPipe = %q, want %q", got, want)
	}
}
