package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type exportFormat int

const (
	exportJSON exportFormat = iota
	exportMarkdown
)

func (f exportFormat) ext() string {
	if f == exportMarkdown {
		return "md"
	}
	return "json"
}

type exportStatement struct {
	SQL          string   `json:"sql"`
	DurationMs   float64  `json:"duration_ms"`
	Columns      []string `json:"columns,omitempty"`
	RowCount     int      `json:"row_count,omitempty"`
	AffectedRows uint64   `json:"affected_rows,omitempty"`
	LastInsertID uint64   `json:"last_insert_id,omitempty"`
	Error        string   `json:"error,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type exportData struct {
	Statements int                `json:"statements"`
	Filter     string             `json:"filter,omitempty"`
	Queries    []exportStatement  `json:"queries"`
	Analytics  []exportAnalytics  `json:"analytics,omitempty"`
}

type exportAnalytics struct {
	Query   string  `json:"query"`
	Count   int     `json:"count"`
	Errors  int      `json:"errors"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	P95Ms   float64 `json:"p95_ms"`
	MaxMs   float64 `json:"max_ms"`
}

func buildExportData(history []Statement, filterQuery string) exportData {
	idx := filteredHistory(history, filterQuery)

	var d exportData
	d.Statements = len(history)
	d.Filter = filterQuery
	d.Queries = make([]exportStatement, 0, len(idx))
	for _, i := range idx {
		s := history[i]
		es := exportStatement{
			SQL:          s.SQL,
			DurationMs:   float64(s.Duration.Microseconds()) / 1000,
			Columns:      s.Columns,
			RowCount:     len(s.Rows),
			AffectedRows: s.AffectedRows,
			LastInsertID: s.LastInsertID,
			Warnings:     s.Warnings,
		}
		if s.Err != nil {
			es.Error = s.Err.Error()
		}
		d.Queries = append(d.Queries, es)
	}

	filtered := make([]Statement, 0, len(idx))
	for _, i := range idx {
		filtered = append(filtered, history[i])
	}
	for _, r := range buildAnalyticsRows(filtered) {
		d.Analytics = append(d.Analytics, exportAnalytics{
			Query:   r.query,
			Count:   r.count,
			Errors:  r.errors,
			TotalMs: float64(r.totalDuration.Microseconds()) / 1000,
			AvgMs:   float64(r.avgDuration.Microseconds()) / 1000,
			P95Ms:   float64(r.p95Duration.Microseconds()) / 1000,
			MaxMs:   float64(r.maxDuration.Microseconds()) / 1000,
		})
	}

	return d
}

func renderJSON(history []Statement, filterQuery string) (string, error) {
	d := buildExportData(history, filterQuery)
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(b) + "\n", nil
}

func renderMarkdown(history []Statement, filterQuery string) string {
	d := buildExportData(history, filterQuery)

	var sb strings.Builder
	sb.WriteString("# shell session export\n\n")
	fmt.Fprintf(&sb, "- Statements: %d\n", d.Statements)
	if d.Filter != "" {
		fmt.Fprintf(&sb, "- Filter: %s\n", d.Filter)
	}

	sb.WriteString("\n## Queries\n\n")
	sb.WriteString("| # | Duration | Rows | Query | Error |\n")
	sb.WriteString("|---|----------|------|-------|-------|\n")
	for i, q := range d.Queries {
		fmt.Fprintf(&sb, "| %d | %s | %d | %s | %s |\n",
			i+1,
			formatDurationMs(q.DurationMs),
			q.RowCount,
			escapeMarkdownPipe(q.SQL),
			escapeMarkdownPipe(q.Error),
		)
	}

	if len(d.Analytics) > 0 {
		sb.WriteString("\n## Analytics\n\n")
		sb.WriteString("| Query | Count | Errors | Avg | P95 | Max | Total |\n")
		sb.WriteString("|-------|-------|--------|-----|-----|-----|-------|\n")
		for _, a := range d.Analytics {
			fmt.Fprintf(&sb, "| %s | %d | %d | %s | %s | %s | %s |\n",
				escapeMarkdownPipe(a.Query),
				a.Count,
				a.Errors,
				formatDurationMs(a.AvgMs),
				formatDurationMs(a.P95Ms),
				formatDurationMs(a.MaxMs),
				formatDurationMs(a.TotalMs),
			)
		}
	}

	return sb.String()
}

func formatDurationMs(ms float64) string {
	switch {
	case ms < 1:
		return fmt.Sprintf("%.0fµs", ms*1000)
	case ms < 1000:
		return fmt.Sprintf("%.1fms", ms)
	default:
		return fmt.Sprintf("%.2fs", ms/1000)
	}
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// writeExport writes the (optionally filtered) statement history to a
// file and returns the path. dir specifies the output directory; if
// empty, the current directory is used.
func writeExport(history []Statement, filterQuery string, format exportFormat, dir string) (string, error) {
	var content string
	var err error

	switch format {
	case exportJSON:
		content, err = renderJSON(history, filterQuery)
		if err != nil {
			return "", err
		}
	case exportMarkdown:
		content = renderMarkdown(history, filterQuery)
	}

	filename := fmt.Sprintf("xsh-%s.%s", time.Now().Format("20060102-150405"), format.ext())
	if dir != "" {
		filename = filepath.Join(dir, filename)
	}

	if err := os.WriteFile(filename, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return filename, nil
}
