package ui

import (
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders tabular CLI output.
type Table struct {
	headers []string
	rows    [][]string
	title   string
}

// NewTable creates a table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

// WithTitle sets the table title.
func (t *Table) WithTitle(title string) *Table {
	t.title = title
	return t
}

// AddRow appends a row.
func (t *Table) AddRow(row ...string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render produces the styled table text.
func (t *Table) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var out strings.Builder
	if t.title != "" {
		out.WriteString("\n")
		out.WriteString(titleStyle.Render(t.title))
		out.WriteString("\n\n")
	}

	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = padRight(tableHeaderStyle.Render(h), widths[i])
	}
	out.WriteString(strings.Join(header, "  "))
	out.WriteString("\n")

	separator := "─"
	if runtime.GOOS == "windows" {
		separator = "-"
	}
	rule := make([]string, len(t.headers))
	for i := range t.headers {
		rule[i] = mutedStyle.Render(strings.Repeat(separator, widths[i]))
	}
	out.WriteString(strings.Join(rule, "  "))
	out.WriteString("\n")

	for _, row := range t.rows {
		cells := make([]string, len(t.headers))
		for i, cell := range row {
			if i < len(widths) {
				cells[i] = padRight(cell, widths[i])
			}
		}
		out.WriteString(strings.Join(cells, "  "))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	return out.String()
}

func padRight(text string, width int) string {
	visible := lipgloss.Width(text)
	if visible >= width {
		return text
	}
	return text + strings.Repeat(" ", width-visible)
}
