// Package cli provides terminal rendering helpers for command line
// tools: a small color theme and aligned report tables.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for rendered output.
type Theme struct {
	Primary lipgloss.Color // headings and accents
	Dim     lipgloss.Color // separators and secondary text
}

// DefaultTheme is the default cyan theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#5fd7ff"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Table is a header row plus data rows, rendered as space-padded
// columns.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Add appends one row.
func (t *Table) Add(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Table renders a table with styled headers and a separator rule.
// Column widths follow the widest cell; the last column is not padded.
func (s Styles) Table(t Table) string {
	widths := make([]int, len(t.Headers))
	for j, h := range t.Headers {
		widths[j] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for j, c := range row {
			if j < len(widths) && lipgloss.Width(c) > widths[j] {
				widths[j] = lipgloss.Width(c)
			}
		}
	}

	var b strings.Builder
	for j, h := range t.Headers {
		if j > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.Header.Render(pad(h, widths[j], j == len(widths)-1)))
	}
	b.WriteByte('\n')
	for j, w := range widths {
		if j > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.Dim.Render(strings.Repeat("─", w)))
	}
	for _, row := range t.Rows {
		b.WriteByte('\n')
		for j, c := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			b.WriteString(pad(c, widths[j], j == len(row)-1))
		}
	}
	return b.String()
}

// KeyValue renders a "key  value" summary line aligned to the given
// key width.
func (s Styles) KeyValue(key, value string, keyWidth int) string {
	return s.Label.Render(pad(key, keyWidth, false)) + "  " + value
}

func pad(v string, width int, last bool) string {
	if last {
		return v
	}
	if d := width - lipgloss.Width(v); d > 0 {
		return v + strings.Repeat(" ", d)
	}
	return v
}
