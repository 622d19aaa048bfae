package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/profitlens/engine"
)

// ============================================================================
// OUTPUT
// ============================================================================

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeCSV writes the ranking table as CSV, ready for Sheets.
func writeCSV(w io.Writer, td *engine.TableData) error {
	cw := csv.NewWriter(w)

	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(td.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	worstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// writeText renders the ranking table with the best/worst summary underneath.
func writeText(w io.Writer, td *engine.TableData) error {
	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(td.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			s := cellStyle
			if col < len(td.Columns) && td.Columns[col].Align == "right" {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	lines := []string{titleStyle.Render(td.Title), t.Render()}
	if td.Summary != nil {
		v := td.Summary.Values
		lines = append(lines,
			bestStyle.Render(fmt.Sprintf("Best:  %s %s (%s → %s)", v["best"], v["best_change"], v["best_prior"], v["best_current"])),
			worstStyle.Render(fmt.Sprintf("Worst: %s %s", v["worst"], v["worst_change"])),
			td.Summary.Label,
		)
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...))
	return err
}
