package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/schema"
)

// ============================================================================
// RECORD MAPPING — Header-indexed rows → engine.Record
// ============================================================================
// Shared by the CSV, XLSX and SQLite readers. Validation happens here, once:
// a record that reaches the engine carries every declared category and period.
// ============================================================================

var (
	// ErrEmptyFile is returned when a source has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrMissingColumn is returned when a declared column is absent from the header or a row.
	ErrMissingColumn = errors.New("missing column")

	// ErrNotNumeric is returned when a period cell is not an amount.
	ErrNotNumeric = errors.New("not numeric")
)

// RowError locates a bad cell. Row is 1-based and counts the header.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type column struct {
	key   string
	index int
}

// columnMap resolves declared schema keys to header positions.
type columnMap struct {
	categories []column
	periods    []column
	emptyToken string
}

func newColumnMap(headers []string, sch schema.Config) (*columnMap, error) {
	positions := make(map[string]int, len(headers))
	folded := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
		if _, dup := folded[strings.ToLower(h)]; !dup {
			folded[strings.ToLower(h)] = i
		}
	}

	lookup := func(key string) (column, error) {
		if i, ok := positions[key]; ok {
			return column{key: key, index: i}, nil
		}
		if i, ok := folded[strings.ToLower(key)]; ok {
			return column{key: key, index: i}, nil
		}
		return column{}, &RowError{Row: 1, Column: key, Err: ErrMissingColumn}
	}

	m := &columnMap{emptyToken: sch.EmptyToken()}
	for _, key := range sch.CategoryKeys() {
		c, err := lookup(key)
		if err != nil {
			return nil, err
		}
		m.categories = append(m.categories, c)
	}
	for _, key := range sch.PeriodKeys() {
		c, err := lookup(key)
		if err != nil {
			return nil, err
		}
		m.periods = append(m.periods, c)
	}
	return m, nil
}

// record builds one engine.Record. rowNum is the 1-based source row.
func (m *columnMap) record(row []string, rowNum int) (engine.Record, error) {
	rec := engine.Record{
		Dimensions: make(map[string]string, len(m.categories)),
		Measures:   make(map[string]float64, len(m.periods)),
	}

	for _, c := range m.categories {
		if c.index >= len(row) {
			return engine.Record{}, &RowError{Row: rowNum, Column: c.key, Err: ErrMissingColumn}
		}
		rec.Dimensions[c.key] = strings.TrimSpace(row[c.index])
	}

	for _, c := range m.periods {
		if c.index >= len(row) {
			return engine.Record{}, &RowError{Row: rowNum, Column: c.key, Err: ErrMissingColumn}
		}
		v, ok := normalizeCell(row[c.index], m.emptyToken)
		if !ok {
			return engine.Record{}, &RowError{
				Row:    rowNum,
				Column: c.key,
				Err:    fmt.Errorf("%w: %q", ErrNotNumeric, row[c.index]),
			}
		}
		rec.Measures[c.key] = v
	}

	return rec, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
