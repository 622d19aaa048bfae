package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into []engine.Record
// ============================================================================
// Consumer opens the CSV from wherever it lives (local dir, MinIO bucket).
// This helper converts the rows into Records using the schema.
// Undeclared columns are ignored. Any bad row fails the whole parse.
// ============================================================================

// ParseCSV parses CSV rows into Records using the schema for classification.
// Category columns become Dimensions, period columns become normalized Measures.
func ParseCSV(r io.Reader, sch schema.Config) ([]engine.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	cols, err := newColumnMap(headers, sch)
	if err != nil {
		return nil, err
	}

	var records []engine.Record
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
		if isBlankRow(row) {
			continue
		}

		rec, err := cols.record(row, rowNum)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}
