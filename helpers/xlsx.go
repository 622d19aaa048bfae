package helpers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/schema"
)

// ParseXLSX parses a workbook sheet into Records with the same rules as ParseCSV.
// An empty sheet name selects the first sheet. Cells are read as displayed,
// so currency-formatted cells go through NormalizeAmount like CSV text.
func ParseXLSX(r io.Reader, sheet string, sch schema.Config) (records []engine.Record, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var cols *columnMap
	rowNum := 0
	for rows.Next() {
		rowNum++
		row, err := rows.Columns()
		if err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}

		if cols == nil {
			if isBlankRow(row) {
				continue
			}
			if cols, err = newColumnMap(row, sch); err != nil {
				return nil, err
			}
			continue
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
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if cols == nil {
		return nil, ErrEmptyFile
	}

	return records, nil
}
