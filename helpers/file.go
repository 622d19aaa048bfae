package helpers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/schema"
	"github.com/spektr-org/profitlens/storage"
)

// ErrUnsupportedFormat is returned for an extension ParseFile cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseFile opens name from store and parses it by extension (.csv, .xlsx).
// A "#Sheet" suffix on a workbook name selects the sheet: "sales.xlsx#2009".
func ParseFile(ctx context.Context, store storage.Storage, name string, sch schema.Config) (records []engine.Record, err error) {
	object, sheet, _ := strings.Cut(name, "#")

	ext := strings.ToLower(filepath.Ext(object))
	if ext != ".csv" && ext != ".xlsx" && ext != ".xlsm" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	rc, err := store.Open(ctx, object)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if ext == ".csv" {
		records, err = ParseCSV(rc, sch)
	} else {
		records, err = ParseXLSX(rc, sheet, sch)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return records, nil
}
