package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/schema"
)

// ============================================================================
// SQLITE HELPER — Reads a table of profit rows
// ============================================================================
// Read only. The declared columns are selected by name; period values go
// through the same normalization as CSV cells, so TEXT "$1,200" and
// REAL 1200 both work.
// ============================================================================

// OpenSQLite opens a database file read only.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// sqliteDSN builds a read-only file URI. The path is escaped, so '?' and '#'
// in a file name stay part of the name.
func sqliteDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/data.db
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro"}
	return u.String(), nil
}

// LoadSQLite selects the schema's columns from table and builds Records.
func LoadSQLite(ctx context.Context, db *sql.DB, table string, sch schema.Config) ([]engine.Record, error) {
	keys := append(sch.CategoryKeys(), sch.PeriodKeys()...)
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = quoteIdent(k)
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(table))
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := newColumnMap(keys, sch)
	if err != nil {
		return nil, err
	}

	raw := make([]sql.NullString, len(keys))
	dest := make([]any, len(keys))
	for i := range raw {
		dest[i] = &raw[i]
	}

	var records []engine.Record
	for rowNum := 1; rows.Next(); rowNum++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}

		row := make([]string, len(raw))
		for i, v := range raw {
			if !v.Valid {
				return nil, &RowError{Row: rowNum, Column: keys[i], Err: ErrMissingColumn}
			}
			row[i] = v.String
		}

		rec, err := cols.record(row, rowNum)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	return records, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
