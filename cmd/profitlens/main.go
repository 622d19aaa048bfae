package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spektr-org/profitlens/config"
	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/helpers"
	"github.com/spektr-org/profitlens/schema"
	"github.com/spektr-org/profitlens/storage"
	"github.com/spektr-org/profitlens/telemetry"
)

// ============================================================================
// PROFITLENS CLI — Best and worst profit change per category
// ============================================================================

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

const usage = `profitlens ranks categories of a profit dataset by period-over-period change.

Usage:
  profitlens rank     --file data.csv --by Region [--format text]
  profitlens discover --file data.csv [--out schema.yaml]
  profitlens report   --state Texas [--config profitlens.yaml] [--narrate] [--email]
  profitlens serve    [--config profitlens.yaml]
  profitlens version

Environment:
  AI_API                       Narrative service token (report --narrate, serve)
  MAILGUN                      Mailgun API key (report --email, serve)
  TO_EMAIL, FROM_EMAIL         Email recipient and sender
  MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET
  OTEL_EXPORTER_OTLP_ENDPOINT  OTLP/HTTP collector for logs, traces and metrics
  PROFITLENS_ADDR              Listen address for serve

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Ranking table with best/worst summary
  csv       Ranking as CSV (ready for Sheets/Excel)

Run "profitlens <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "rank":
		err = runRank(ctx, args)
	case "discover":
		err = runDiscover(args)
	case "report":
		err = runReport(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "version", "--version", "-version":
		fmt.Printf("profitlens %s\n", version)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		stop()
		fatalf("%v", err)
	}
}

// ============================================================================
// RANK
// ============================================================================

func runRank(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to CSV or XLSX data file; append #Sheet to pick a sheet")
	sqlitePath := fs.String("sqlite", "", "Read records from this SQLite database instead of --file")
	table := fs.String("table", "sales", "SQLite table (with --sqlite)")
	schemaPath := fs.String("schema", "", "Path to schema YAML/JSON (default: auto-detect from CSV)")
	by := fs.String("by", "", "Category field to group by (required)")
	prior := fs.String("prior", "", "Prior period field (default: second to last schema period)")
	current := fs.String("current", "", "Current period field (default: last schema period)")
	rounding := fs.String("rounding", "half_even", "Thousands rounding: half_even or half_away_from_zero")
	format := fs.String("format", "json", "Output format: json, pretty, text, csv")
	outFile := fs.String("out", "", "Write output to file instead of stdout")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	fs.Parse(args)

	if *by == "" {
		fs.Usage()
		return fmt.Errorf("--by is required")
	}
	if (*filePath == "") == (*sqlitePath == "") {
		fs.Usage()
		return fmt.Errorf("exactly one of --file or --sqlite is required")
	}
	mode, err := engine.ParseRounding(*rounding)
	if err != nil {
		return fmt.Errorf("--rounding: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "profitlens", ServiceVersion: version, LogLevel: *logLevel})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())
	log := telemetry.Logger("profitlens/cli")

	// ── Schema ────────────────────────────────────────────────────────────
	sch, err := rankSchema(*schemaPath, *filePath)
	if err != nil {
		return err
	}
	sch = sch.WithCategories(*by)

	var periods engine.PeriodPair
	if *prior != "" || *current != "" {
		periods = engine.PeriodPair{Prior: *prior, Current: *current}
		if err := periods.Validate(); err != nil {
			return err
		}
		sch.Periods = []schema.PeriodMeta{schema.DefaultPeriod(*prior), schema.DefaultPeriod(*current)}
	} else {
		periods, err = sch.PeriodPair()
		if err != nil {
			return err
		}
	}

	// ── Records ───────────────────────────────────────────────────────────
	var records []engine.Record
	if *sqlitePath != "" {
		db, err := helpers.OpenSQLite(ctx, *sqlitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		records, err = helpers.LoadSQLite(ctx, db, *table, sch)
		if err != nil {
			return err
		}
	} else {
		store := storage.NewDir(filepath.Dir(*filePath))
		records, err = helpers.ParseFile(ctx, store, filepath.Base(*filePath), sch)
		if err != nil {
			return err
		}
	}
	log.InfoContext(ctx, "parsed records", slog.Int("count", len(records)))

	// ── Rank ──────────────────────────────────────────────────────────────
	result, err := engine.RankRecords(records, *by, periods, engine.WithRounding(mode))
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(*outFile)
	if err != nil {
		return err
	}
	defer closeOut()

	switch *format {
	case "csv":
		return writeCSV(w, engine.BuildRankingTable(result, *by, periods))
	case "text":
		return writeText(w, engine.BuildRankingTable(result, *by, periods))
	default:
		return writeJSON(w, rankOutput{By: *by, Periods: periods, Result: result}, *format)
	}
}

// rankSchema loads the schema file, or discovers one from a CSV, or falls back to the built-in layout.
func rankSchema(schemaPath, filePath string) (schema.Config, error) {
	if schemaPath != "" {
		sch, err := schema.Load(schemaPath)
		if err != nil {
			return schema.Config{}, err
		}
		return *sch, nil
	}

	if strings.EqualFold(filepath.Ext(filePath), ".csv") {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return schema.Config{}, fmt.Errorf("read file: %w", err)
		}
		sch, err := schema.DiscoverFromCSV(data)
		if err != nil {
			return schema.Config{}, fmt.Errorf("auto-detect failed: %w", err)
		}
		return *sch, nil
	}

	return schema.Superstore(), nil
}

type rankOutput struct {
	By      string            `json:"by"`
	Periods engine.PeriodPair `json:"periods"`
	Result  *engine.Result    `json:"result"`
}

// ============================================================================
// DISCOVER
// ============================================================================

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to CSV data file (required)")
	name := fs.String("name", "", "Dataset name (default: file name)")
	recoverCols := fs.String("recover", "", "Comma-separated skipped columns to keep as categories")
	format := fs.String("format", "pretty", "Output format: json, pretty, yaml")
	outFile := fs.String("out", "", "Write schema to file (.yaml/.yml/.json picks the encoding)")
	fs.Parse(args)

	if *filePath == "" {
		fs.Usage()
		return fmt.Errorf("--file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	opts := schema.DiscoverOptions{Name: *name}
	for _, col := range strings.Split(*recoverCols, ",") {
		if col = strings.TrimSpace(col); col != "" {
			opts.RecoverColumns = append(opts.RecoverColumns, col)
		}
	}
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(*filePath), filepath.Ext(*filePath))
	}
	sch, err := schema.DiscoverFromCSV(data, opts)
	if err != nil {
		return fmt.Errorf("auto-detect failed: %w", err)
	}
	sch.DiscoveredFrom = filepath.Base(*filePath)

	if *outFile != "" {
		out, err := sch.Marshal(*outFile)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*outFile, out, 0o644); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Schema written to %s (%d categories, %d periods, %d skipped)\n",
			*outFile, len(sch.Categories), len(sch.Periods), len(sch.SkippedColumns))
		return nil
	}

	if *format == "yaml" {
		out, err := sch.Marshal("schema.yaml")
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	return writeJSON(os.Stdout, sch, *format)
}

// ============================================================================
// CONFIG-DRIVEN COMMANDS
// ============================================================================

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func datasetSchema(cfg config.Config) (schema.Config, error) {
	if cfg.Data.Schema == "" {
		return schema.Superstore(), nil
	}
	sch, err := schema.Load(cfg.Data.Schema)
	if err != nil {
		return schema.Config{}, err
	}
	return *sch, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
