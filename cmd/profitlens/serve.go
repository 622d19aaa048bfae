package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spektr-org/profitlens/config"
	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/mailer"
	"github.com/spektr-org/profitlens/narrative"
	"github.com/spektr-org/profitlens/report"
	"github.com/spektr-org/profitlens/skill"
	"github.com/spektr-org/profitlens/telemetry"
)

// ============================================================================
// REPORT — One state's figures, optionally narrated and emailed
// ============================================================================

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to profitlens YAML config")
	state := fs.String("state", "", "State to report on (required)")
	narrate := fs.Bool("narrate", false, "Generate the narrative (remote when AI_API is set, local otherwise)")
	email := fs.Bool("email", false, "Email the narrative and dashboard link (implies --narrate)")
	list := fs.Bool("states", false, "List the states in the detail extract and exit")
	format := fs.String("format", "pretty", "Output format: json, pretty")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *email {
		*narrate = true
		if err := cfg.Mailgun.Validate(); err != nil {
			return err
		}
	}
	if *state == "" && !*list {
		fs.Usage()
		return fmt.Errorf("--state is required")
	}

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	ds, periods, err := loadDatasets(ctx, cfg)
	if err != nil {
		return err
	}
	if *list {
		return writeJSON(os.Stdout, ds.States(), *format)
	}

	opts, err := cfg.RankOptions()
	if err != nil {
		return err
	}
	builder, err := report.NewBuilder(opts...)
	if err != nil {
		return err
	}
	calcs, err := builder.Build(ctx, ds, report.Scope{State: *state, Periods: periods})
	if err != nil {
		return err
	}

	out := reportOutput{
		Calcs: calcs,
		URL:   report.DashboardURL(cfg.Skill.DashboardBase, calcs.StateTopProfitChange),
	}
	if *narrate {
		out.Narrative, err = narrator(cfg).Generate(ctx, calcs)
		if err != nil {
			return err
		}
	}
	if *email {
		msg := mailer.Message{State: calcs.StateTopProfitChange, Narrative: out.Narrative, URL: out.URL}
		if err := mailer.NewMailgun(cfg.Mailgun).Send(ctx, msg); err != nil {
			return err
		}
		out.Emailed = true
	}

	return writeJSON(os.Stdout, out, *format)
}

type reportOutput struct {
	Calcs     *report.Calcs `json:"calcs"`
	URL       string        `json:"url"`
	Narrative string        `json:"narrative,omitempty"`
	Emailed   bool          `json:"emailed,omitempty"`
}

// ============================================================================
// SERVE — Voice skill endpoint
// ============================================================================

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to profitlens YAML config")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Mailgun.Validate(); err != nil {
		return err
	}

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())
	log := telemetry.Logger("profitlens/serve")

	ds, periods, err := loadDatasets(ctx, cfg)
	if err != nil {
		return err
	}

	opts, err := cfg.RankOptions()
	if err != nil {
		return err
	}
	builder, err := report.NewBuilder(opts...)
	if err != nil {
		return err
	}

	prompts := skill.DefaultPrompts()
	if cfg.Skill.Prompts != "" {
		prompts, err = skill.LoadPrompts(cfg.Skill.Prompts)
		if err != nil {
			return err
		}
	}

	h := skill.NewHandler(ds, builder, narrator(cfg), mailer.NewMailgun(cfg.Mailgun),
		skill.WithPrompts(prompts),
		skill.WithPeriods(periods),
		skill.WithDashboardBase(cfg.Skill.DashboardBase),
	)

	ls, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := skill.NewServer(ls, skill.NewRouter(h, log))

	log.InfoContext(ctx, "serving voice skill",
		slog.String("addr", srv.Addr().String()),
		slog.Int("states", len(ds.States())),
	)
	return srv.Run(ctx)
}

// ============================================================================
// SHARED WIRING
// ============================================================================

func loadDatasets(ctx context.Context, cfg config.Config) (*report.Datasets, engine.PeriodPair, error) {
	sch, err := datasetSchema(cfg)
	if err != nil {
		return nil, engine.PeriodPair{}, err
	}
	periods, err := sch.PeriodPair()
	if err != nil {
		return nil, engine.PeriodPair{}, err
	}

	store, err := cfg.Storage()
	if err != nil {
		return nil, engine.PeriodPair{}, err
	}
	ds, err := report.LoadDatasets(ctx, store, cfg.Data.Extracts, sch)
	if err != nil {
		return nil, engine.PeriodPair{}, err
	}
	return ds, periods, nil
}

// narrator uses the remote template when a token is configured, with the local template as fallback.
func narrator(cfg config.Config) narrative.Generator {
	local := narrative.NewLocal("")
	if cfg.Wordsmith.Token == "" {
		return local
	}
	return narrative.NewFallback(narrative.NewWordsmith(cfg.Wordsmith), local)
}
