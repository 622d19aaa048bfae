// Package report builds the figures a state narrative is written from.
//
// A report ranks six views of the sales extracts: the chosen state by State,
// Business Unit and Product Group, then the whole country by Region, Business
// Unit and Product Group. The six ranks are independent and run concurrently.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/telemetry"
)

// ErrUnknownState is returned when the detail extract has no rows for the requested state.
var ErrUnknownState = errors.New("unknown state")

// Scope is the input of one report.
type Scope struct {
	State   string
	Periods engine.PeriodPair
}

// Calcs carries the ranked figures under the keys the narrative template expects.
type Calcs struct {
	Timeframe   string `json:"timeframe"`
	StateCount  int    `json:"state_count"`
	RegionCount int    `json:"region_count"`

	StateTopProfitChange              string  `json:"state_top_profit_change"`
	StateTopProfitChangeValue         float64 `json:"state_top_profit_change_value"`
	StateTopProfitChangeProfitCurrent float64 `json:"state_top_profit_change_profit_current"`
	StateTopProfitChangeProfitPrev    float64 `json:"state_top_profit_change_profit_prev"`

	StateTopProfitChangeTopBU        string  `json:"state_top_profit_change_top_bu"`
	StateTopProfitChangeTopBUValue   float64 `json:"state_top_profit_change_top_bu_value"`
	StateTopProfitChangeTopBUCurrent float64 `json:"state_top_profit_change_top_bu_current"`
	StateTopProfitChangeBotBU        string  `json:"state_top_profit_change_bot_bu"`
	StateTopProfitChangeBotBUValue   float64 `json:"state_top_profit_change_bot_bu_value"`

	StateTopProfitChangeTopProd        string  `json:"state_top_profit_change_top_prod"`
	StateTopProfitChangeTopProdValue   float64 `json:"state_top_profit_change_top_prod_value"`
	StateTopProfitChangeTopProdCurrent float64 `json:"state_top_profit_change_top_prod_current"`
	StateTopProfitChangeBotProd        string  `json:"state_top_profit_change_bot_prod"`
	StateTopProfitChangeBotProdValue   float64 `json:"state_top_profit_change_bot_prod_value"`

	StateTopProfitChangeRegion string `json:"state_top_profit_change_region"`

	RegionTopProfitChange      string  `json:"region_top_profit_change"`
	RegionTopProfitChangeValue float64 `json:"region_top_profit_change_value"`
	BUTopProfitChange          string  `json:"bu_top_profit_change"`
	BUTopProfitChangeValue     float64 `json:"bu_top_profit_change_value"`
	ProdTopProfitChange        string  `json:"prod_top_profit_change"`
	ProdTopProfitChangeValue   float64 `json:"prod_top_profit_change_value"`
}

// Builder runs the six ranks behind a report.
type Builder struct {
	opts    []engine.Option
	log     *slog.Logger
	tracer  trace.Tracer
	rankCnt metric.Int64Counter
}

// NewBuilder creates a Builder. opts are passed to every engine.Rank call.
func NewBuilder(opts ...engine.Option) (*Builder, error) {
	meter := otel.Meter("profitlens/report")

	rankCnt, err := meter.Int64Counter(
		"profitlens.rank.calls",
		metric.WithDescription("Category ranks computed while building reports"),
	)
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}

	return &Builder{
		opts:    opts,
		log:     telemetry.Logger("profitlens/report"),
		tracer:  otel.Tracer("profitlens/report"),
		rankCnt: rankCnt,
	}, nil
}

type rankJob struct {
	dataset  string
	view     engine.RecordView
	category string
	dst      **engine.Result
}

// Build ranks the datasets for scope. Any failing rank fails the whole report.
func (b *Builder) Build(ctx context.Context, ds *Datasets, scope Scope) (*Calcs, error) {
	ctx, span := b.tracer.Start(ctx, "report.build", trace.WithAttributes(
		attribute.String("state", scope.State),
		attribute.String("periods", scope.Periods.String()),
	))
	defer span.End()

	calcs, err := b.build(ctx, ds, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.log.ErrorContext(ctx, "failed to build report",
			slog.String("state", scope.State),
			slog.Any("error", err),
		)
		return nil, err
	}

	b.log.InfoContext(ctx, "built report",
		slog.String("state", scope.State),
		slog.String("top_bu", calcs.StateTopProfitChangeTopBU),
		slog.String("top_prod", calcs.StateTopProfitChangeTopProd),
	)
	return calcs, nil
}

func (b *Builder) build(ctx context.Context, ds *Datasets, scope Scope) (*Calcs, error) {
	if err := scope.Periods.Validate(); err != nil {
		return nil, err
	}

	stateView := ds.stateView(scope.State)
	if stateView.Len() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, scope.State)
	}

	var state, stateBU, stateProd, region, bu, prod *engine.Result
	jobs := []rankJob{
		{dataset: "state", view: stateView, category: State, dst: &state},
		{dataset: "state", view: stateView, category: BusinessUnit, dst: &stateBU},
		{dataset: "state", view: stateView, category: ProductGroup, dst: &stateProd},
		{dataset: "region", view: engine.NewSliceView(ds.Region), category: Region, dst: &region},
		{dataset: "business_unit", view: engine.NewSliceView(ds.BusinessUnit), category: BusinessUnit, dst: &bu},
		{dataset: "product_group", view: engine.NewSliceView(ds.ProductGroup), category: ProductGroup, dst: &prod},
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, job := range jobs {
		p.Go(func(ctx context.Context) error {
			res, err := b.rank(ctx, job, scope.Periods)
			if err != nil {
				return err
			}
			*job.dst = res
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	stateRegion, _ := stateView.Dimension(0, Region)

	return &Calcs{
		Timeframe:   "year",
		StateCount:  1,
		RegionCount: 1,

		StateTopProfitChange:              state.Category,
		StateTopProfitChangeValue:         state.ProfitChange,
		StateTopProfitChangeProfitCurrent: state.CurrentProfit,
		StateTopProfitChangeProfitPrev:    state.PrevProfit,

		StateTopProfitChangeTopBU:        stateBU.Category,
		StateTopProfitChangeTopBUValue:   stateBU.ProfitChange,
		StateTopProfitChangeTopBUCurrent: stateBU.CurrentProfit,
		StateTopProfitChangeBotBU:        stateBU.WorstCategory,
		StateTopProfitChangeBotBUValue:   stateBU.WorstProfitChange,

		StateTopProfitChangeTopProd:        stateProd.Category,
		StateTopProfitChangeTopProdValue:   stateProd.ProfitChange,
		StateTopProfitChangeTopProdCurrent: stateProd.CurrentProfit,
		StateTopProfitChangeBotProd:        stateProd.WorstCategory,
		StateTopProfitChangeBotProdValue:   stateProd.WorstProfitChange,

		StateTopProfitChangeRegion: stateRegion,

		RegionTopProfitChange:      region.Category,
		RegionTopProfitChangeValue: region.ProfitChange,
		BUTopProfitChange:          bu.Category,
		BUTopProfitChangeValue:     bu.ProfitChange,
		ProdTopProfitChange:        prod.Category,
		ProdTopProfitChangeValue:   prod.ProfitChange,
	}, nil
}

func (b *Builder) rank(ctx context.Context, job rankJob, periods engine.PeriodPair) (*engine.Result, error) {
	attrs := []attribute.KeyValue{
		attribute.String("dataset", job.dataset),
		attribute.String("category", job.category),
	}
	ctx, span := b.tracer.Start(ctx, "report.rank", trace.WithAttributes(attrs...))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := engine.Rank(job.view, job.category, periods, b.opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.rankCnt.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", "error"))...))
		return nil, fmt.Errorf("rank %s by %s: %w", job.dataset, job.category, err)
	}

	b.rankCnt.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", "ok"))...))
	span.SetAttributes(attribute.String("best", res.Category), attribute.Int("categories", len(res.Ranking)))
	return res, nil
}
