package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/schema"
	"github.com/spektr-org/profitlens/storage"
)

var fiscal = engine.PeriodPair{Prior: "2008", Current: "2009"}

func rec(dims map[string]string, prior, current float64) engine.Record {
	return engine.Record{
		Dimensions: dims,
		Measures:   map[string]float64{"2008": prior, "2009": current},
	}
}

func detail(state, region, bu, prod string, prior, current float64) engine.Record {
	return rec(map[string]string{State: state, Region: region, BusinessUnit: bu, ProductGroup: prod}, prior, current)
}

func testDatasets() *Datasets {
	return &Datasets{
		Detail: []engine.Record{
			detail("Texas", "Central", "Technology", "Phones", 1000, 2000),
			detail("Texas", "Central", "Furniture", "Chairs", 4000, 3000),
			detail("Texas", "Central", "Technology", "Copiers", 500, 250),
			detail("Ohio", "East", "Technology", "Phones", 100, 50),
		},
		Region: []engine.Record{
			rec(map[string]string{Region: "Central"}, 1000, 1500),
			rec(map[string]string{Region: "East"}, 2000, 1000),
		},
		BusinessUnit: []engine.Record{
			rec(map[string]string{BusinessUnit: "Technology"}, 1000, 1100),
			rec(map[string]string{BusinessUnit: "Furniture"}, 1000, 800),
		},
		ProductGroup: []engine.Record{
			rec(map[string]string{ProductGroup: "Phones"}, 100, 300),
			rec(map[string]string{ProductGroup: "Chairs"}, 100, 100),
		},
	}
}

func newBuilder(t *testing.T, opts ...engine.Option) *Builder {
	t.Helper()
	b, err := NewBuilder(opts...)
	require.NoError(t, err)
	return b
}

func TestBuild(t *testing.T) {
	calcs, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{State: "Texas", Periods: fiscal})
	require.NoError(t, err)

	assert.Equal(t, "year", calcs.Timeframe)
	assert.Equal(t, 1, calcs.StateCount)
	assert.Equal(t, 1, calcs.RegionCount)

	// Texas: 5500 → 5250
	assert.Equal(t, "Texas", calcs.StateTopProfitChange)
	assert.InDelta(t, -250.0/5500.0, calcs.StateTopProfitChangeValue, 1e-9)
	assert.Equal(t, 5000.0, calcs.StateTopProfitChangeProfitCurrent)
	assert.Equal(t, 6000.0, calcs.StateTopProfitChangeProfitPrev)

	// Technology 1500 → 2250, Furniture 4000 → 3000
	assert.Equal(t, "Technology", calcs.StateTopProfitChangeTopBU)
	assert.InDelta(t, 0.5, calcs.StateTopProfitChangeTopBUValue, 1e-9)
	assert.Equal(t, 2000.0, calcs.StateTopProfitChangeTopBUCurrent)
	assert.Equal(t, "Furniture", calcs.StateTopProfitChangeBotBU)
	assert.InDelta(t, -0.25, calcs.StateTopProfitChangeBotBUValue, 1e-9)

	assert.Equal(t, "Phones", calcs.StateTopProfitChangeTopProd)
	assert.InDelta(t, 1.0, calcs.StateTopProfitChangeTopProdValue, 1e-9)
	assert.Equal(t, 2000.0, calcs.StateTopProfitChangeTopProdCurrent)
	assert.Equal(t, "Copiers", calcs.StateTopProfitChangeBotProd)
	assert.InDelta(t, -0.5, calcs.StateTopProfitChangeBotProdValue, 1e-9)

	assert.Equal(t, "Central", calcs.StateTopProfitChangeRegion)

	assert.Equal(t, "Central", calcs.RegionTopProfitChange)
	assert.InDelta(t, 0.5, calcs.RegionTopProfitChangeValue, 1e-9)
	assert.Equal(t, "Technology", calcs.BUTopProfitChange)
	assert.InDelta(t, 0.1, calcs.BUTopProfitChangeValue, 1e-9)
	assert.Equal(t, "Phones", calcs.ProdTopProfitChange)
	assert.InDelta(t, 2.0, calcs.ProdTopProfitChangeValue, 1e-9)
}

func TestBuild_CaseInsensitiveState(t *testing.T) {
	calcs, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{State: "texas", Periods: fiscal})
	require.NoError(t, err)
	assert.Equal(t, "Texas", calcs.StateTopProfitChange)
}

func TestBuild_RoundingOption(t *testing.T) {
	ds := testDatasets()
	ds.Detail = []engine.Record{detail("Texas", "Central", "Technology", "Phones", 2500, 3500)}
	scope := Scope{State: "Texas", Periods: fiscal}

	calcs, err := newBuilder(t).Build(context.Background(), ds, scope)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, calcs.StateTopProfitChangeProfitPrev)
	assert.Equal(t, 4000.0, calcs.StateTopProfitChangeProfitCurrent)

	calcs, err = newBuilder(t, engine.WithRounding(engine.RoundHalfAwayFromZero)).Build(context.Background(), ds, scope)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, calcs.StateTopProfitChangeProfitPrev)
	assert.Equal(t, 4000.0, calcs.StateTopProfitChangeProfitCurrent)
}

func TestBuild_JSONKeys(t *testing.T) {
	calcs, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{State: "Texas", Periods: fiscal})
	require.NoError(t, err)

	data, err := json.Marshal(calcs)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 24)
	assert.Equal(t, "Central", m["state_top_profit_change_region"])
	assert.Equal(t, "Technology", m["bu_top_profit_change"])
	assert.Contains(t, m, "state_top_profit_change_profit_prev")
}

func TestBuild_Errors(t *testing.T) {
	t.Run("unknown state", func(t *testing.T) {
		_, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{State: "Utah", Periods: fiscal})
		assert.ErrorIs(t, err, ErrUnknownState)
	})

	t.Run("empty state", func(t *testing.T) {
		_, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{Periods: fiscal})
		assert.ErrorIs(t, err, ErrUnknownState)
	})

	t.Run("invalid periods", func(t *testing.T) {
		_, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{State: "Texas", Periods: engine.PeriodPair{Prior: "2009", Current: "2009"}})
		assert.ErrorIs(t, err, engine.ErrInvalidPeriods)
	})

	t.Run("missing period in national extract", func(t *testing.T) {
		ds := testDatasets()
		ds.Region = append(ds.Region, engine.Record{
			Dimensions: map[string]string{Region: "West"},
			Measures:   map[string]float64{"2008": 10},
		})

		_, err := newBuilder(t).Build(context.Background(), ds, Scope{State: "Texas", Periods: fiscal})
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrMissingField)
		assert.Contains(t, err.Error(), "rank region by Region")
	})

	t.Run("empty national extract", func(t *testing.T) {
		ds := testDatasets()
		ds.ProductGroup = nil

		_, err := newBuilder(t).Build(context.Background(), ds, Scope{State: "Texas", Periods: fiscal})
		assert.ErrorIs(t, err, engine.ErrEmptyInput)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newBuilder(t).Build(ctx, testDatasets(), Scope{State: "Texas", Periods: fiscal})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestBuild_RankCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	_, err := newBuilder(t).Build(context.Background(), testDatasets(), Scope{State: "Texas", Periods: fiscal})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "profitlens.rank.calls" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(6), total)
}

func TestStates(t *testing.T) {
	ds := testDatasets()
	assert.Equal(t, []string{"Texas", "Ohio"}, ds.States())
	assert.True(t, ds.ValidState("Texas"))
	assert.True(t, ds.ValidState("OHIO"))
	assert.False(t, ds.ValidState("Utah"))
	assert.False(t, ds.ValidState(""))
}

func TestDashboardURL(t *testing.T) {
	block := func(t *testing.T, link string) string {
		t.Helper()
		u, err := url.Parse(link)
		require.NoError(t, err)
		q := u.Query()
		require.True(t, q.Has("configurationBlock"), link)
		return q.Get("configurationBlock")
	}

	t.Run("default base", func(t *testing.T) {
		link := DashboardURL("", "Texas")
		assert.True(t, strings.HasPrefix(link, DefaultDashboardBase+"&configurationBlock="))
		assert.NotContains(t, strings.TrimPrefix(link, DefaultDashboardBase), " ")
		assert.NotContains(t, strings.TrimPrefix(link, DefaultDashboardBase), `"`)
		assert.Equal(t,
			`aiProfitTrigger=9998;SetPage(pageTitle="Profitability by Geography");`+
				`SetMarking(markingName="MapMarking",tableName="Superstore_Sales_r",whereClause="State='Texas'",operation=Replace);`,
			block(t, link))
	})

	t.Run("quote in state", func(t *testing.T) {
		link := DashboardURL("http://dash.example/open?file=x", "Hawai'i")
		assert.True(t, strings.HasPrefix(link, "http://dash.example/open?file=x&"))
		assert.Contains(t, block(t, link), `whereClause="State='Hawai''i'"`)
	})

	t.Run("query delimiters in state", func(t *testing.T) {
		for _, state := range []string{"A+B", "A&B", "A=B", "A#B", "A;B%"} {
			link := DashboardURL("http://dash.example/open?file=x", state)
			got := block(t, link)
			assert.Contains(t, got, `whereClause="State='`+state+`'",operation=Replace);`, state)
			assert.True(t, strings.HasSuffix(got, "operation=Replace);"), state)
		}
	})
}

func TestLoadDatasets(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("raw_data.csv", "State,Region,Business Unit,Product Group,2008,2009\n"+
		"Texas,Central,Technology,Phones,\"$1,000\",\"$2,000\"\n"+
		"Texas,Central,Furniture,Chairs,\"$4,000\",-\n")
	write("raw_data_region.csv", "Region,2008,2009\nCentral,100,150\n")
	write("raw_data_business_unit.csv", "Business Unit,2008,2009\nTechnology,100,110\n")
	write("raw_data_product.csv", "Product Group,2008,2009\nPhones,100,300\n")

	ds, err := LoadDatasets(context.Background(), storage.NewDir(dir), DefaultSources(), schema.Superstore())
	require.NoError(t, err)

	require.Len(t, ds.Detail, 2)
	assert.Equal(t, 2000.0, ds.Detail[0].Measures["2009"])
	assert.Equal(t, 0.0, ds.Detail[1].Measures["2009"])
	require.Len(t, ds.Region, 1)
	assert.Equal(t, "Central", ds.Region[0].Dimensions[Region])
	require.Len(t, ds.BusinessUnit, 1)
	require.Len(t, ds.ProductGroup, 1)

	t.Run("missing extract", func(t *testing.T) {
		src := DefaultSources()
		src.Region = "nope.csv"
		_, err := LoadDatasets(context.Background(), storage.NewDir(dir), src, schema.Superstore())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
