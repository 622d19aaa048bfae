package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/helpers"
	"github.com/spektr-org/profitlens/schema"
	"github.com/spektr-org/profitlens/storage"
)

// Category fields of the sales extracts.
const (
	State        = "State"
	Region       = "Region"
	BusinessUnit = "Business Unit"
	ProductGroup = "Product Group"
)

// Datasets are the four extracts a report draws from. Read only once loaded.
type Datasets struct {
	Detail       []engine.Record // one row per state/business unit/product group
	Region       []engine.Record // national, by region
	BusinessUnit []engine.Record // national, by business unit
	ProductGroup []engine.Record // national, by product group
}

// Sources names the object holding each extract.
type Sources struct {
	Detail       string `yaml:"detail"`
	Region       string `yaml:"region"`
	BusinessUnit string `yaml:"business_unit"`
	ProductGroup string `yaml:"product_group"`
}

// DefaultSources returns the extract names the dashboard exports.
func DefaultSources() Sources {
	return Sources{
		Detail:       "raw_data.csv",
		Region:       "raw_data_region.csv",
		BusinessUnit: "raw_data_business_unit.csv",
		ProductGroup: "raw_data_product.csv",
	}
}

// LoadDatasets reads all four extracts concurrently.
// The detail extract needs State and Region plus the category it is ranked by;
// each national extract needs only its own category.
func LoadDatasets(ctx context.Context, store storage.Storage, src Sources, sch schema.Config) (*Datasets, error) {
	var ds Datasets

	loads := []struct {
		name string
		sch  schema.Config
		dst  *[]engine.Record
	}{
		{name: src.Detail, sch: sch.WithCategories(State, Region, BusinessUnit, ProductGroup), dst: &ds.Detail},
		{name: src.Region, sch: sch.WithCategories(Region), dst: &ds.Region},
		{name: src.BusinessUnit, sch: sch.WithCategories(BusinessUnit), dst: &ds.BusinessUnit},
		{name: src.ProductGroup, sch: sch.WithCategories(ProductGroup), dst: &ds.ProductGroup},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range loads {
		g.Go(func() error {
			records, err := helpers.ParseFile(gctx, store, l.name, l.sch)
			if err != nil {
				return err
			}
			*l.dst = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// States returns the distinct states of the detail extract in first-seen order.
func (ds *Datasets) States() []string {
	return engine.UniqueValues(engine.NewSliceView(ds.Detail), State)
}

// ValidState reports whether the detail extract has rows for state (case-insensitive).
func (ds *Datasets) ValidState(state string) bool {
	return ds.stateView(state).Len() > 0
}

func (ds *Datasets) stateView(state string) engine.RecordView {
	if state == "" {
		return engine.NewSliceView(nil)
	}
	return engine.ApplyFilters(engine.NewSliceView(ds.Detail), engine.Filters{
		Dimensions: map[string][]string{State: {state}},
	})
}
