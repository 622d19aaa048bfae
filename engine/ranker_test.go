package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fiscal = PeriodPair{Prior: "2008", Current: "2009"}

func rec(dims map[string]string, prior, current float64) Record {
	return Record{
		Dimensions: dims,
		Measures:   map[string]float64{"2008": prior, "2009": current},
	}
}

func region(name string, prior, current float64) Record {
	return rec(map[string]string{"Region": name}, prior, current)
}

func TestRank_EastWest(t *testing.T) {
	records := []Record{
		region("East", 100, 150),
		region("West", 200, 100),
	}

	result, err := RankRecords(records, "Region", fiscal)
	require.NoError(t, err)

	assert.Equal(t, "East", result.Category)
	assert.Equal(t, 0.5, result.ProfitChange)
	assert.Equal(t, float64(0), result.CurrentProfit)
	assert.Equal(t, float64(0), result.PrevProfit)
	assert.Equal(t, "West", result.WorstCategory)
	assert.Equal(t, -0.5, result.WorstProfitChange)
	assert.Equal(t, []RankingEntry{
		{Category: "East", Delta: 0.5},
		{Category: "West", Delta: -0.5},
	}, result.Ranking)
}

func TestRank_ZeroBaseline(t *testing.T) {
	records := []Record{
		region("North", 0, 500),
		region("South", 0, 0),
	}

	result, err := RankRecords(records, "Region", fiscal)
	require.NoError(t, err)

	assert.Equal(t, []RankingEntry{
		{Category: "North", Delta: 1},
		{Category: "South", Delta: 0},
	}, result.Ranking)
	assert.Equal(t, "North", result.Category)
	assert.Equal(t, "South", result.WorstCategory)
}

func TestRank_SumsAcrossRecords(t *testing.T) {
	records := []Record{
		region("East", 60000, 90000),
		region("West", 300000, 310000),
		region("East", 40000, 60500),
		region("West", 0, 0),
	}

	result, err := RankRecords(records, "Region", fiscal)
	require.NoError(t, err)

	assert.Equal(t, []CategoryAggregate{
		{Category: "East", Prior: 100000, Current: 150500},
		{Category: "West", Prior: 300000, Current: 310000},
	}, result.Aggregates)
	assert.Equal(t, "East", result.Category)
	assert.InDelta(t, 0.505, result.ProfitChange, 1e-12)
	assert.Equal(t, float64(100000), result.PrevProfit)
	assert.Equal(t, float64(150000), result.CurrentProfit)
}

func TestRank_SingleCategoryIsBestAndWorst(t *testing.T) {
	result, err := RankRecords([]Record{region("Only", 10, 5)}, "Region", fiscal)
	require.NoError(t, err)

	assert.Equal(t, "Only", result.Category)
	assert.Equal(t, "Only", result.WorstCategory)
	assert.Equal(t, result.ProfitChange, result.WorstProfitChange)
	assert.Len(t, result.Ranking, 1)
}

func TestRank_StableTies(t *testing.T) {
	t.Run("ties keep first occurrence order", func(t *testing.T) {
		records := []Record{
			region("Alpha", 100, 150), // 0.5
			region("Zulu", 200, 100),  // -0.5
			region("Mike", 10, 15),    // 0.5
			region("Alpha", 0, 0),
		}

		result, err := RankRecords(records, "Region", fiscal)
		require.NoError(t, err)

		got := make([]string, len(result.Ranking))
		for i, e := range result.Ranking {
			got[i] = e.Category
		}
		assert.Equal(t, []string{"Alpha", "Mike", "Zulu"}, got)
	})

	t.Run("label is not a secondary key", func(t *testing.T) {
		records := []Record{
			region("Mike", 10, 15),
			region("Alpha", 100, 150),
		}

		result, err := RankRecords(records, "Region", fiscal)
		require.NoError(t, err)

		assert.Equal(t, "Mike", result.Ranking[0].Category)
		assert.Equal(t, "Alpha", result.Ranking[1].Category)
		assert.Equal(t, "Mike", result.Category)
		assert.Equal(t, "Alpha", result.WorstCategory)
	})

	t.Run("all zero categories keep input order", func(t *testing.T) {
		records := []Record{
			region("C", 0, 0),
			region("A", 0, 0),
			region("B", 0, 0),
		}

		result, err := RankRecords(records, "Region", fiscal)
		require.NoError(t, err)

		assert.Equal(t, "C", result.Category)
		assert.Equal(t, "B", result.WorstCategory)
	})
}

func TestRank_RankingIsOrderedByDelta(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	records := make([]Record, 0, 500)
	for i := 0; i < 500; i++ {
		name := fmt.Sprintf("cat-%02d", rng.Intn(40))
		prior := float64(rng.Intn(2000) - 500)
		if rng.Intn(5) == 0 {
			prior = 0
		}
		records = append(records, region(name, prior, float64(rng.Intn(2000)-500)))
	}

	result, err := RankRecords(records, "Region", fiscal)
	require.NoError(t, err)

	for i := 1; i < len(result.Ranking); i++ {
		assert.GreaterOrEqual(t, result.Ranking[i-1].Delta, result.Ranking[i].Delta)
	}
	assert.Len(t, result.Ranking, len(result.Aggregates))
	assert.Equal(t, result.Ranking[0], result.Best())
	assert.Equal(t, result.Ranking[len(result.Ranking)-1], result.Worst())
}

func TestRank_Idempotent(t *testing.T) {
	records := []Record{
		region("East", 1234, 5678),
		region("West", 5678, 1234),
		region("East", -10, 0),
	}
	snapshot := make([]Record, len(records))
	for i, r := range records {
		snapshot[i] = Record{
			Dimensions: map[string]string{"Region": r.Dimensions["Region"]},
			Measures:   map[string]float64{"2008": r.Measures["2008"], "2009": r.Measures["2009"]},
		}
	}

	first, err := RankRecords(records, "Region", fiscal)
	require.NoError(t, err)
	second, err := RankRecords(records, "Region", fiscal)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, records)
}

func TestRank_Rounding(t *testing.T) {
	testCases := []struct {
		name    string
		current float64
		mode    Rounding
		want    float64
	}{
		{name: "rounds down", current: 123456, mode: RoundHalfEven, want: 123000},
		{name: "rounds up", current: 123789, mode: RoundHalfEven, want: 124000},
		{name: "half even down", current: 2500, mode: RoundHalfEven, want: 2000},
		{name: "half even up", current: 3500, mode: RoundHalfEven, want: 4000},
		{name: "half away", current: 2500, mode: RoundHalfAwayFromZero, want: 3000},
		{name: "negative half away", current: -2500, mode: RoundHalfAwayFromZero, want: -3000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := []Record{region("Only", 1, tc.current)}

			result, err := RankRecords(records, "Region", fiscal, WithRounding(tc.mode))
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.CurrentProfit)
		})
	}
}

func TestRank_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := RankRecords(nil, "Region", fiscal)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("missing category field", func(t *testing.T) {
		records := []Record{
			region("East", 1, 2),
			rec(map[string]string{"State": "Texas"}, 1, 2),
		}

		result, err := RankRecords(records, "Region", fiscal)
		assert.Nil(t, result)
		require.ErrorIs(t, err, ErrMissingField)

		var mfe *MissingFieldError
		require.True(t, errors.As(err, &mfe))
		assert.Equal(t, 1, mfe.Index)
		assert.Equal(t, "Region", mfe.Field)
	})

	t.Run("missing period field", func(t *testing.T) {
		records := []Record{{
			Dimensions: map[string]string{"Region": "East"},
			Measures:   map[string]float64{"2008": 10},
		}}

		_, err := RankRecords(records, "Region", fiscal)
		var mfe *MissingFieldError
		require.True(t, errors.As(err, &mfe))
		assert.Equal(t, "2009", mfe.Field)
		assert.Equal(t, 0, mfe.Index)
	})

	t.Run("invalid periods", func(t *testing.T) {
		records := []Record{region("East", 1, 2)}

		_, err := RankRecords(records, "Region", PeriodPair{Prior: "2009", Current: "2009"})
		assert.ErrorIs(t, err, ErrInvalidPeriods)

		_, err = RankRecords(records, "Region", PeriodPair{Current: "2009"})
		assert.ErrorIs(t, err, ErrInvalidPeriods)
	})

	t.Run("empty category field", func(t *testing.T) {
		_, err := RankRecords([]Record{region("East", 1, 2)}, "", fiscal)
		assert.ErrorIs(t, err, ErrMissingField)
	})
}

func TestRank_PeriodOrderMatters(t *testing.T) {
	records := []Record{
		region("East", 100, 150),
		region("West", 200, 100),
	}

	result, err := RankRecords(records, "Region", PeriodPair{Prior: "2009", Current: "2008"})
	require.NoError(t, err)

	assert.Equal(t, "West", result.Category)
	assert.Equal(t, float64(1), result.ProfitChange)
}
