package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceView(t *testing.T) {
	view := NewSliceView([]Record{
		rec(map[string]string{"Region": "East"}, 1, 2),
	})

	require.Equal(t, 1, view.Len())

	label, ok := view.Dimension(0, "Region")
	assert.True(t, ok)
	assert.Equal(t, "East", label)

	_, ok = view.Dimension(0, "State")
	assert.False(t, ok)

	_, ok = view.Dimension(5, "Region")
	assert.False(t, ok)

	v, ok := view.Measure(0, "2009")
	assert.True(t, ok)
	assert.Equal(t, float64(2), v)

	_, ok = view.Measure(-1, "2009")
	assert.False(t, ok)
}

func TestSubView(t *testing.T) {
	parent := NewSliceView([]Record{
		rec(map[string]string{"State": "Texas", "Region": "Central"}, 100, 150),
		rec(map[string]string{"State": "Ohio", "Region": "East"}, 200, 100),
		rec(map[string]string{"State": "Iowa", "Region": "Central"}, 50, 75),
	})
	sub := ApplyFilters(parent, Filters{Dimensions: map[string][]string{"Region": {"Central"}}})

	require.Equal(t, 2, sub.Len())
	state, ok := sub.Dimension(1, "State")
	assert.True(t, ok)
	assert.Equal(t, "Iowa", state)

	_, ok = sub.Dimension(2, "State")
	assert.False(t, ok, "index past the subset")
	_, ok = sub.Measure(0, "2010")
	assert.False(t, ok, "unknown measure")

	result, err := Rank(sub, "State", fiscal)
	require.NoError(t, err)
	assert.Equal(t, "Texas", result.Category)
	assert.Equal(t, 0.5, result.ProfitChange)

	_, err = Rank(sub, "Segment", fiscal)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestApplyFilters(t *testing.T) {
	records := []Record{
		rec(map[string]string{"State": "Texas", "Region": "Central"}, 1, 2),
		rec(map[string]string{"State": "Ohio", "Region": "East"}, 3, 4),
		rec(map[string]string{"State": "texas", "Region": "Central"}, 5, 6),
		rec(map[string]string{"Region": "West"}, 7, 8),
	}
	view := NewSliceView(records)

	t.Run("empty filter returns the view", func(t *testing.T) {
		assert.Same(t, view, ApplyFilters(view, Filters{}))
	})

	t.Run("case insensitive match", func(t *testing.T) {
		sub := ApplyFilters(view, Filters{Dimensions: map[string][]string{"State": {"TEXAS"}}})
		require.Equal(t, 2, sub.Len())

		v, _ := sub.Measure(1, "2009")
		assert.Equal(t, float64(6), v)
	})

	t.Run("or within a dimension", func(t *testing.T) {
		sub := ApplyFilters(view, Filters{Dimensions: map[string][]string{"State": {"Texas", "Ohio"}}})
		assert.Equal(t, 3, sub.Len())
	})

	t.Run("and across dimensions", func(t *testing.T) {
		sub := ApplyFilters(view, Filters{Dimensions: map[string][]string{
			"State":  {"Texas", "Ohio"},
			"Region": {"East"},
		}})
		require.Equal(t, 1, sub.Len())
		state, _ := sub.Dimension(0, "State")
		assert.Equal(t, "Ohio", state)
	})

	t.Run("record without the dimension never matches", func(t *testing.T) {
		sub := ApplyFilters(view, Filters{Dimensions: map[string][]string{"State": {""}}})
		assert.Equal(t, 0, sub.Len())
	})

	t.Run("no match ranks as empty input", func(t *testing.T) {
		sub := ApplyFilters(view, Filters{Dimensions: map[string][]string{"State": {"Maine"}}})
		_, err := Rank(sub, "Region", fiscal)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestFilters(t *testing.T) {
	f := Filters{Dimensions: map[string][]string{"State": {"Texas"}, "Region": {}}}

	assert.False(t, f.IsEmpty())
	assert.True(t, Filters{}.IsEmpty())
	assert.True(t, Filters{Dimensions: map[string][]string{"Region": nil}}.IsEmpty())
}

func TestUniqueValues(t *testing.T) {
	view := NewSliceView([]Record{
		rec(map[string]string{"State": "Texas"}, 0, 0),
		rec(map[string]string{"State": ""}, 0, 0),
		rec(map[string]string{"State": "Ohio"}, 0, 0),
		rec(map[string]string{"Region": "West"}, 0, 0),
		rec(map[string]string{"State": "Texas"}, 0, 0),
	})

	assert.Equal(t, []string{"Texas", "Ohio"}, UniqueValues(view, "State"))
	assert.Empty(t, UniqueValues(view, "Segment"))
}
