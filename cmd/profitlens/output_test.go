package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/profitlens/engine"
)

func rankingTable(t *testing.T) *engine.TableData {
	t.Helper()
	periods := engine.PeriodPair{Prior: "2008", Current: "2009"}
	result, err := engine.RankRecords([]engine.Record{
		{Dimensions: map[string]string{"Region": "East"}, Measures: map[string]float64{"2008": 100, "2009": 150}},
		{Dimensions: map[string]string{"Region": "West"}, Measures: map[string]float64{"2008": 100, "2009": 50}},
	}, "Region", periods)
	require.NoError(t, err)
	return engine.BuildRankingTable(result, "Region", periods)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, rankingTable(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"#", "Region", "2008", "2009", "Change"},
		{"1", "East", "100.00", "150.00", "+50.0%"},
		{"2", "West", "100.00", "50.00", "-50.0%"},
	}, rows)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, rankingTable(t)))

	out := buf.String()
	assert.Contains(t, out, "Profit change by Region")
	assert.Contains(t, out, "East")
	assert.Contains(t, out, "+50.0%")
	assert.Contains(t, out, "Best:  East +50.0%")
	assert.Contains(t, out, "Worst: West -50.0%")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}, "json"))
	assert.Equal(t, "{\"a\":1}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}, "pretty"))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestRunRank_UnknownRounding(t *testing.T) {
	err := runRank(context.Background(), []string{"--by", "Region", "--file", "sales.csv", "--rounding", "bankers"})
	assert.ErrorIs(t, err, engine.ErrUnknownRounding)
	assert.ErrorContains(t, err, "--rounding")
}
