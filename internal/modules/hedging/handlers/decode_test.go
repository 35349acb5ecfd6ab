package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`-3`, -3},
		{`"42"`, 42},
		{`" 1,250.75 "`, 1250.75},
		{`"$99"`, 99},
		{`"abc"`, 0},
		{`""`, 0},
		{`null`, 0},
		{`true`, 1},
		{`false`, 0},
		{`[1]`, 0},
		{`{"a":1}`, 0},
		{`"NaN"`, 0},
		{`"Inf"`, 0},
	}
	for _, tt := range tests {
		var f flexFloat
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, float64(f), tt.in)
	}
}

func TestFlexStringAndBool(t *testing.T) {
	var s flexString
	require.NoError(t, json.Unmarshal([]byte(`123.5`), &s))
	assert.Equal(t, flexString("123.5"), s)
	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.Equal(t, flexString(""), s)
	require.NoError(t, json.Unmarshal([]byte(`["x"]`), &s))
	assert.Equal(t, flexString(""), s)

	for in, want := range map[string]bool{
		`true`: true, `"true"`: true, `"1"`: true, `1`: true,
		`false`: false, `"no"`: false, `0`: false, `null`: false,
	} {
		var b flexBool
		require.NoError(t, json.Unmarshal([]byte(in), &b), in)
		assert.Equal(t, want, bool(b), in)
	}
}

func TestHedgeParams(t *testing.T) {
	var req AnalyzeRequest
	body := `{
		"hedge_pct": 150,
		"commodity_hedge_pct": {" Gold ": 80, "oil": "-10", "silver": null},
		"prices": {"nq": 21000, "vix": "18.5", "es": "n/a"}
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in := req.inputs()
	assert.Equal(t, 1.0, in.EquityFraction)
	assert.Equal(t, 0.8, in.CommodityFractions["gold"])
	assert.Equal(t, 0.0, in.CommodityFractions["oil"])
	assert.Equal(t, 0.0, in.CommodityFractions["silver"])

	prices := req.prices()
	p, ok := prices.Price("NQ")
	assert.True(t, ok)
	assert.Equal(t, 21000.0, p)
	p, ok = prices.Price("VIX")
	assert.True(t, ok)
	assert.Equal(t, 18.5, p)
	_, ok = prices.Price("ES")
	assert.False(t, ok, "unusable prices fall through to the next source")
}

func TestHedgeParams_MissingHedgePct(t *testing.T) {
	var req AnalyzeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"positions": [{"ticker": "NVDA"}]}`), &req))

	in := req.inputs()
	assert.Equal(t, 0.0, in.EquityFraction)
	assert.Nil(t, in.CommodityFractions)
	assert.Nil(t, req.prices())
	assert.Len(t, req.Positions, 1)
}
