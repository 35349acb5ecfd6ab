package futures

import (
	"math"
	"testing"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/classifier"
	"github.com/aristath/hedger/internal/modules/hedging/exposure"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyse(positions ...domain.HoldingPosition) exposure.Analysis {
	tables := reference.MustDefault()
	classified := classifier.New(tables).ClassifyAll(positions)
	return exposure.New(tables).Aggregate(classified)
}

func TestClampFraction(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
		{-0.2, 0},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampFraction(tt.in), "ClampFraction(%v)", tt.in)
	}
}

func TestContracts(t *testing.T) {
	tests := []struct {
		name       string
		toHedge    float64
		price      float64
		multiplier float64
		want       int
	}{
		{"exact", 860_000, 21500, 20, 2},
		{"rounds down", 850_000, 21500, 20, 2},
		{"half rounds away from zero", 1_075_000, 21500, 20, 3},
		{"negative half rounds away from zero", -1_075_000, 21500, 20, -3},
		{"below half", 200_000, 21500, 20, 0},
		{"zero price", 850_000, 0, 20, 0},
		{"negative price", 850_000, -1, 20, 0},
		{"zero multiplier", 850_000, 21500, 0, 0},
		{"nan price", 850_000, math.NaN(), 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contracts(tt.toHedge, tt.price, tt.multiplier))
		})
	}
}

func TestQuote_FallsBack(t *testing.T) {
	s := New(reference.MustDefault())

	live := s.Quote("NQ", domain.StaticPrices{"NQ": 20000})
	assert.Equal(t, Quote{Symbol: "NQ", Price: 20000, Source: SourceLive}, live)

	for name, lookup := range map[string]domain.PriceLookup{
		"nil lookup": nil,
		"missing":    domain.StaticPrices{},
		"zero":       domain.StaticPrices{"NQ": 0},
		"infinite": domain.PriceLookupFunc(func(string) (float64, bool) {
			return math.Inf(1), true
		}),
		"absurd": domain.StaticPrices{"NQ": 1e300},
	} {
		q := s.Quote("NQ", lookup)
		assert.Equal(t, SourceFallback, q.Source, name)
		assert.Equal(t, 21500.0, q.Price, name)
	}
}

func TestSize_EndToEndNasdaq(t *testing.T) {
	s := New(reference.MustDefault())
	an := analyse(domain.HoldingPosition{Ticker: "NVDA", Value: 1_000_000})

	rec := s.Size(an, 1.7, Inputs{EquityFraction: 0.5}, domain.StaticPrices{"NQ": 21500})

	require.Len(t, rec.Equity, 2)
	nq := rec.Equity[0]
	assert.Equal(t, "NQ", nq.Symbol)
	assert.Equal(t, "NASDAQ", nq.Target)
	assert.InDelta(t, 1_700_000, nq.ExposureUSD, 1e-6)
	assert.InDelta(t, 850_000, nq.ToHedge, 1e-6)
	assert.Equal(t, 430_000.0, nq.ContractValue)
	assert.Equal(t, SourceLive, nq.PriceSource)
	assert.Equal(t, 2, nq.Contracts)
	assert.Equal(t, 48_000.0, nq.Margin)
	assert.InDelta(t, 860_000, nq.HedgedNotional(), 1e-6)

	es := rec.Equity[1]
	assert.Equal(t, "ES", es.Symbol)
	assert.Equal(t, 0, es.Contracts)
	assert.Equal(t, SourceFallback, es.PriceSource)

	assert.Equal(t, 48_000.0, rec.TotalMargin)
	assert.InDelta(t, 0.85, rec.HedgedBeta, 1e-12)
	assert.Equal(t, 4, rec.FullHedgeContracts)
	assert.Equal(t, 2, rec.TotalContracts())
}

func TestSize_FractionBoundaries(t *testing.T) {
	s := New(reference.MustDefault())
	an := analyse(
		domain.HoldingPosition{Ticker: "NVDA", Value: 700_000},
		domain.HoldingPosition{Ticker: "JPM", Value: 900_000},
		domain.HoldingPosition{Ticker: "GLD", Value: 500_000},
		domain.HoldingPosition{Ticker: "WDS.AX", Value: 300_000},
	)

	t.Run("zero hedges nothing", func(t *testing.T) {
		zeros := map[string]float64{"gold": 0, "oil": 0}
		rec := s.Size(an, 1.2, Inputs{EquityFraction: 0, CommodityFractions: zeros}, nil)
		for _, h := range append(rec.Equity, rec.Commodities...) {
			assert.Equal(t, 0, h.Contracts, h.Symbol)
			assert.Equal(t, 0.0, h.Margin, h.Symbol)
		}
		assert.Equal(t, 0.0, rec.TotalMargin)
		assert.Equal(t, 1.2, rec.HedgedBeta)
	})

	t.Run("full hedges whole exposure", func(t *testing.T) {
		rec := s.Size(an, 1.2, Inputs{EquityFraction: 1}, nil)
		assert.Equal(t, an.Nasdaq.BetaAdjusted, rec.Equity[0].ToHedge)
		assert.Equal(t, an.SP500.BetaAdjusted, rec.Equity[1].ToHedge)
		for _, h := range rec.Commodities {
			assert.Equal(t, h.ExposureUSD, h.ToHedge, h.Target)
		}
		assert.Equal(t, 0.0, rec.HedgedBeta)
	})
}

func TestSize_Commodities(t *testing.T) {
	s := New(reference.MustDefault())
	an := analyse(
		domain.HoldingPosition{Ticker: "GLD", Value: 500_000},
		domain.HoldingPosition{Ticker: "PLS.AX", Value: 100_000},
		domain.HoldingPosition{Ticker: "PDN.AX", Value: 40_000},
	)

	rec := s.Size(an, 0, Inputs{CommodityFractions: map[string]float64{"gold": 0.5}}, nil)

	require.Len(t, rec.Commodities, 1)
	gold := rec.Commodities[0]
	assert.Equal(t, "gold", gold.Target)
	assert.Equal(t, "GC", gold.Symbol)
	assert.Equal(t, 0.5, gold.Fraction)
	assert.Equal(t, 265_000.0, gold.ContractValue)
	assert.Equal(t, 1, gold.Contracts)
	assert.Equal(t, 11_000.0, gold.Margin)

	require.Len(t, rec.NonHedgeable, 2)
	assert.Equal(t, "lithium", rec.NonHedgeable[0].Commodity)
	assert.InDelta(t, 65_000, rec.NonHedgeable[0].ExposureUSD, 1e-6)
	assert.Equal(t, "uranium", rec.NonHedgeable[1].Commodity)
	assert.InDelta(t, 26_000, rec.NonHedgeable[1].ExposureUSD, 1e-6)

	assert.Equal(t, 11_000.0, rec.TotalMargin)
}

func TestSize_CommodityFractionDefaultsToFull(t *testing.T) {
	s := New(reference.MustDefault())
	an := analyse(domain.HoldingPosition{Ticker: "GLD", Value: 530_000})

	rec := s.Size(an, 0, Inputs{}, nil)

	require.Len(t, rec.Commodities, 1)
	assert.Equal(t, 1.0, rec.Commodities[0].Fraction)
	assert.Equal(t, 2, rec.Commodities[0].Contracts)
}

func TestSize_ShortExposureMargin(t *testing.T) {
	s := New(reference.MustDefault())
	an := analyse(domain.HoldingPosition{Ticker: "NVDA", Value: -1_000_000})

	rec := s.Size(an, -1.7, Inputs{EquityFraction: 0.5}, nil)

	assert.Equal(t, -2, rec.Equity[0].Contracts)
	assert.Equal(t, 48_000.0, rec.TotalMargin)
	assert.Equal(t, 2, rec.TotalContracts())
}

func TestSize_EmptyAnalysis(t *testing.T) {
	s := New(reference.MustDefault())

	rec := s.Size(analyse(), 0, Inputs{EquityFraction: 1}, nil)

	for _, h := range rec.Equity {
		assert.Equal(t, 0, h.Contracts)
	}
	assert.Empty(t, rec.Commodities)
	assert.Empty(t, rec.NonHedgeable)
	assert.Equal(t, 0.0, rec.TotalMargin)
	assert.Equal(t, 0, rec.FullHedgeContracts)
}
