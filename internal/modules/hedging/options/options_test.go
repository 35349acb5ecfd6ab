package options

import (
	"testing"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/pkg/formulas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrikesFor(t *testing.T) {
	assert.Equal(t, Strikes{Put5: 20425, Put10: 19350, Put15: 18275, Call10: 23650}, StrikesFor(21500))
	assert.Equal(t, Strikes{Put5: 20456, Put10: 19380, Put15: 18303, Call10: 23686}, StrikesFor(21533))
	assert.Equal(t, Strikes{}, StrikesFor(0))
}

func TestPricer_Inputs(t *testing.T) {
	p := New(reference.MustDefault())

	tests := []struct {
		name       string
		prices     domain.PriceLookup
		spot       float64
		spotSource futures.PriceSource
		vol        float64
		volSource  futures.PriceSource
	}{
		{"live quotes", domain.StaticPrices{"NQ": 20000, "VIX": 25}, 20000, futures.SourceLive, 0.25, futures.SourceLive},
		{"no lookup", nil, 21500, futures.SourceFallback, 0.20, futures.SourceFallback},
		{"zero vix", domain.StaticPrices{"NQ": 20000, "VIX": 0}, 20000, futures.SourceLive, 0.20, futures.SourceFallback},
		{"negative vix", domain.PriceLookupFunc(func(sym string) (float64, bool) {
			return -5, true
		}), 21500, futures.SourceFallback, 0.20, futures.SourceFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := p.Inputs(tt.prices, 3, 1_000_000)
			assert.Equal(t, tt.spot, in.Spot)
			assert.Equal(t, tt.spotSource, in.SpotSource)
			assert.InDelta(t, tt.vol, in.Volatility, 1e-12)
			assert.Equal(t, tt.volSource, in.VolatilitySource)
			assert.Equal(t, 0.045, in.RiskFreeRate)
			assert.Equal(t, 20.0, in.Multiplier)
			assert.Equal(t, 3, in.ContractsNeeded)
		})
	}
}

func TestPricer_Price(t *testing.T) {
	p := New(reference.MustDefault())
	in := p.Inputs(domain.StaticPrices{"NQ": 21500, "VIX": 20}, 4, 1_000_000)

	table := p.Price(in)

	assert.Equal(t, "NQ", table.Symbol)
	require.Len(t, table.Expiries, 2)
	assert.Equal(t, 30, table.Expiries[0].Days)
	assert.Equal(t, 90, table.Expiries[1].Days)
	assert.InDelta(t, 30.0/365, table.Expiries[0].Years, 1e-15)

	for _, e := range table.Expiries {
		require.Len(t, e.Strategies, 4)

		put5, _ := table.Find(e.Days, ProtectivePut5)
		put10, _ := table.Find(e.Days, ProtectivePut10)
		collar, _ := table.Find(e.Days, Collar)
		spread, _ := table.Find(e.Days, PutSpread)

		wantPut5 := formulas.BlackScholesPut(21500, 20425, e.Years, 0.045, 0.20)
		wantCall10 := formulas.BlackScholesCall(21500, 23650, e.Years, 0.045, 0.20)
		wantPut15 := formulas.BlackScholesPut(21500, 18275, e.Years, 0.045, 0.20)

		assert.InDelta(t, wantPut5, put5.NetPremium, 1e-9)
		assert.InDelta(t, wantPut5*20, put5.PerContract, 1e-9)
		assert.InDelta(t, wantPut5*20*4, put5.Total, 1e-9)
		assert.InDelta(t, put5.Total/1_000_000*100, put5.CostPct, 1e-12)
		assert.Less(t, put10.NetPremium, put5.NetPremium)

		assert.InDelta(t, wantPut5-wantCall10, collar.NetPremium, 1e-9)
		assert.InDelta(t, wantPut5-wantPut15, spread.NetPremium, 1e-9)
		assert.Greater(t, spread.NetPremium, 0.0)
		assert.Less(t, spread.NetPremium, put5.NetPremium)

		require.Len(t, collar.Legs, 2)
		assert.Equal(t, 1, collar.Legs[0].Side)
		assert.Equal(t, Put, collar.Legs[0].Type)
		assert.Equal(t, -1, collar.Legs[1].Side)
		assert.Equal(t, Call, collar.Legs[1].Type)

		assert.Less(t, put5.NetDelta, 0.0)
		assert.Greater(t, put5.NetDelta, -0.5)
	}

	short, _ := table.Find(30, ProtectivePut5)
	long, _ := table.Find(90, ProtectivePut5)
	assert.Greater(t, long.NetPremium, short.NetPremium)
}

func TestPricer_PriceDegenerate(t *testing.T) {
	p := New(reference.MustDefault())

	tests := []struct {
		name string
		in   Inputs
	}{
		{"zero spot", Inputs{Spot: 0, Volatility: 0.2, Multiplier: 20, ContractsNeeded: 2}},
		{"zero volatility", Inputs{Spot: 21500, Volatility: 0, Multiplier: 20, ContractsNeeded: 2}},
		{"negative volatility", Inputs{Spot: 21500, Volatility: -0.3, Multiplier: 20, ContractsNeeded: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := p.Price(tt.in)
			for _, e := range table.Expiries {
				for _, s := range e.Strategies {
					assert.Equal(t, 0.0, s.NetPremium, s.Key)
					assert.Equal(t, 0.0, s.Total, s.Key)
					assert.Equal(t, 0.0, s.CostPct, s.Key)
				}
			}
		})
	}
}

func TestPricer_ZeroContractsAndValue(t *testing.T) {
	p := New(reference.MustDefault())
	in := p.Inputs(nil, 0, 0)

	table := p.Price(in)

	s, ok := table.Find(90, Collar)
	require.True(t, ok)
	assert.NotZero(t, s.PerContract)
	assert.Equal(t, 0.0, s.Total)
	assert.Equal(t, 0.0, s.CostPct)

	_, ok = table.Find(45, Collar)
	assert.False(t, ok)
}
