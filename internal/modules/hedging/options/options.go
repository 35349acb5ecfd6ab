// Package options prices protective index-option strategies on the primary
// equity futures contract with Black-Scholes-Merton.
package options

import (
	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/pkg/formulas"
)

const daysPerYear = 365.0

// OptionType is put or call
type OptionType string

const (
	Put  OptionType = "put"
	Call OptionType = "call"
)

// Strategy identifiers
const (
	ProtectivePut5  = "protective_put_5"
	ProtectivePut10 = "protective_put_10"
	Collar          = "collar"
	PutSpread       = "put_spread"
)

// Strikes are the out-of-the-money strikes derived from spot
type Strikes struct {
	Put5   float64 `json:"put_5"`
	Put10  float64 `json:"put_10"`
	Put15  float64 `json:"put_15"`
	Call10 float64 `json:"call_10"`
}

// StrikesFor rounds spot × 0.95, 0.90, 0.85 and 1.10 to whole points
func StrikesFor(spot float64) Strikes {
	return Strikes{
		Put5:   formulas.RoundToPoint(spot * 0.95),
		Put10:  formulas.RoundToPoint(spot * 0.90),
		Put15:  formulas.RoundToPoint(spot * 0.85),
		Call10: formulas.RoundToPoint(spot * 1.10),
	}
}

// Option is one priced contract
type Option struct {
	Type    OptionType `json:"type"`
	Strike  float64    `json:"strike"`
	Premium float64    `json:"premium"` // index points
	Delta   float64    `json:"delta"`
}

// Leg is an option held long (+1) or short (-1)
type Leg struct {
	Option
	Side int `json:"side"`
}

// Strategy is a priced combination of legs
type Strategy struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Legs        []Leg   `json:"legs"`
	NetPremium  float64 `json:"net_premium"` // index points, negative for a net credit
	PerContract float64 `json:"per_contract"`
	Total       float64 `json:"total"`
	CostPct     float64 `json:"cost_pct"` // of portfolio value
	NetDelta    float64 `json:"net_delta"`
}

// Expiry groups the strategies for one time to expiry
type Expiry struct {
	Days       int        `json:"days"`
	Years      float64    `json:"years"`
	Strategies []Strategy `json:"strategies"`
}

// Inputs are the market and sizing parameters of a pricing run
type Inputs struct {
	Spot             float64             `json:"spot"`
	SpotSource       futures.PriceSource `json:"spot_source"`
	Volatility       float64             `json:"volatility"`
	VolatilitySource futures.PriceSource `json:"volatility_source"`
	RiskFreeRate     float64             `json:"risk_free_rate"`
	Multiplier       float64             `json:"multiplier"`
	ContractsNeeded  int                 `json:"contracts_needed"`
	PortfolioValue   float64             `json:"portfolio_value"`
}

// Table is the full option pricing output
type Table struct {
	Inputs
	Symbol   string   `json:"symbol"`
	Strikes  Strikes  `json:"strikes"`
	Expiries []Expiry `json:"expiries"`
}

// Pricer prices the strategy table
type Pricer struct {
	tables *reference.Tables
	sizer  *futures.Sizer
}

// New creates a pricer over the given tables
func New(tables *reference.Tables) *Pricer {
	return &Pricer{tables: tables, sizer: futures.New(tables)}
}

// Inputs resolves spot and volatility from the lookup. Spot is the primary
// equity futures price; volatility is the volatility index quote ÷ 100, or
// the default when the quote is missing or not positive.
func (p *Pricer) Inputs(prices domain.PriceLookup, contractsNeeded int, portfolioValue float64) Inputs {
	futs := p.tables.Futures
	spot := p.sizer.Quote(futs.PrimaryEquity, prices)
	spec, _ := p.tables.Contract(futs.PrimaryEquity)

	in := Inputs{
		Spot:             spot.Price,
		SpotSource:       spot.Source,
		Volatility:       p.tables.Parameters.DefaultVolatility,
		VolatilitySource: futures.SourceFallback,
		RiskFreeRate:     p.tables.Parameters.RiskFreeRate,
		Multiplier:       spec.Multiplier,
		ContractsNeeded:  contractsNeeded,
		PortfolioValue:   formulas.Finite(portfolioValue),
	}
	if prices != nil {
		if vix, ok := prices.Price(futs.VolatilityIndex); ok && vix > 0 && vix <= domain.MaxAmount {
			in.Volatility = vix / 100
			in.VolatilitySource = futures.SourceLive
		}
	}
	return in
}

// Price builds the strategy table for every configured expiry
func (p *Pricer) Price(in Inputs) Table {
	strikes := StrikesFor(in.Spot)
	table := Table{
		Inputs:   in,
		Symbol:   p.tables.Futures.PrimaryEquity,
		Strikes:  strikes,
		Expiries: make([]Expiry, 0, len(p.tables.Parameters.OptionExpiryDays)),
	}

	for _, days := range p.tables.Parameters.OptionExpiryDays {
		years := float64(days) / daysPerYear
		price := func(typ OptionType, strike float64) Option {
			isCall := typ == Call
			return Option{
				Type:    typ,
				Strike:  strike,
				Premium: formulas.BlackScholesPrice(isCall, in.Spot, strike, years, in.RiskFreeRate, in.Volatility),
				Delta:   formulas.BlackScholesDelta(isCall, in.Spot, strike, years, in.RiskFreeRate, in.Volatility),
			}
		}
		put5 := price(Put, strikes.Put5)
		put10 := price(Put, strikes.Put10)
		put15 := price(Put, strikes.Put15)
		call10 := price(Call, strikes.Call10)

		table.Expiries = append(table.Expiries, Expiry{
			Days:  days,
			Years: years,
			Strategies: []Strategy{
				in.strategy(ProtectivePut5, "Protective put (5% OTM)", long(put5)),
				in.strategy(ProtectivePut10, "Protective put (10% OTM)", long(put10)),
				in.strategy(Collar, "Collar (long 5% put, short 10% call)", long(put5), short(call10)),
				in.strategy(PutSpread, "Put spread (5% / 15%)", long(put5), short(put15)),
			},
		})
	}
	return table
}

func long(o Option) Leg  { return Leg{Option: o, Side: 1} }
func short(o Option) Leg { return Leg{Option: o, Side: -1} }

func (in Inputs) strategy(key, name string, legs ...Leg) Strategy {
	s := Strategy{Key: key, Name: name, Legs: legs}
	for _, l := range legs {
		s.NetPremium += float64(l.Side) * l.Premium
		s.NetDelta += float64(l.Side) * l.Delta
	}
	s.PerContract = s.NetPremium * in.Multiplier
	s.Total = s.PerContract * float64(in.ContractsNeeded)
	if in.PortfolioValue > 0 {
		s.CostPct = s.Total / in.PortfolioValue * 100
	}
	return s
}

// Find returns the strategy with key at the given expiry
func (t Table) Find(days int, key string) (Strategy, bool) {
	for _, e := range t.Expiries {
		if e.Days != days {
			continue
		}
		for _, s := range e.Strategies {
			if s.Key == key {
				return s, true
			}
		}
	}
	return Strategy{}, false
}
