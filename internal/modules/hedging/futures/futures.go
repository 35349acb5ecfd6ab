// Package futures sizes whole-contract futures hedges against the equity
// benchmark and commodity buckets of an exposure analysis.
package futures

import (
	"math"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/exposure"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/pkg/formulas"
)

// PriceSource records where a price came from
type PriceSource string

const (
	SourceLive     PriceSource = "live"
	SourceFallback PriceSource = "fallback"
)

// Quote is a resolved instrument price
type Quote struct {
	Symbol string      `json:"symbol"`
	Price  float64     `json:"price"`
	Source PriceSource `json:"source"`
}

// Hedge is the sized position in one futures instrument
type Hedge struct {
	Target        string      `json:"target"` // benchmark index or commodity name
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	ExposureUSD   float64     `json:"exposure_usd"` // beta-adjusted for equity, raw USD for commodities
	Fraction      float64     `json:"fraction"`
	ToHedge       float64     `json:"to_hedge"`
	Price         float64     `json:"price"`
	PriceSource   PriceSource `json:"price_source"`
	Multiplier    float64     `json:"multiplier"`
	ContractValue float64     `json:"contract_value"`
	Contracts     int         `json:"contracts"`
	Margin        float64     `json:"margin"`
}

// HedgedNotional is the exposure the whole contracts actually offset
func (h Hedge) HedgedNotional() float64 {
	return float64(h.Contracts) * h.ContractValue
}

// NonHedgeable is a commodity bucket without a liquid futures contract
type NonHedgeable struct {
	Commodity   string  `json:"commodity"`
	ExposureUSD float64 `json:"exposure_usd"`
}

// Inputs are the user-adjustable hedge ratios. Fractions are on a 0..1
// scale; commodities missing from CommodityFractions hedge fully.
type Inputs struct {
	EquityFraction     float64            `json:"equity_fraction"`
	CommodityFractions map[string]float64 `json:"commodity_fractions,omitempty"`
}

// CommodityFraction returns the clamped fraction for one commodity
func (in Inputs) CommodityFraction(commodity string) float64 {
	f, ok := in.CommodityFractions[commodity]
	if !ok {
		return 1
	}
	return ClampFraction(f)
}

// Recommendation is the complete futures hedge for one set of inputs
type Recommendation struct {
	EquityFraction float64        `json:"equity_fraction"`
	Equity         []Hedge        `json:"equity"`
	Commodities    []Hedge        `json:"commodities"`
	NonHedgeable   []NonHedgeable `json:"non_hedgeable"`
	TotalMargin    float64        `json:"total_margin"`
	PortfolioBeta  float64        `json:"portfolio_beta"`
	HedgedBeta     float64        `json:"hedged_beta"`
	// FullHedgeContracts is the primary-instrument count that would offset the
	// whole NASDAQ and S&P 500 beta-adjusted exposure
	FullHedgeContracts int              `json:"full_hedge_contracts"`
	Prices             map[string]Quote `json:"prices"`
}

// TotalContracts sums absolute contract counts across every hedge
func (r Recommendation) TotalContracts() int {
	total := 0
	for _, h := range r.Equity {
		total += abs(h.Contracts)
	}
	for _, h := range r.Commodities {
		total += abs(h.Contracts)
	}
	return total
}

// Sizer computes hedge recommendations
type Sizer struct {
	tables *reference.Tables
}

// New creates a sizer over the given tables
func New(tables *reference.Tables) *Sizer {
	return &Sizer{tables: tables}
}

// ClampFraction bounds a hedge fraction to [0, 1]. NaN becomes 0.
func ClampFraction(f float64) float64 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 1:
		return 1
	default:
		return f
	}
}

// Quote resolves a live price for symbol, falling back to the contract's
// reference price when the lookup has nothing usable. Prices above
// domain.MaxAmount count as unusable.
func (s *Sizer) Quote(symbol string, prices domain.PriceLookup) Quote {
	if prices != nil {
		if p, ok := prices.Price(symbol); ok && p > 0 && p <= domain.MaxAmount {
			return Quote{Symbol: symbol, Price: p, Source: SourceLive}
		}
	}
	spec, _ := s.tables.Contract(symbol)
	return Quote{Symbol: symbol, Price: spec.FallbackPrice, Source: SourceFallback}
}

// Contracts converts a USD amount into whole contracts, 0 when the contract
// value is not positive.
func Contracts(toHedge, price, multiplier float64) int {
	contractValue := price * multiplier
	if !(contractValue > 0) {
		return 0
	}
	return formulas.RoundContracts(toHedge / contractValue)
}

// Size computes the recommendation for the analysis and inputs
func (s *Sizer) Size(an exposure.Analysis, portfolioBeta float64, in Inputs, prices domain.PriceLookup) Recommendation {
	fraction := ClampFraction(in.EquityFraction)
	rec := Recommendation{
		EquityFraction: fraction,
		Equity:         []Hedge{},
		Commodities:    []Hedge{},
		NonHedgeable:   []NonHedgeable{},
		PortfolioBeta:  portfolioBeta,
		HedgedBeta:     portfolioBeta * (1 - fraction),
		Prices:         make(map[string]Quote),
	}

	futs := s.tables.Futures
	rec.Equity = append(rec.Equity,
		s.hedge(&rec, string(domain.HedgeIndexNasdaq), futs.PrimaryEquity, an.Nasdaq.BetaAdjusted, fraction, prices),
		s.hedge(&rec, string(domain.HedgeIndexSP500), futs.SecondaryEquity, an.SP500.BetaAdjusted, fraction, prices),
	)

	for _, name := range an.CommodityNames() {
		bucket := an.Commodities[name]
		spec, ok := s.tables.CommodityContract(name)
		if !ok {
			rec.NonHedgeable = append(rec.NonHedgeable, NonHedgeable{Commodity: name, ExposureUSD: bucket.ValueUSD})
			continue
		}
		rec.Commodities = append(rec.Commodities,
			s.hedge(&rec, name, spec.Symbol, bucket.ValueUSD, in.CommodityFraction(name), prices))
	}

	for _, h := range rec.Equity {
		rec.TotalMargin += h.Margin
	}
	for _, h := range rec.Commodities {
		rec.TotalMargin += h.Margin
	}

	primary := rec.Prices[futs.PrimaryEquity]
	spec, _ := s.tables.Contract(futs.PrimaryEquity)
	rec.FullHedgeContracts = Contracts(an.EquityBetaAdjusted(), primary.Price, spec.Multiplier)

	return rec
}

func (s *Sizer) hedge(rec *Recommendation, target, symbol string, exposureUSD, fraction float64, prices domain.PriceLookup) Hedge {
	spec, _ := s.tables.Contract(symbol)
	q, seen := rec.Prices[symbol]
	if !seen {
		q = s.Quote(symbol, prices)
		rec.Prices[symbol] = q
	}

	h := Hedge{
		Target:        target,
		Symbol:        symbol,
		Name:          spec.Name,
		ExposureUSD:   exposureUSD,
		Fraction:      fraction,
		ToHedge:       exposureUSD * fraction,
		Price:         q.Price,
		PriceSource:   q.Source,
		Multiplier:    spec.Multiplier,
		ContractValue: q.Price * spec.Multiplier,
	}
	h.Contracts = Contracts(h.ToHedge, h.Price, h.Multiplier)
	h.Margin = float64(abs(h.Contracts)) * spec.MarginPerContract
	return h
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
