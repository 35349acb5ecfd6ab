package domain

import (
	"math"
	"strings"
)

// AssetClass is the risk bucket a position is classified into
type AssetClass string

const (
	AssetClassCash      AssetClass = "cash"
	AssetClassCommodity AssetClass = "commodity"
	AssetClassEquity    AssetClass = "equity"
)

// HedgeIndex is the benchmark a position is deemed to track
type HedgeIndex string

const (
	HedgeIndexNasdaq HedgeIndex = "NASDAQ"
	HedgeIndexSP500  HedgeIndex = "SP500"
	HedgeIndexASX    HedgeIndex = "ASX"
	HedgeIndexOther  HedgeIndex = "OTHER"
)

// HoldingPosition is one line of a holdings snapshot as supplied by the caller.
// Value is in the position's home currency.
type HoldingPosition struct {
	Ticker    string   `json:"ticker" yaml:"ticker"`
	Name      string   `json:"name" yaml:"name"`
	Currency  Currency `json:"currency,omitempty" yaml:"currency,omitempty"`
	Value     float64  `json:"value" yaml:"value"`
	Price     float64  `json:"price" yaml:"price"`
	CostBasis float64  `json:"cost_basis" yaml:"cost_basis"`
	Quantity  float64  `json:"quantity" yaml:"quantity"`
	Weight    float64  `json:"weight" yaml:"weight"` // percent of total portfolio value
	IsFuture  bool     `json:"is_future" yaml:"is_future"`
}

// MaxAmount bounds the magnitude of any monetary amount or price the engine
// accepts. Larger finite inputs are clamped so that sums and products over a
// snapshot stay finite.
const MaxAmount = 1e15

// ClampAmount replaces NaN and ±Inf with 0 and limits |x| to MaxAmount.
func ClampAmount(x float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsInf(x, 0):
		return 0
	case x > MaxAmount:
		return MaxAmount
	case x < -MaxAmount:
		return -MaxAmount
	}
	return x
}

// Sanitized returns a copy with every non-finite number replaced by 0, every
// amount clamped to ±MaxAmount and surrounding whitespace trimmed from text
// fields.
func (p HoldingPosition) Sanitized() HoldingPosition {
	p.Ticker = strings.TrimSpace(p.Ticker)
	p.Name = strings.TrimSpace(p.Name)
	p.Currency = Currency(strings.ToUpper(strings.TrimSpace(string(p.Currency))))
	p.Value = ClampAmount(p.Value)
	p.Price = ClampAmount(p.Price)
	p.CostBasis = ClampAmount(p.CostBasis)
	p.Quantity = ClampAmount(p.Quantity)
	p.Weight = ClampAmount(p.Weight)
	return p
}

// UnrealizedPL is value minus cost basis, in home currency.
func (p HoldingPosition) UnrealizedPL() float64 {
	if p.CostBasis == 0 {
		return 0
	}
	return p.Value - p.CostBasis
}
