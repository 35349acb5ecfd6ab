// Package classifier tags holdings with an asset class and the benchmark
// index they are hedged against.
package classifier

import (
	"strings"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
)

// Classification is the derived risk tagging of one position
type Classification struct {
	Class      domain.AssetClass `json:"class"`
	Commodity  string            `json:"commodity,omitempty"`
	HedgeIndex domain.HedgeIndex `json:"hedge_index"`
}

// ClassifiedPosition pairs a position with its classification
type ClassifiedPosition struct {
	domain.HoldingPosition
	NormalizedTicker string         `json:"normalized_ticker"`
	Classification   Classification `json:"classification"`
}

// Classifier applies the reference tables to positions. It holds no mutable
// state and may be shared.
type Classifier struct {
	tables *reference.Tables
}

// New creates a classifier over the given tables
func New(tables *reference.Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify returns the classification of a single position. Rules apply in
// priority order: cash and futures, commodity ticker table, commodity name
// keywords, then equity. The hedge index is assigned independently.
func (c *Classifier) Classify(p domain.HoldingPosition) Classification {
	ticker := reference.NormalizeTicker(p.Ticker)
	cls := Classification{
		Class:      domain.AssetClassEquity,
		HedgeIndex: c.hedgeIndex(ticker, c.currencyOf(p)),
	}

	if ticker == "CASH" || p.IsFuture {
		cls.Class = domain.AssetClassCash
		return cls
	}
	if commodity, ok := c.lookupCommodity(ticker, p.Name); ok {
		cls.Class = domain.AssetClassCommodity
		cls.Commodity = commodity
	}
	return cls
}

// ClassifyAll classifies positions in input order. The currency is resolved
// and written back when the caller left it empty.
func (c *Classifier) ClassifyAll(positions []domain.HoldingPosition) []ClassifiedPosition {
	out := make([]ClassifiedPosition, 0, len(positions))
	for _, p := range positions {
		p.Currency = c.currencyOf(p)
		out = append(out, ClassifiedPosition{
			HoldingPosition:  p,
			NormalizedTicker: reference.NormalizeTicker(p.Ticker),
			Classification:   c.Classify(p),
		})
	}
	return out
}

func (c *Classifier) currencyOf(p domain.HoldingPosition) domain.Currency {
	if p.Currency != "" {
		return domain.Currency(strings.ToUpper(string(p.Currency)))
	}
	return c.tables.CurrencyForTicker(p.Ticker)
}

// lookupCommodity checks the ticker table before the name keyword rules
func (c *Classifier) lookupCommodity(ticker, name string) (string, bool) {
	if commodity, ok := c.tables.CommodityForTicker(ticker); ok {
		return commodity, true
	}
	return c.tables.CommodityForName(name)
}

func (c *Classifier) hedgeIndex(ticker string, ccy domain.Currency) domain.HedgeIndex {
	switch {
	case ccy == domain.CurrencyAUD && c.tables.IsNasdaqCorrelatedASX(ticker):
		return domain.HedgeIndexNasdaq
	case ccy == domain.CurrencyAUD:
		return domain.HedgeIndexASX
	case ccy == domain.CurrencyHKD || ccy == domain.CurrencyCAD:
		return domain.HedgeIndexOther
	case c.tables.IsSP500(ticker):
		return domain.HedgeIndexSP500
	default:
		return domain.HedgeIndexNasdaq
	}
}
