// Package exposure buckets classified positions by benchmark, commodity and
// currency, and computes beta-weighted and USD-normalised totals.
package exposure

import (
	"sort"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/classifier"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/pkg/formulas"
)

// Exposure is a classified position with its USD value
type Exposure struct {
	classifier.ClassifiedPosition
	ExposureUSD float64 `json:"exposure_usd"`
}

// EquityExposure is an index-hedgeable equity position carrying a beta.
// Only NASDAQ and S&P 500 bucketed positions carry one.
type EquityExposure struct {
	Exposure
	Beta            float64 `json:"beta"`
	BetaAdjustedUSD float64 `json:"beta_adjusted_usd"`
}

// BenchmarkTotals aggregates one equity benchmark bucket
type BenchmarkTotals struct {
	Index        domain.HedgeIndex `json:"index"`
	Notional     float64           `json:"notional"`
	BetaAdjusted float64           `json:"beta_adjusted"`
	WeightedBeta float64           `json:"weighted_beta"`
	Positions    []EquityExposure  `json:"positions"`
}

// CommodityBucket aggregates every position tied to one commodity
type CommodityBucket struct {
	Commodity string                          `json:"commodity"`
	ValueHome float64                         `json:"value_home"`
	ValueUSD  float64                         `json:"value_usd"`
	Positions []classifier.ClassifiedPosition `json:"positions"`
}

// CurrencyBucket aggregates positions by listing currency, in home terms
type CurrencyBucket struct {
	Currency  domain.Currency                 `json:"currency"`
	ValueHome float64                         `json:"value_home"`
	Positions []classifier.ClassifiedPosition `json:"positions"`
}

// Analysis is the result of one aggregation pass
type Analysis struct {
	LongValue     float64 `json:"long_value"`
	ShortValue    float64 `json:"short_value"`
	NetExposure   float64 `json:"net_exposure"`
	GrossExposure float64 `json:"gross_exposure"`

	Nasdaq BenchmarkTotals `json:"nasdaq"`
	SP500  BenchmarkTotals `json:"sp500"`

	ASX           []Exposure `json:"asx"`
	ASXNotional   float64    `json:"asx_notional"`
	Other         []Exposure `json:"other"`
	OtherNotional float64    `json:"other_notional"`

	Commodities  map[string]CommodityBucket         `json:"commodities"`
	CommodityUSD float64                            `json:"commodity_usd"`
	Currencies   map[domain.Currency]CurrencyBucket `json:"currencies"`

	// Cash lines and futures contracts, kept for reporting only
	Excluded []classifier.ClassifiedPosition `json:"excluded"`
}

// Aggregator performs the bucketing pass
type Aggregator struct {
	tables *reference.Tables
}

// New creates an aggregator over the given tables
func New(tables *reference.Tables) *Aggregator {
	return &Aggregator{tables: tables}
}

// ToUSD converts a home-currency value. Only AUD is converted; other
// non-USD currencies pass through unchanged.
func (a *Aggregator) ToUSD(value float64, ccy domain.Currency) float64 {
	if ccy == domain.CurrencyAUD {
		return value * a.tables.Parameters.AUDUSD
	}
	return value
}

// Aggregate partitions positions into buckets in a single pass. Cash-class
// positions (cash lines and futures) are set aside and contribute to nothing.
func (a *Aggregator) Aggregate(positions []classifier.ClassifiedPosition) Analysis {
	an := Analysis{
		Nasdaq:      BenchmarkTotals{Index: domain.HedgeIndexNasdaq, Positions: []EquityExposure{}},
		SP500:       BenchmarkTotals{Index: domain.HedgeIndexSP500, Positions: []EquityExposure{}},
		ASX:         []Exposure{},
		Other:       []Exposure{},
		Commodities: make(map[string]CommodityBucket),
		Currencies:  make(map[domain.Currency]CurrencyBucket),
		Excluded:    []classifier.ClassifiedPosition{},
	}

	for _, p := range positions {
		cls := p.Classification
		if cls.Class == domain.AssetClassCash {
			an.Excluded = append(an.Excluded, p)
			continue
		}

		value := p.Value
		usd := a.ToUSD(value, p.Currency)

		if value > 0 {
			an.LongValue += value
		} else if value < 0 {
			an.ShortValue += -value
		}

		cb := an.Currencies[p.Currency]
		cb.Currency = p.Currency
		cb.ValueHome += value
		cb.Positions = append(cb.Positions, p)
		an.Currencies[p.Currency] = cb

		exp := Exposure{ClassifiedPosition: p, ExposureUSD: usd}

		switch {
		case cls.Class == domain.AssetClassCommodity:
			b := an.Commodities[cls.Commodity]
			b.Commodity = cls.Commodity
			b.ValueHome += value
			b.ValueUSD += usd
			b.Positions = append(b.Positions, p)
			an.Commodities[cls.Commodity] = b
			an.CommodityUSD += usd

		case cls.HedgeIndex == domain.HedgeIndexNasdaq:
			addEquity(&an.Nasdaq, exp, a.tables.NasdaqBeta(p.NormalizedTicker))

		case cls.HedgeIndex == domain.HedgeIndexSP500:
			addEquity(&an.SP500, exp, a.tables.SP500Beta(p.NormalizedTicker))

		case cls.HedgeIndex == domain.HedgeIndexASX:
			an.ASX = append(an.ASX, exp)
			an.ASXNotional += usd

		default:
			an.Other = append(an.Other, exp)
			an.OtherNotional += usd
		}
	}

	an.NetExposure = an.LongValue - an.ShortValue
	an.GrossExposure = an.LongValue + an.ShortValue
	an.Nasdaq.WeightedBeta = formulas.SafeDiv(an.Nasdaq.BetaAdjusted, an.Nasdaq.Notional)
	an.SP500.WeightedBeta = formulas.SafeDiv(an.SP500.BetaAdjusted, an.SP500.Notional)

	return an
}

func addEquity(bt *BenchmarkTotals, exp Exposure, beta float64) {
	eq := EquityExposure{
		Exposure:        exp,
		Beta:            beta,
		BetaAdjustedUSD: exp.ExposureUSD * beta,
	}
	bt.Positions = append(bt.Positions, eq)
	bt.Notional += eq.ExposureUSD
	bt.BetaAdjusted += eq.BetaAdjustedUSD
}

// TotalUSD is the USD exposure summed across every bucket
func (an Analysis) TotalUSD() float64 {
	return an.Nasdaq.Notional + an.SP500.Notional + an.ASXNotional + an.OtherNotional + an.CommodityUSD
}

// EquityBetaAdjusted is the combined NASDAQ and S&P 500 beta-adjusted exposure
func (an Analysis) EquityBetaAdjusted() float64 {
	return an.Nasdaq.BetaAdjusted + an.SP500.BetaAdjusted
}

// CommodityNames lists the commodity buckets in sorted order
func (an Analysis) CommodityNames() []string {
	names := make([]string, 0, len(an.Commodities))
	for name := range an.Commodities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommodityValueHome sums commodity buckets in home terms. An empty name
// sums every bucket.
func (an Analysis) CommodityValueHome(commodity string) float64 {
	if commodity != "" {
		return an.Commodities[commodity].ValueHome
	}
	total := 0.0
	for _, name := range an.CommodityNames() {
		total += an.Commodities[name].ValueHome
	}
	return total
}
