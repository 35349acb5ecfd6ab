// Package hedging ties the classifier, exposure aggregator, risk metrics,
// futures sizer and option pricer into one analysis over a holdings
// snapshot. The engine performs no I/O; every run is a pure function of its
// arguments and the reference tables.
package hedging

import (
	"errors"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/classifier"
	"github.com/aristath/hedger/internal/modules/hedging/exposure"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
	"github.com/aristath/hedger/internal/modules/hedging/options"
	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/internal/modules/hedging/risk"
	"github.com/aristath/hedger/pkg/formulas"
)

// ErrNoPositions is returned when a snapshot holds no positions. The
// accompanying report is still valid and zero-valued.
var ErrNoPositions = errors.New("no positions supplied")

// Snapshot is the holdings input of one analysis. A non-positive TotalValue
// is derived from the positions.
type Snapshot struct {
	Positions  []domain.HoldingPosition `json:"positions" yaml:"positions"`
	TotalValue float64                  `json:"total_value" yaml:"total_value"`
}

// HedgeInputs are the user-adjustable hedge fractions
type HedgeInputs = futures.Inputs

// Prepared is the hedge-independent part of an analysis. Callers that
// re-price on every hedge-fraction change can keep it and call Hedge.
type Prepared struct {
	PortfolioValue float64                         `json:"portfolio_value"`
	Positions      []classifier.ClassifiedPosition `json:"positions"`
	Exposure       exposure.Analysis               `json:"exposure"`
	Risk           risk.Metrics                    `json:"risk"`
}

// Hedges is the hedge-dependent part of an analysis
type Hedges struct {
	Futures futures.Recommendation `json:"futures"`
	Options options.Table          `json:"options"`
}

// Report is the complete output of one analysis
type Report struct {
	Prepared
	Hedges
}

// Engine runs analyses against a fixed set of reference tables
type Engine struct {
	tables     *reference.Tables
	classifier *classifier.Classifier
	aggregator *exposure.Aggregator
	risk       *risk.Calculator
	sizer      *futures.Sizer
	pricer     *options.Pricer
}

// NewEngine creates an engine. The tables must be prepared and must not be
// modified afterwards.
func NewEngine(tables *reference.Tables) *Engine {
	return &Engine{
		tables:     tables,
		classifier: classifier.New(tables),
		aggregator: exposure.New(tables),
		risk:       risk.New(tables),
		sizer:      futures.New(tables),
		pricer:     options.New(tables),
	}
}

// Tables returns the reference tables the engine runs on
func (e *Engine) Tables() *reference.Tables {
	return e.tables
}

// Analyze runs the full pipeline. An empty snapshot yields a zero-valued
// report together with ErrNoPositions.
func (e *Engine) Analyze(snap Snapshot, in HedgeInputs, prices domain.PriceLookup) (Report, error) {
	prep := e.Prepare(snap)
	report := Report{Prepared: prep, Hedges: e.Hedge(prep, in, prices)}
	if len(snap.Positions) == 0 {
		return report, ErrNoPositions
	}
	return report, nil
}

// Prepare sanitizes, classifies and aggregates the snapshot and computes the
// risk metrics, none of which depend on hedge fractions or prices.
func (e *Engine) Prepare(snap Snapshot) Prepared {
	positions := make([]domain.HoldingPosition, len(snap.Positions))
	for i, p := range snap.Positions {
		positions[i] = p.Sanitized()
	}

	total := domain.ClampAmount(snap.TotalValue)
	if total <= 0 {
		total = TotalValue(positions)
	}
	DeriveWeights(positions, total)

	classified := e.classifier.ClassifyAll(positions)
	an := e.aggregator.Aggregate(classified)

	return Prepared{
		PortfolioValue: total,
		Positions:      classified,
		Exposure:       an,
		Risk:           e.risk.Compute(an, total, classified),
	}
}

// Hedge sizes futures and prices option strategies for a prepared snapshot
func (e *Engine) Hedge(prep Prepared, in HedgeInputs, prices domain.PriceLookup) Hedges {
	rec := e.sizer.Size(prep.Exposure, prep.Risk.PortfolioBeta, in, prices)
	optIn := e.pricer.Inputs(prices, rec.FullHedgeContracts, prep.PortfolioValue)
	return Hedges{
		Futures: rec,
		Options: e.pricer.Price(optIn),
	}
}

// TotalValue sums position values in home-currency terms, cash included
func TotalValue(positions []domain.HoldingPosition) float64 {
	values := make([]float64, len(positions))
	for i, p := range positions {
		values[i] = domain.ClampAmount(p.Value)
	}
	return formulas.Sum(values)
}

// DeriveWeights fills zero weights as value ÷ total × 100. Supplied weights
// are left untouched.
func DeriveWeights(positions []domain.HoldingPosition, total float64) {
	if !(total > 0) {
		return
	}
	for i := range positions {
		if positions[i].Weight == 0 {
			positions[i].Weight = positions[i].Value / total * 100
		}
	}
}
