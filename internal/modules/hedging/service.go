package hedging

import (
	"errors"
	"time"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging/futures"
	"github.com/rs/zerolog"
)

// Service wraps the engine with logging and metrics. It is safe for
// concurrent use.
type Service struct {
	engine  *Engine
	metrics *Metrics
	log     zerolog.Logger
}

// NewService creates a hedging service. A nil metrics value records into
// unregistered collectors.
func NewService(engine *Engine, metrics *Metrics, log zerolog.Logger) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		engine:  engine,
		metrics: metrics,
		log:     log.With().Str("service", "hedging").Logger(),
	}
}

// Engine returns the underlying engine
func (s *Service) Engine() *Engine {
	return s.engine
}

// Analyze runs the full analysis
func (s *Service) Analyze(snap Snapshot, in HedgeInputs, prices domain.PriceLookup) (Report, error) {
	start := time.Now()
	report, err := s.engine.Analyze(snap, in, prices)
	elapsed := time.Since(start)

	s.observe("analyze", elapsed, err)
	s.metrics.Positions.Observe(float64(len(snap.Positions)))

	if errors.Is(err, ErrNoPositions) {
		s.log.Warn().Msg("Analysis requested with no positions")
		return report, err
	}

	s.recordHedges(report.Hedges)
	s.metrics.LastVaR95.Set(report.Risk.VaR95)

	s.log.Debug().
		Int("positions", len(snap.Positions)).
		Float64("portfolio_value", report.PortfolioValue).
		Float64("beta", report.Risk.PortfolioBeta).
		Float64("var95", report.Risk.VaR95).
		Float64("equity_fraction", report.Futures.EquityFraction).
		Int("contracts", report.Futures.TotalContracts()).
		Dur("elapsed", elapsed).
		Msg("Analysis complete")

	return report, nil
}

// Prepare runs the hedge-independent part of an analysis
func (s *Service) Prepare(snap Snapshot) (Prepared, error) {
	start := time.Now()
	prep := s.engine.Prepare(snap)

	var err error
	if len(snap.Positions) == 0 {
		err = ErrNoPositions
	}
	s.observe("prepare", time.Since(start), err)
	s.metrics.Positions.Observe(float64(len(snap.Positions)))
	return prep, err
}

// Hedge re-sizes futures and re-prices options for a prepared snapshot
func (s *Service) Hedge(prep Prepared, in HedgeInputs, prices domain.PriceLookup) Hedges {
	start := time.Now()
	h := s.engine.Hedge(prep, in, prices)
	s.observe("hedge", time.Since(start), nil)
	s.recordHedges(h)
	return h
}

func (s *Service) observe(operation string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "empty"
	}
	s.metrics.Runs.WithLabelValues(operation, result).Inc()
	s.metrics.RunDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (s *Service) recordHedges(h Hedges) {
	for sym, q := range h.Futures.Prices {
		if q.Source == futures.SourceFallback {
			s.metrics.FallbackPrices.WithLabelValues(sym).Inc()
		}
	}
	for _, group := range [][]futures.Hedge{h.Futures.Equity, h.Futures.Commodities} {
		for _, hedge := range group {
			s.metrics.ContractsSized.WithLabelValues(hedge.Symbol).Set(float64(hedge.Contracts))
		}
	}
	if h.Options.SpotSource == futures.SourceFallback {
		s.log.Debug().Str("symbol", h.Options.Symbol).Msg("Option pricing uses fallback spot")
	}
}
