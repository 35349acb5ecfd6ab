package clientdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidQuote is returned for quotes without a symbol or a positive price
var ErrInvalidQuote = errors.New("invalid quote")

// Quote is a cached instrument price
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Stale     bool      `json:"stale"`
}

// QuoteCache stores pushed quotes and serves them as the engine's price
// lookup: fresh quotes first, then stale ones, else missing.
type QuoteCache struct {
	repo *Repository
	ttl  time.Duration
	log  zerolog.Logger
}

// NewQuoteCache creates a quote cache. A non-positive ttl uses DefaultQuoteTTL.
func NewQuoteCache(repo *Repository, ttl time.Duration, log zerolog.Logger) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{
		repo: repo,
		ttl:  ttl,
		log:  log.With().Str("component", "quote_cache").Logger(),
	}
}

// NormalizeSymbol uppercases and trims a quote symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Put stores a quote, stamping it with the current time.
func (c *QuoteCache) Put(symbol string, price float64, source string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" || !(price > 0) || math.IsInf(price, 0) {
		return Quote{}, fmt.Errorf("%w: %q at %v", ErrInvalidQuote, symbol, price)
	}

	q := Quote{
		Symbol:    symbol,
		Price:     price,
		Source:    source,
		UpdatedAt: c.repo.now().UTC(),
	}
	if err := c.repo.Store(TableFuturesQuotes, symbol, q, c.ttl); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Get returns the cached quote for symbol. ok is false when nothing is cached.
func (c *QuoteCache) Get(symbol string) (q Quote, ok bool, err error) {
	symbol = NormalizeSymbol(symbol)

	raw, err := c.repo.GetIfFresh(TableFuturesQuotes, symbol)
	if err != nil {
		return Quote{}, false, err
	}
	stale := false
	if raw == nil {
		if raw, err = c.repo.Get(TableFuturesQuotes, symbol); err != nil {
			return Quote{}, false, err
		}
		if raw == nil {
			return Quote{}, false, nil
		}
		stale = true
	}

	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, false, fmt.Errorf("failed to unmarshal quote %s: %w", symbol, err)
	}
	q.Stale = stale
	return q, true, nil
}

// All returns every cached quote in symbol order
func (c *QuoteCache) All() ([]Quote, error) {
	symbols, err := c.repo.Keys(TableFuturesQuotes)
	if err != nil {
		return nil, err
	}

	quotes := make([]Quote, 0, len(symbols))
	for _, sym := range symbols {
		q, ok, err := c.Get(sym)
		if err != nil {
			return nil, err
		}
		if ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

// Price implements domain.PriceLookup. Cache failures are logged and
// reported as a missing quote so the engine falls back to reference prices.
func (c *QuoteCache) Price(symbol string) (float64, bool) {
	q, ok, err := c.Get(symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
		return 0, false
	}
	if !ok || !(q.Price > 0) {
		return 0, false
	}
	if q.Stale {
		c.log.Debug().Str("symbol", q.Symbol).Time("updated_at", q.UpdatedAt).Msg("Serving stale quote")
	}
	return q.Price, true
}
