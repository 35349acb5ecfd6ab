package domain

// PriceLookup supplies live futures and volatility-index quotes keyed by symbol.
// A missing or unusable quote is reported with ok=false; callers substitute
// their reference defaults.
type PriceLookup interface {
	Price(symbol string) (price float64, ok bool)
}

// StaticPrices is a PriceLookup over a fixed map. The nil map reports every
// symbol as missing.
type StaticPrices map[string]float64

// Price implements PriceLookup
func (s StaticPrices) Price(symbol string) (float64, bool) {
	p, ok := s[symbol]
	if !ok || !(p > 0) {
		return 0, false
	}
	return p, true
}

// PriceLookupFunc adapts a function to PriceLookup
type PriceLookupFunc func(symbol string) (float64, bool)

// Price implements PriceLookup
func (f PriceLookupFunc) Price(symbol string) (float64, bool) {
	return f(symbol)
}

// ChainLookup consults each lookup in order and returns the first hit.
type ChainLookup []PriceLookup

// Price implements PriceLookup
func (c ChainLookup) Price(symbol string) (float64, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if p, ok := l.Price(symbol); ok {
			return p, true
		}
	}
	return 0, false
}
