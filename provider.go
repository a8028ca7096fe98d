package cgt

import "log"

// SecurityProvider fetches reference data and live prices from a market
// data source.
type SecurityProvider interface {
	// SecurityInfo returns the name and split history of a security.
	SecurityInfo(isin string) (SecurityInfo, error)
	// Price returns the current price of a security, in the currency it
	// trades in.
	Price(isin string) (Money, error)
}

// RateProvider fetches currency exchange rates.
type RateProvider interface {
	// ExchangeRate returns how many units of the quote currency one unit
	// of the base currency buys.
	ExchangeRate(base, quote string) (Quantity, error)
}

// FinancialData fronts the market data providers for the tax engine.
// Provider failures never stop a calculation: they degrade to "no data"
// with a warning in the log. A nil *FinancialData is valid and knows
// nothing.
type FinancialData struct {
	securities SecurityProvider
	rates      RateProvider
	info       map[string]*SecurityInfo // memoized per ISIN, nil for a known failure
}

// NewFinancialData returns a facade over the given providers. Either
// provider may be nil.
func NewFinancialData(securities SecurityProvider, rates RateProvider) *FinancialData {
	return &FinancialData{
		securities: securities,
		rates:      rates,
		info:       make(map[string]*SecurityInfo),
	}
}

// Splits returns the split history of a security, or nothing when the
// provider has no answer. Answers are remembered, so the provider is asked
// at most once per security.
func (f *FinancialData) Splits(security Security) []Split {
	if f == nil || f.securities == nil {
		return nil
	}
	if info, ok := f.info[security.ISIN]; ok {
		if info == nil {
			return nil
		}
		return info.Splits
	}
	info, err := f.securities.SecurityInfo(security.ISIN)
	if err != nil {
		log.Printf("warning: no splits for %s (%s): %v", security.Name, security.ISIN, err)
		f.info[security.ISIN] = nil
		return nil
	}
	f.info[security.ISIN] = &info
	return info.Splits
}

// Price returns the current price of a security, or false when the provider
// has no answer.
func (f *FinancialData) Price(security Security) (Money, bool) {
	if f == nil || f.securities == nil {
		return Money{}, false
	}
	price, err := f.securities.Price(security.ISIN)
	if err != nil {
		log.Printf("warning: no price for %s (%s): %v", security.Name, security.ISIN, err)
		return Money{}, false
	}
	return price, true
}

// Convert restates m in the given currency at the current exchange rate, or
// returns false when the rate is unknown.
func (f *FinancialData) Convert(m Money, currency string) (Money, bool) {
	if m.Currency() == currency || m.Currency() == "" {
		return m, true
	}
	if f == nil || f.rates == nil {
		return Money{}, false
	}
	rate, err := f.rates.ExchangeRate(m.Currency(), currency)
	if err != nil {
		log.Printf("warning: no %s/%s exchange rate: %v", m.Currency(), currency, err)
		return Money{}, false
	}
	return M(m.Amount().Mul(rate.value), currency), true
}
