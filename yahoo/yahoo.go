// Package yahoo implements market data providers backed by the Yahoo
// Finance API: security reference data (name and split history), live
// prices and currency exchange rates.
//
// HTTP responses are cached on disk for a day, and the reference data of
// each security is kept in a YAML cache file between runs.
package yahoo

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"github.com/ukshares/cgt"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Provider fetches security data from Yahoo Finance. It implements both
// cgt.SecurityProvider and cgt.RateProvider.
type Provider struct {
	client  *http.Client
	baseURL string
	cache   *securitiesCache
	symbols map[string]symbolEntry
	rates   map[string]cgt.Quantity
}

type symbolEntry struct {
	symbol string
	name   string
}

var _ cgt.SecurityProvider = (*Provider)(nil)
var _ cgt.RateProvider = (*Provider)(nil)

// NewProvider returns a Provider persisting reference data in the YAML file
// at cachePath. An empty cachePath keeps the cache in memory only.
func NewProvider(cachePath string) (*Provider, error) {
	cache, err := loadSecuritiesCache(cachePath)
	if err != nil {
		return nil, err
	}
	return newProvider(newDailyCachingClient(), defaultBaseURL, cache), nil
}

func newProvider(client *http.Client, baseURL string, cache *securitiesCache) *Provider {
	return &Provider{
		client:  client,
		baseURL: baseURL,
		cache:   cache,
		symbols: make(map[string]symbolEntry),
		rates:   make(map[string]cgt.Quantity),
	}
}

// SecurityInfo returns the name and split history of a security, from the
// YAML cache when its entry is fresh.
func (p *Provider) SecurityInfo(isin string) (cgt.SecurityInfo, error) {
	if info, ok := p.cache.get(isin); ok {
		return info, nil
	}
	entry, err := p.lookup(isin)
	if err != nil {
		return cgt.SecurityInfo{}, err
	}
	splits, err := p.fetchSplits(entry.symbol)
	if err != nil {
		return cgt.SecurityInfo{}, err
	}
	info := cgt.SecurityInfo{Name: entry.name, Splits: splits}
	if err := p.cache.put(isin, info); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return info, nil
}

// Price returns the current price of a security. Prices quoted in pence
// (GBp) are restated in pounds.
func (p *Provider) Price(isin string) (cgt.Money, error) {
	entry, err := p.lookup(isin)
	if err != nil {
		return cgt.Money{}, err
	}
	price, currency, err := p.fetchQuote(entry.symbol)
	if err != nil {
		return cgt.Money{}, err
	}
	value := decimal.NewFromFloat(price)
	if currency == "GBp" || currency == "GBX" {
		value = value.Div(decimal.NewFromInt(100))
		currency = "GBP"
	}
	return cgt.M(value, currency), nil
}

// ExchangeRate returns the current base/quote rate. Rates are remembered
// for the lifetime of the provider, along with their inverse.
func (p *Provider) ExchangeRate(base, quote string) (cgt.Quantity, error) {
	if rate, ok := p.rates[base+quote]; ok {
		return rate, nil
	}
	price, _, err := p.fetchQuote(base + quote + "=X")
	if err != nil {
		return cgt.Quantity{}, err
	}
	rate := decimal.NewFromFloat(price)
	if rate.IsZero() {
		return cgt.Quantity{}, fmt.Errorf("zero %s/%s exchange rate", base, quote)
	}
	p.rates[base+quote] = cgt.Q(rate)
	p.rates[quote+base] = cgt.Q(decimal.NewFromInt(1).Div(rate))
	return cgt.Q(rate), nil
}

// lookup resolves an ISIN to its Yahoo symbol and security name.
func (p *Provider) lookup(isin string) (symbolEntry, error) {
	if entry, ok := p.symbols[isin]; ok {
		return entry, nil
	}

	var jobj any
	addr := fmt.Sprintf("%s/v1/finance/search?q=%s", p.baseURL, url.QueryEscape(isin))
	if err := jwget(p.client, addr, &jobj); err != nil {
		return symbolEntry{}, err
	}

	symbol, err := jsonpath.Get("$.quotes[0].symbol", jobj)
	if err != nil {
		return symbolEntry{}, fmt.Errorf("security %s not found: %w", isin, err)
	}
	sym, ok := symbol.(string)
	if !ok {
		return symbolEntry{}, fmt.Errorf("security %s: unexpected symbol %v", isin, symbol)
	}
	name := sym
	if n, err := jsonpath.Get("$.quotes[0].longname", jobj); err == nil {
		if s, ok := n.(string); ok && s != "" {
			name = s
		}
	}

	entry := symbolEntry{symbol: sym, name: name}
	p.symbols[isin] = entry
	return entry, nil
}

// fetchQuote returns the latest price and quote currency of a symbol.
func (p *Provider) fetchQuote(symbol string) (float64, string, error) {
	var jobj any
	addr := fmt.Sprintf("%s/v8/finance/chart/%s", p.baseURL, url.PathEscape(symbol))
	if err := jwget(p.client, addr, &jobj); err != nil {
		return 0, "", err
	}

	raw, err := jsonpath.Get("$.chart.result[0].meta.regularMarketPrice", jobj)
	if err != nil {
		return 0, "", fmt.Errorf("no price for %s: %w", symbol, err)
	}
	price, ok := raw.(float64)
	if !ok {
		return 0, "", fmt.Errorf("unexpected price %v for %s", raw, symbol)
	}

	currency := ""
	if raw, err := jsonpath.Get("$.chart.result[0].meta.currency", jobj); err == nil {
		currency, _ = raw.(string)
	}
	return price, currency, nil
}

// fetchSplits returns the split history of a symbol, oldest first.
func (p *Provider) fetchSplits(symbol string) ([]cgt.Split, error) {
	var jobj any
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=max&interval=1d&events=splits", p.baseURL, url.PathEscape(symbol))
	if err := jwget(p.client, addr, &jobj); err != nil {
		return nil, err
	}

	raw, err := jsonpath.Get("$.chart.result[0].events.splits", jobj)
	if err != nil {
		// Securities that never split have no events section.
		return nil, nil
	}
	events, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected splits payload for %s", symbol)
	}

	var splits []cgt.Split
	for _, raw := range events {
		event, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ts, tsOK := event["date"].(float64)
		num, numOK := event["numerator"].(float64)
		den, denOK := event["denominator"].(float64)
		if !tsOK || !numOK || !denOK || den == 0 {
			return nil, fmt.Errorf("malformed split event for %s: %v", symbol, event)
		}
		ratio := decimal.NewFromFloat(num).Div(decimal.NewFromFloat(den))
		splits = append(splits, cgt.Split{
			EffectiveAt: time.Unix(int64(ts), 0).UTC(),
			Ratio:       cgt.Q(ratio),
		})
	}
	sort.Slice(splits, func(i, j int) bool { return splits[i].EffectiveAt.Before(splits[j].EffectiveAt) })
	return splits, nil
}
