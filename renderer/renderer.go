// Package renderer turns transaction histories and tax calculations into
// markdown reports.
package renderer

import (
	"github.com/ukshares/cgt"
	"github.com/ukshares/cgt/date"
)

// Filter selects the transactions a report includes.
type Filter func(cgt.Tx) bool

// ByTaxYear keeps transactions falling in the given tax year.
func ByTaxYear(year date.TaxYear) Filter {
	return func(tx cgt.Tx) bool { return date.TaxYearOf(tx.Date()) == year }
}

// ByTicker keeps transactions of the security trading under ticker.
func ByTicker(ticker string) Filter {
	return func(tx cgt.Tx) bool { return tx.Ticker == ticker }
}

func keep(tx cgt.Tx, filters []Filter) bool {
	for _, f := range filters {
		if !f(tx) {
			return false
		}
	}
	return true
}

// cell formats a money amount for a table cell, leaving zero amounts blank.
func cell(m cgt.Money) string {
	if m.IsZero() {
		return ""
	}
	return m.Round().String()
}

// bold wraps a non-empty cell in markdown emphasis.
func bold(s string) string {
	if s == "" {
		return ""
	}
	return "**" + s + "**"
}

// groupByTaxYear splits records into per-tax-year runs, oldest year first.
// Records are assumed sorted by timestamp, as the history keeps them.
func groupByTaxYear[T any](records []T, tx func(T) cgt.Tx) (years []date.TaxYear, groups map[date.TaxYear][]T) {
	groups = make(map[date.TaxYear][]T)
	for _, r := range records {
		year := tx(r).TaxYear()
		if _, ok := groups[year]; !ok {
			years = append(years, year)
		}
		groups[year] = append(groups[year], r)
	}
	return years, groups
}
