package cgt

import (
	"fmt"
	"slices"
	"sort"
)

// History is the repository of every transaction parsed from the broker
// statements. It deduplicates identical records, keeps each kind sorted by
// timestamp, and assigns sequence numbers in insertion order so provenance
// notes can refer back to a record.
type History struct {
	orders    []Order
	dividends []Dividend
	transfers []Transfer
	interest  []Interest
	seq       int
}

// NewHistory returns an empty transaction history.
func NewHistory() *History { return &History{} }

func (h *History) nextSeq() int {
	h.seq++
	return h.seq
}

// AddOrders validates and inserts orders, silently dropping exact
// duplicates of already known records.
func (h *History) AddOrders(orders ...Order) error {
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("order of %s (%s): %w", o.Name, o.ISIN, err)
		}
		if slices.ContainsFunc(h.orders, o.Equal) {
			continue
		}
		o.Seq = h.nextSeq()
		h.orders = append(h.orders, o)
	}
	sortByTimestamp(h.orders, func(o Order) Tx { return o.Tx })
	return nil
}

// AddDividends inserts dividends, dropping duplicates.
func (h *History) AddDividends(dividends ...Dividend) {
	for _, d := range dividends {
		if slices.ContainsFunc(h.dividends, d.Equal) {
			continue
		}
		d.Seq = h.nextSeq()
		h.dividends = append(h.dividends, d)
	}
	sortByTimestamp(h.dividends, func(d Dividend) Tx { return d.Tx })
}

// AddTransfers inserts cash transfers, dropping duplicates.
func (h *History) AddTransfers(transfers ...Transfer) {
	for _, t := range transfers {
		if slices.ContainsFunc(h.transfers, t.Equal) {
			continue
		}
		t.Seq = h.nextSeq()
		h.transfers = append(h.transfers, t)
	}
	sortByTimestamp(h.transfers, func(t Transfer) Tx { return t.Tx })
}

// AddInterest inserts interest payments, dropping duplicates.
func (h *History) AddInterest(interest ...Interest) {
	for _, i := range interest {
		if slices.ContainsFunc(h.interest, i.Equal) {
			continue
		}
		i.Seq = h.nextSeq()
		h.interest = append(h.interest, i)
	}
	sortByTimestamp(h.interest, func(i Interest) Tx { return i.Tx })
}

// sortByTimestamp sorts records by timestamp, keeping insertion order for
// records sharing one.
func sortByTimestamp[T any](records []T, tx func(T) Tx) {
	sort.SliceStable(records, func(i, j int) bool {
		return tx(records[i]).Timestamp.Before(tx(records[j]).Timestamp)
	})
}

// Orders returns the known orders, oldest first.
func (h *History) Orders() []Order { return slices.Clone(h.orders) }

// Dividends returns the known dividends, oldest first.
func (h *History) Dividends() []Dividend { return slices.Clone(h.dividends) }

// Transfers returns the known cash transfers, oldest first.
func (h *History) Transfers() []Transfer { return slices.Clone(h.transfers) }

// Interest returns the known interest payments, oldest first.
func (h *History) Interest() []Interest { return slices.Clone(h.interest) }

// Securities returns the distinct securities seen in orders, sorted by
// name.
func (h *History) Securities() []Security {
	seen := make(map[string]bool)
	var securities []Security
	for _, o := range h.orders {
		if seen[o.ISIN] {
			continue
		}
		seen[o.ISIN] = true
		securities = append(securities, Security{ISIN: o.ISIN, Name: o.Name})
	}
	sort.Slice(securities, func(i, j int) bool { return securities[i].Name < securities[j].Name })
	return securities
}

// SecurityName returns the name recorded for an ISIN, or "" when unknown.
func (h *History) SecurityName(isin string) string {
	for _, o := range h.orders {
		if o.ISIN == isin {
			return o.Name
		}
	}
	return ""
}

// TickerISIN resolves a ticker to the ISIN it traded under. It returns ""
// when the ticker is unknown and ErrAmbiguousTicker when the same ticker
// was used for more than one security.
func (h *History) TickerISIN(ticker string) (string, error) {
	var isin string
	for _, o := range h.orders {
		if o.Ticker != ticker {
			continue
		}
		if isin != "" && isin != o.ISIN {
			return "", fmt.Errorf("%w: %s matches %s and %s", ErrAmbiguousTicker, ticker, isin, o.ISIN)
		}
		isin = o.ISIN
	}
	return isin, nil
}
