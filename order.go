package cgt

import (
	"fmt"
	"strings"
	"time"

	"github.com/ukshares/cgt/date"
)

// MinOrderDate is the earliest supported order date. The share identification
// rules implemented here apply to disposals from the 2008/09 tax year on.
var MinOrderDate = date.New(2008, time.April, 6)

// Side says whether an order acquired or disposed of shares.
type Side int

const (
	Acquire Side = iota + 1
	Dispose
)

func (s Side) String() string {
	switch s {
	case Acquire:
		return "Acquisition"
	case Dispose:
		return "Disposal"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Order is a buy or sell of a security.
//
// Total is the cash that moved: for an acquisition it is the cost including
// fees, for a disposal it is the net proceeds after fees. Fees carries the
// breakdown of the fees already reflected in Total.
type Order struct {
	Tx
	Side     Side
	Quantity Quantity
	// OriginalQuantity is the quantity before any share-split adjustment,
	// set only on adjusted orders. Reports show it in place of Quantity.
	OriginalQuantity *Quantity
	// Price is the per-share price reported by the broker, informational.
	Price Money
	Fees  Fees
}

// Validate checks the order is well formed.
func (o Order) Validate() error {
	if o.Side != Acquire && o.Side != Dispose {
		return fmt.Errorf("%w: order has no side", ErrInvariant)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: order quantity %s is not positive", ErrInvariant, o.Quantity)
	}
	if o.Date().Before(MinOrderDate) {
		return fmt.Errorf("%w: order dated %s predates %s", ErrInvariant, o.Date(), MinOrderDate)
	}
	return nil
}

// TotalCost returns the full cost of an acquisition, fees included.
func (o Order) TotalCost() Money { return o.Total }

// NetProceeds returns the proceeds of a disposal after fees.
func (o Order) NetProceeds() Money { return o.Total }

// GrossProceeds returns the proceeds of a disposal before fees.
func (o Order) GrossProceeds() Money { return o.Total.Add(o.Fees.Total()) }

// Equal reports whether two orders describe the same trade, ignoring Seq
// and Notes.
func (o Order) Equal(p Order) bool {
	return o.Tx.equal(p.Tx) &&
		o.Side == p.Side &&
		o.Quantity.Equal(p.Quantity) &&
		o.Price.Equal(p.Price) &&
		o.Fees.Equal(p.Fees)
}

// Split carves q shares out of the order. It returns the carved-out order
// and the remainder; total and fees are apportioned pro rata, with the
// remainder computed by subtraction so the two parts always sum back to the
// original.
func (o Order) Split(q Quantity) (match, remainder Order, err error) {
	if !q.IsPositive() || o.Quantity.LessThan(q) {
		return Order{}, Order{}, fmt.Errorf("%w: cannot split %s shares out of an order of %s",
			ErrInvariant, q, o.Quantity)
	}

	matchTotal := o.Total.Mul(q).Div(o.Quantity)
	matchFees := o.Fees.Div(o.Quantity).Mul(q)
	notes := fmt.Sprintf("Split from order %d", o.Seq)

	match = o
	match.Seq = 0
	match.Quantity = q
	match.Total = matchTotal
	match.Fees = matchFees
	match.Notes = notes

	remainder = o
	remainder.Seq = 0
	remainder.Quantity = o.Quantity.Sub(q)
	remainder.Total = o.Total.Sub(matchTotal)
	remainder.Fees = o.Fees.Sub(matchFees)
	remainder.Notes = notes

	if o.OriginalQuantity != nil {
		mq := o.OriginalQuantity.Mul(q).Div(o.Quantity)
		rq := o.OriginalQuantity.Sub(mq)
		match.OriginalQuantity = &mq
		remainder.OriginalQuantity = &rq
	}
	return match, remainder, nil
}

// MergeOrders combines orders of the same security and side into one order
// dated at midnight of their common day, summing quantities, totals and
// fees.
func MergeOrders(orders ...Order) (Order, error) {
	if len(orders) < 2 {
		return Order{}, fmt.Errorf("%w: merge needs at least two orders, got %d", ErrInvariant, len(orders))
	}

	merged := orders[0]
	merged.Seq = 0
	merged.Timestamp = orders[0].Date().Time()
	merged.OriginalQuantity = nil

	seqs := make([]string, len(orders))
	seqs[0] = fmt.Sprint(orders[0].Seq)
	for i, o := range orders[1:] {
		if o.ISIN != merged.ISIN || o.Side != merged.Side {
			return Order{}, fmt.Errorf("%w: cannot merge %s %s order with %s %s order",
				ErrInvariant, merged.ISIN, merged.Side, o.ISIN, o.Side)
		}
		merged.Total = merged.Total.Add(o.Total)
		merged.Quantity = merged.Quantity.Add(o.Quantity)
		merged.Fees = merged.Fees.Add(o.Fees)
		seqs[i+1] = fmt.Sprint(o.Seq)
	}
	merged.Price = merged.Total.Div(merged.Quantity)
	merged.Notes = "Merged from orders " + strings.Join(seqs, ",")
	return merged, nil
}

// AdjustForSplits rescales the order quantity by every share split that
// became effective after the order. The money amounts are untouched; the
// pre-adjustment quantity is kept in OriginalQuantity.
func (o Order) AdjustForSplits(splits []Split) Order {
	var ratios []Quantity
	for _, s := range splits {
		if o.Timestamp.Before(s.EffectiveAt) {
			ratios = append(ratios, s.Ratio)
		}
	}
	if len(ratios) == 0 {
		return o
	}

	quantity := o.Quantity
	strs := make([]string, len(ratios))
	for i, r := range ratios {
		quantity = quantity.Mul(r)
		strs[i] = r.String()
	}

	adjusted := o
	original := o.Quantity
	adjusted.Quantity = quantity
	adjusted.OriginalQuantity = &original
	adjusted.Notes = fmt.Sprintf("Adjusted from order %d after applying the following split ratios: %s",
		o.Seq, strings.Join(strs, ", "))
	return adjusted
}

// ExcludeForexFee removes the currency conversion fee from the order's
// allowable cost: the fee component is dropped and Total is restated as if
// the fee had never been charged.
func (o Order) ExcludeForexFee() Order {
	if o.Fees.Forex == nil {
		return o
	}
	switch o.Side {
	case Acquire:
		o.Total = o.Total.Sub(*o.Fees.Forex)
	case Dispose:
		o.Total = o.Total.Add(*o.Fees.Forex)
	}
	o.Fees = o.Fees.DropForex()
	return o
}
