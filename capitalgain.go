package cgt

import (
	"fmt"

	"github.com/ukshares/cgt/date"
)

// CapitalGain is one taxable disposal event: a disposal (possibly a slice of
// a larger order) identified against the shares it is deemed to have sold.
type CapitalGain struct {
	Disposal Order
	// Cost is the allowable cost of the identified shares, disposal fees
	// included.
	Cost Money
	// AcquiredOn is the day the identified shares were acquired, nil when
	// they came out of the Section 104 pool.
	AcquiredOn *date.Date
}

// GainLoss returns the gain (or loss, negative) on the event. Disposal fees
// are part of Cost, so the gross proceeds are used.
func (cg CapitalGain) GainLoss() Money {
	return cg.Disposal.GrossProceeds().Sub(cg.Cost)
}

// Quantity returns the disposed quantity, in the share units the broker
// reported before any split adjustment.
func (cg CapitalGain) Quantity() Quantity {
	if cg.Disposal.OriginalQuantity != nil {
		return *cg.Disposal.OriginalQuantity
	}
	return cg.Disposal.Quantity
}

// TaxYear returns the tax year the disposal falls in.
func (cg CapitalGain) TaxYear() date.TaxYear { return cg.Disposal.TaxYear() }

// Identification names the rule that identified the shares.
func (cg CapitalGain) Identification() string {
	switch {
	case cg.AcquiredOn == nil:
		return "Section 104"
	case *cg.AcquiredOn == cg.Disposal.Date():
		return "Same day"
	default:
		return fmt.Sprintf("Bed & B. (%s)", cg.AcquiredOn)
	}
}

func (cg CapitalGain) String() string {
	return fmt.Sprintf("%s %-4s quantity: %s, cost: %s, proceeds: %s, gain: %s (%s)",
		cg.Disposal.Date(), cg.Disposal.Ticker, cg.Quantity(),
		cg.Cost.Round(), cg.Disposal.GrossProceeds().Round(), cg.GainLoss().Round(),
		cg.Identification())
}

// Section104Holding is the pooled holding of one security: all shares not
// identified by the same-day or 30-day rules, carried at average cost.
type Section104Holding struct {
	ISIN     string
	Quantity Quantity
	Cost     Money
}

func (h *Section104Holding) increase(quantity Quantity, cost Money) {
	h.Quantity = h.Quantity.Add(quantity)
	h.Cost = h.Cost.Add(cost)
}

func (h *Section104Holding) decrease(quantity Quantity, cost Money) {
	h.Quantity = h.Quantity.Sub(quantity)
	h.Cost = h.Cost.Sub(cost)
}

// AverageCost returns the pool cost per share.
func (h Section104Holding) AverageCost() Money { return h.Cost.Div(h.Quantity) }
