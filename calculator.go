package cgt

import (
	"fmt"
	"log"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/ukshares/cgt/date"
)

// Config tunes a Calculator.
type Config struct {
	// Strict makes any integrity problem in the records fail the whole
	// calculation. When false, problems are logged and the calculation
	// degrades locally: the offending order or security is left out.
	Strict bool
	// IncludeFxFees counts currency conversion fees as allowable costs.
	IncludeFxFees bool
	// BaseCurrency is the currency every order must be denominated in.
	BaseCurrency string
}

// DefaultConfig returns the configuration used for UK reporting: strict,
// conversion fees allowable, amounts in GBP.
func DefaultConfig() Config {
	return Config{Strict: true, IncludeFxFees: true, BaseCurrency: "GBP"}
}

// Calculator computes capital gains from a transaction history by applying
// the share identification rules in order: same day, then acquisitions
// within 30 days of the disposal, then the Section 104 pool.
//
// The calculation runs once, on the first query, and its outcome is reused
// by every later query.
type Calculator struct {
	history *History
	data    *FinancialData
	cfg     Config

	once sync.Once
	err  error

	acquisitions map[string][]Order // keyed by ISIN, after same-day merging
	disposals    map[string][]Order
	holdings     map[string]*Section104Holding
	gains        map[date.TaxYear][]CapitalGain
}

// NewCalculator returns a Calculator over the given history. data may be
// nil; split histories and valuations are then unavailable.
func NewCalculator(history *History, data *FinancialData, cfg Config) *Calculator {
	return &Calculator{
		history:      history,
		data:         data,
		cfg:          cfg,
		acquisitions: make(map[string][]Order),
		disposals:    make(map[string][]Order),
		holdings:     make(map[string]*Section104Holding),
		gains:        make(map[date.TaxYear][]CapitalGain),
	}
}

func (c *Calculator) ensure() error {
	c.once.Do(func() { c.err = c.calculate() })
	return c.err
}

// CapitalGains returns every capital gain event, ordered by tax year then
// by disposal.
func (c *Calculator) CapitalGains() ([]CapitalGain, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	years, err := c.DisposalYears()
	if err != nil {
		return nil, err
	}
	var all []CapitalGain
	for _, y := range years {
		all = append(all, c.gains[y]...)
	}
	return all, nil
}

// CapitalGainsIn returns the capital gain events of one tax year, ordered
// by disposal date.
func (c *Calculator) CapitalGainsIn(year date.TaxYear) ([]CapitalGain, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	return slices.Clone(c.gains[year]), nil
}

// DisposalYears returns the tax years that saw at least one disposal,
// ascending.
func (c *Calculator) DisposalYears() ([]date.TaxYear, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	years := make([]date.TaxYear, 0, len(c.gains))
	for y := range c.gains {
		years = append(years, y)
	}
	slices.Sort(years)
	return years, nil
}

// Holdings returns the Section 104 holdings left after every order has been
// processed, sorted by ISIN.
func (c *Calculator) Holdings() ([]Section104Holding, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	holdings := make([]Section104Holding, 0, len(c.holdings))
	for _, h := range c.holdings {
		holdings = append(holdings, *h)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].ISIN < holdings[j].ISIN })
	return holdings, nil
}

// Holding returns the Section 104 holding of one security, if any.
func (c *Calculator) Holding(isin string) (Section104Holding, bool, error) {
	if err := c.ensure(); err != nil {
		return Section104Holding{}, false, err
	}
	h, ok := c.holdings[isin]
	if !ok {
		return Section104Holding{}, false, nil
	}
	return *h, true, nil
}

// HoldingValue returns the current market value of a holding in the base
// currency, or false when the security is not held or no price is known.
func (c *Calculator) HoldingValue(isin string) (Money, bool, error) {
	if err := c.ensure(); err != nil {
		return Money{}, false, err
	}
	h, ok := c.holdings[isin]
	if !ok {
		return Money{}, false, nil
	}
	price, ok := c.data.Price(Security{ISIN: isin, Name: c.history.SecurityName(isin)})
	if !ok {
		return Money{}, false, nil
	}
	price, ok = c.data.Convert(price, c.cfg.BaseCurrency)
	if !ok {
		return Money{}, false, nil
	}
	return price.Mul(h.Quantity), true, nil
}

// groupKey buckets orders of one security, day and side for same-day
// merging.
type groupKey struct {
	isin string
	day  date.Date
	side Side
}

func (c *Calculator) calculate() error {
	log.Printf("calculating capital gains")

	var orders []Order
	for _, o := range c.history.Orders() {
		o, err := c.normalize(o)
		if err != nil {
			if c.cfg.Strict {
				return err
			}
			log.Printf("warning: skipping order %d: %v", o.Seq, err)
			continue
		}
		orders = append(orders, o)
	}

	// Bucket orders by (security, day, side), keeping the buckets of each
	// security in first-seen order. Orders come sorted from the history,
	// so that order is chronological.
	groups := make(map[groupKey][]Order)
	keys := make(map[string][]groupKey)
	var isins []string
	for _, o := range orders {
		key := groupKey{o.ISIN, o.Date(), o.Side}
		if _, ok := groups[key]; !ok {
			keys[o.ISIN] = append(keys[o.ISIN], key)
		}
		groups[key] = append(groups[key], o)
		if !slices.Contains(isins, o.ISIN) {
			isins = append(isins, o.ISIN)
		}
	}
	slices.Sort(isins)

	for _, isin := range isins {
		if err := c.mergeSameDay(isin, keys[isin], groups); err != nil {
			return err
		}
		if err := c.matchOrders(isin, sameDayMatch); err != nil {
			return err
		}
		if err := c.matchOrders(isin, thirtyDayMatch); err != nil {
			return err
		}
		if err := c.poolRemaining(isin); err != nil {
			return err
		}
	}

	// Gains are produced security by security; reports read better in
	// disposal order.
	for year := range c.gains {
		gains := c.gains[year]
		sort.SliceStable(gains, func(i, j int) bool {
			ti, tj := gains[i].Disposal.Timestamp, gains[j].Disposal.Timestamp
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return gains[i].Disposal.ISIN < gains[j].Disposal.ISIN
		})
	}
	return nil
}

// normalize prepares one order for matching: currency check, share-split
// adjustment and the conversion fee policy.
func (c *Calculator) normalize(o Order) (Order, error) {
	if cur := o.Total.Currency(); cur != "" && cur != c.cfg.BaseCurrency {
		return o, fmt.Errorf("%w: order %d of %s is denominated in %s, want %s",
			ErrInvariant, o.Seq, o.Name, cur, c.cfg.BaseCurrency)
	}
	o = o.AdjustForSplits(c.data.Splits(Security{ISIN: o.ISIN, Name: o.Name}))
	if !c.cfg.IncludeFxFees {
		o = o.ExcludeForexFee()
	}
	return o, nil
}

// mergeSameDay collapses each same-day bucket into a single order and files
// it in the acquisitions or disposals of its security.
func (c *Calculator) mergeSameDay(isin string, keys []groupKey, groups map[groupKey][]Order) error {
	for _, key := range keys {
		bucket := groups[key]
		order := bucket[0]
		if len(bucket) > 1 {
			var err error
			order, err = MergeOrders(bucket...)
			if err != nil {
				return err
			}
			log.Printf("merged %d same-day orders of %s on %s: %s",
				len(bucket), order.Name, key.day, strings.ToLower(order.Side.String()))
		}
		switch key.side {
		case Acquire:
			c.acquisitions[isin] = append(c.acquisitions[isin], order)
		case Dispose:
			c.disposals[isin] = append(c.disposals[isin], order)
		}
	}
	return nil
}

func sameDayMatch(a, d Order) bool { return a.Date() == d.Date() }

// thirtyDayMatch implements the bed-and-breakfast rule: the acquisition
// falls within the 30 days after the disposal.
func thirtyDayMatch(a, d Order) bool {
	return d.Date().Before(a.Date()) && !a.Date().After(d.Date().Add(30))
}

// matchOrders identifies disposed shares against acquisitions selected by
// match. Orders larger than their counterpart are split, the remainder
// staying available for further identification.
func (c *Calculator) matchOrders(isin string, match func(a, d Order) bool) error {
	acquisitions := c.acquisitions[isin]
	disposals := c.disposals[isin]
	aDone := make([]bool, len(acquisitions))
	dDone := make([]bool, len(disposals))

	a, d := 0, 0
	for d < len(disposals) {
		if a == len(acquisitions) {
			a = 0
			d++
			continue
		}
		acq, dis := acquisitions[a], disposals[d]
		if aDone[a] || !match(acq, dis) {
			a++
			continue
		}

		switch {
		case acq.Quantity.GreaterThan(dis.Quantity):
			// Carve the matched shares out; the remainder stays
			// available for later disposals.
			m, rem, err := acq.Split(dis.Quantity)
			if err != nil {
				return err
			}
			acq, acquisitions[a] = m, rem
			dDone[d] = true
			c.addGain(acq, dis)
			a = 0
			d++
		case dis.Quantity.GreaterThan(acq.Quantity):
			m, rem, err := dis.Split(acq.Quantity)
			if err != nil {
				return err
			}
			dis, disposals[d] = m, rem
			aDone[a] = true
			c.addGain(acq, dis)
			a++
		default:
			aDone[a] = true
			dDone[d] = true
			c.addGain(acq, dis)
			a = 0
			d++
		}
	}

	c.acquisitions[isin] = discard(acquisitions, aDone)
	c.disposals[isin] = discard(disposals, dDone)
	return nil
}

// addGain records the gain event of a disposal identified against an
// acquisition: allowable cost is the acquisition's full cost plus the
// disposal fees.
func (c *Calculator) addGain(acq, dis Order) {
	acquired := acq.Date()
	cg := CapitalGain{
		Disposal:   dis,
		Cost:       acq.TotalCost().Add(dis.Fees.Total()),
		AcquiredOn: &acquired,
	}
	c.gains[cg.TaxYear()] = append(c.gains[cg.TaxYear()], cg)
}

func discard[T any](orders []T, done []bool) []T {
	kept := orders[:0:0]
	for i, o := range orders {
		if !done[i] {
			kept = append(kept, o)
		}
	}
	return kept
}

// poolRemaining replays the orders left after identification through the
// Section 104 pool, in date order with acquisitions first on any given day.
func (c *Calculator) poolRemaining(isin string) error {
	orders := slices.Concat(c.acquisitions[isin], c.disposals[isin])
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Date().Before(orders[j].Date()) })

	for _, o := range orders {
		holding := c.holdings[isin]
		switch o.Side {
		case Acquire:
			if holding == nil {
				c.holdings[isin] = &Section104Holding{ISIN: isin, Quantity: o.Quantity, Cost: o.TotalCost()}
			} else {
				holding.increase(o.Quantity, o.TotalCost())
			}
		case Dispose:
			if holding == nil {
				err := fmt.Errorf("%w: disposal of %s (%s) on %s with no shares held",
					ErrIncompleteRecords, o.Name, o.ISIN, o.Date())
				if c.cfg.Strict {
					return err
				}
				log.Printf("warning: skipping disposal: %v", err)
				continue
			}
			if holding.Quantity.LessThan(o.Quantity) {
				err := fmt.Errorf("%w: disposal of %s %s (%s) on %s exceeds the %s held",
					ErrIncompleteRecords, o.Quantity, o.Name, o.ISIN, o.Date(), holding.Quantity)
				if c.cfg.Strict {
					return err
				}
				log.Printf("warning: abandoning %s: %v", o.ISIN, err)
				delete(c.holdings, isin)
				return nil
			}

			cost := holding.Cost.Mul(o.Quantity).Div(holding.Quantity)
			holding.decrease(o.Quantity, cost)
			if holding.Quantity.IsZero() {
				delete(c.holdings, isin)
			}
			cg := CapitalGain{Disposal: o, Cost: cost.Add(o.Fees.Total())}
			c.gains[cg.TaxYear()] = append(c.gains[cg.TaxYear()], cg)
		}
	}
	return nil
}
