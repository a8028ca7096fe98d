package cgt

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ukshares/cgt/date"
)

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

// buy returns an acquisition order: amount is the cost before fees, fee is a
// single broker fee, so the order total is amount+fee.
func buy(ts time.Time, isin string, quantity, amount, fee float64) Order {
	return testOrder(Acquire, ts, isin, quantity, amount+fee, fee)
}

// sell returns a disposal order: amount is the gross proceeds, so the order
// total (net proceeds) is amount-fee.
func sell(ts time.Time, isin string, quantity, amount, fee float64) Order {
	return testOrder(Dispose, ts, isin, quantity, amount-fee, fee)
}

func testOrder(side Side, ts time.Time, isin string, quantity, total, fee float64) Order {
	fees := Fees{Currency: "GBP"}
	if fee != 0 {
		m := M(fee, "GBP")
		fees.StampDuty = &m
	}
	return Order{
		Tx:       Tx{Timestamp: ts, ISIN: isin, Ticker: isin, Name: isin, Total: M(total, "GBP")},
		Side:     side,
		Quantity: Q(quantity),
		Fees:     fees,
	}
}

type fakeSecurityProvider struct {
	infoCalls int
	splits    map[string][]Split
	prices    map[string]Money
}

func (p *fakeSecurityProvider) SecurityInfo(isin string) (SecurityInfo, error) {
	p.infoCalls++
	return SecurityInfo{Name: isin, Splits: p.splits[isin]}, nil
}

func (p *fakeSecurityProvider) Price(isin string) (Money, error) {
	price, ok := p.prices[isin]
	if !ok {
		return Money{}, fmt.Errorf("no price for %s", isin)
	}
	return price, nil
}

type fakeRateProvider struct {
	rates map[string]Quantity // keyed by base+quote
}

func (p *fakeRateProvider) ExchangeRate(base, quote string) (Quantity, error) {
	rate, ok := p.rates[base+quote]
	if !ok {
		return Quantity{}, fmt.Errorf("no %s/%s rate", base, quote)
	}
	return rate, nil
}

func newTestCalculator(t *testing.T, cfg Config, splits map[string][]Split, orders ...Order) *Calculator {
	t.Helper()
	h := NewHistory()
	if err := h.AddOrders(orders...); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	data := NewFinancialData(&fakeSecurityProvider{splits: splits}, nil)
	return NewCalculator(h, data, cfg)
}

// assertGain checks one capital gain event. acquiredOn is "" for a
// Section 104 disposal; cost and gainLoss are decimal strings rounded to
// the penny, without trailing zeros.
func assertGain(t *testing.T, cg CapitalGain, acquiredOn, cost, gainLoss string) {
	t.Helper()
	switch {
	case acquiredOn == "" && cg.AcquiredOn != nil:
		t.Errorf("AcquiredOn = %v, want Section 104", cg.AcquiredOn)
	case acquiredOn != "" && cg.AcquiredOn == nil:
		t.Errorf("AcquiredOn = Section 104, want %s", acquiredOn)
	case acquiredOn != "" && cg.AcquiredOn.String() != acquiredOn:
		t.Errorf("AcquiredOn = %v, want %s", cg.AcquiredOn, acquiredOn)
	}
	if got := cg.Cost.Amount().Round(2).String(); got != cost {
		t.Errorf("Cost = %s, want %s", got, cost)
	}
	if got := cg.GainLoss().Amount().Round(2).String(); got != gainLoss {
		t.Errorf("GainLoss() = %s, want %s", got, gainLoss)
	}
}

func assertHolding(t *testing.T, c *Calculator, isin, quantity, cost string) {
	t.Helper()
	h, ok, err := c.Holding(isin)
	if err != nil {
		t.Fatalf("Holding(%s): unexpected error %v", isin, err)
	}
	if !ok {
		t.Fatalf("Holding(%s): no holding", isin)
	}
	if got := h.Quantity.String(); got != quantity {
		t.Errorf("Holding(%s).Quantity = %s, want %s", isin, got, quantity)
	}
	if got := h.Cost.Amount().Round(2).String(); got != cost {
		t.Errorf("Holding(%s).Cost = %s, want %s", isin, got, cost)
	}
}

func gains(t *testing.T, c *Calculator, want int) []CapitalGain {
	t.Helper()
	got, err := c.CapitalGains()
	if err != nil {
		t.Fatalf("CapitalGains(): unexpected error %v", err)
	}
	if len(got) != want {
		t.Fatalf("CapitalGains() returned %d events, want %d", len(got), want)
	}
	return got
}

// TestSection104Disposal follows the worked example in HMRC helpsheet HS284
// (example 3, 2024).
func TestSection104Disposal(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2015, 4, 1, 0), "LOBS", 1000, 4000, 150),
		buy(at(2018, 9, 1, 0), "LOBS", 500, 2050, 80),
		sell(at(2023, 5, 1, 0), "LOBS", 700, 3360, 100),
		sell(at(2024, 2, 1, 0), "LOBS", 400, 2080, 105),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "", "3030.67", "329.33")
	assertGain(t, cgs[1], "", "1779.67", "300.33")

	if got := cgs[0].Disposal.Date(); got != date.New(2023, 5, 1) {
		t.Errorf("first disposal date = %v, want 2023-05-01", got)
	}

	years, err := c.DisposalYears()
	if err != nil {
		t.Fatalf("DisposalYears(): %v", err)
	}
	if len(years) != 1 || years[0] != 2023 {
		t.Errorf("DisposalYears() = %v, want [2023]", years)
	}
	inYear, err := c.CapitalGainsIn(2023)
	if err != nil {
		t.Fatalf("CapitalGainsIn(2023): %v", err)
	}
	if len(inYear) != 2 {
		t.Errorf("CapitalGainsIn(2023) returned %d events, want 2", len(inYear))
	}

	assertHolding(t, c, "LOBS", "400", "1674.67")
}

func TestSection104WithNoDisposalMade(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2015, 4, 1, 0), "X", 1000, 4000, 150),
		buy(at(2018, 9, 1, 0), "X", 500, 2000, 50),
	)
	gains(t, c, 0)
	assertHolding(t, c, "X", "1500", "6200")
}

func TestSameDayRule(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 100, 0),
		sell(at(2019, 1, 20, 14), "X", 1, 70, 0),
		buy(at(2019, 1, 20, 15), "X", 1, 60, 0),
		buy(at(2019, 1, 20, 16), "X", 2, 65, 0),
		sell(at(2019, 1, 20, 17), "X", 4, 280, 0),
		buy(at(2019, 1, 20, 18), "X", 2, 55, 0),
	)

	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "2019-01-20", "180", "170")
	if got, want := cgs[0].Identification(), "Same day"; got != want {
		t.Errorf("Identification() = %q, want %q", got, want)
	}
	if got := cgs[0].Disposal.GrossProceeds().Amount().String(); got != "350" {
		t.Errorf("merged disposal proceeds = %s, want 350", got)
	}
	assertHolding(t, c, "X", "10", "100")
}

func TestBedAndBreakfastRule(t *testing.T) {
	for days := 1; days <= 30; days++ {
		t.Run(fmt.Sprintf("%d days elapsed", days), func(t *testing.T) {
			disposed := at(2019, 1, 20, 0)
			c := newTestCalculator(t, DefaultConfig(), nil,
				buy(at(2019, 1, 18, 0), "X", 10, 100, 0),
				sell(disposed, "X", 5, 150, 0),
				buy(disposed.AddDate(0, 0, days), "X", 5, 120, 0),
			)

			cgs := gains(t, c, 1)
			assertGain(t, cgs[0], date.Of(disposed).Add(days).String(), "120", "30")
			assertHolding(t, c, "X", "10", "100")
		})
	}
}

func TestAcquisitionsNotMatchedAfterThirtyDays(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 100, 0),
		sell(at(2019, 1, 19, 0), "X", 5, 150, 0),
		buy(at(2019, 2, 19, 0), "X", 5, 120, 0), // 31 days later
	)

	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "", "50", "100")
	assertHolding(t, c, "X", "10", "170")
}

func TestAcquisitionsNotMatchedBeforeDisposalDate(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 100, 0),
		buy(at(2019, 2, 18, 0), "X", 5, 200, 0),
		sell(at(2019, 2, 19, 0), "X", 5, 150, 0),
	)

	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "", "100", "50")
	assertHolding(t, c, "X", "10", "200")
}

// TestSameDayRulePriority verifies that the same day rule wins over the bed
// and breakfast rule. The bed and breakfast event is listed first because
// its disposal is earlier.
func TestSameDayRulePriority(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 100, 0),
		sell(at(2019, 1, 20, 0), "X", 5, 150, 0),
		buy(at(2019, 1, 25, 0), "X", 5, 150, 0),
		sell(at(2019, 1, 25, 0), "X", 5, 170, 0),
		buy(at(2019, 1, 27, 0), "X", 5, 300, 0),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "2019-01-27", "300", "-150")
	assertGain(t, cgs[1], "2019-01-25", "150", "20")
	if got, want := cgs[0].Identification(), "Bed & B. (2019-01-27)"; got != want {
		t.Errorf("Identification() = %q, want %q", got, want)
	}
	if got, want := cgs[1].Identification(), "Same day"; got != want {
		t.Errorf("Identification() = %q, want %q", got, want)
	}
	assertHolding(t, c, "X", "10", "100")
}

// TestMatchingDisposalsWithLargerAcquisition splits an acquisition in two to
// match the first disposal, the remainder matching the second disposal.
func TestMatchingDisposalsWithLargerAcquisition(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 100, 0),
		sell(at(2019, 1, 20, 0), "X", 5, 60, 0),
		sell(at(2019, 1, 21, 0), "X", 1, 11, 0),
		buy(at(2019, 1, 22, 0), "X", 7, 70, 0),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "2019-01-22", "50", "10")
	assertGain(t, cgs[1], "2019-01-22", "10", "1")
	assertHolding(t, c, "X", "11", "110")
}

// TestMatchingDisposalWithMultipleSmallerAcquisitions checks a single
// disposal producing several events: one share same day, three shares bed
// and breakfast over two acquisitions, one share from the pool. The second
// disposal must not match acquisitions already identified.
func TestMatchingDisposalWithMultipleSmallerAcquisitions(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 30, 0),
		sell(at(2019, 1, 20, 0), "X", 5, 50, 0),
		buy(at(2019, 1, 20, 0), "X", 1, 9, 0),
		buy(at(2019, 1, 25, 0), "X", 2, 16, 0),
		buy(at(2019, 1, 27, 0), "X", 1, 5, 0),
		sell(at(2019, 3, 1, 0), "X", 1, 7, 0),
	)

	cgs := gains(t, c, 5)
	assertGain(t, cgs[0], "2019-01-20", "9", "1")
	assertGain(t, cgs[1], "2019-01-25", "16", "4")
	assertGain(t, cgs[2], "2019-01-27", "5", "5")
	assertGain(t, cgs[3], "", "3", "7")
	assertGain(t, cgs[4], "", "3", "4")
	assertHolding(t, c, "X", "8", "24")
}

func TestCapitalGainsWithFees(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 30, 1.5),
		buy(at(2019, 1, 20, 0), "X", 5, 40, 0.5),
		sell(at(2019, 1, 20, 0), "X", 5, 50, 0.4),
		sell(at(2019, 3, 1, 0), "X", 5, 50, 0.8),
	)

	cgs := gains(t, c, 2)
	// Allowable cost = 40.0 + 0.5 + 0.4 = 40.9
	assertGain(t, cgs[0], "2019-01-20", "40.9", "9.1")
	// Pool cost = 31.5; allowable cost = 31.5 * 5/10 + 0.8 = 16.55
	assertGain(t, cgs[1], "", "16.55", "33.45")
	// Remaining pool cost = 31.5 / 2 = 15.75
	assertHolding(t, c, "X", "5", "15.75")
}

func TestDisposalsOnDifferentSecurities(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2018, 1, 1, 0), "X", 10, 100, 0),
		buy(at(2018, 1, 1, 0), "Y", 20, 200, 0),
		sell(at(2019, 1, 20, 0), "X", 1, 11, 0),
		sell(at(2019, 1, 21, 0), "Y", 2, 22, 0),
		buy(at(2019, 1, 21, 0), "X", 2, 8, 0),
		buy(at(2019, 1, 22, 0), "Y", 2, 6, 0),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "2019-01-21", "4", "7")
	if got := cgs[0].Disposal.ISIN; got != "X" {
		t.Errorf("first event ISIN = %s, want X", got)
	}
	assertGain(t, cgs[1], "2019-01-22", "6", "16")
	if got := cgs[1].Disposal.ISIN; got != "Y" {
		t.Errorf("second event ISIN = %s, want Y", got)
	}
	assertHolding(t, c, "X", "11", "104")
	assertHolding(t, c, "Y", "20", "200")
}

func TestDisposalWithoutAcquisition(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		sell(at(2019, 1, 17, 0), "X", 5, 120, 0),
	)
	if _, err := c.CapitalGains(); !errors.Is(err, ErrIncompleteRecords) {
		t.Errorf("CapitalGains() error = %v, want ErrIncompleteRecords", err)
	}
}

func TestDisposingMoreThanAcquired(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 18, 0), "X", 5, 100, 0),
		sell(at(2019, 3, 17, 0), "X", 10, 120, 0),
	)
	if _, err := c.CapitalGains(); !errors.Is(err, ErrIncompleteRecords) {
		t.Errorf("CapitalGains() error = %v, want ErrIncompleteRecords", err)
	}
}

func TestLenientSkipsUnmatchedDisposal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = false
	c := newTestCalculator(t, cfg, nil,
		sell(at(2019, 1, 17, 0), "X", 5, 120, 0),
		buy(at(2019, 3, 1, 0), "X", 10, 100, 0),
	)
	gains(t, c, 0)
	assertHolding(t, c, "X", "10", "100")
}

func TestLenientAbandonsSecurityOnOverdisposal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = false
	c := newTestCalculator(t, cfg, nil,
		buy(at(2019, 1, 18, 0), "X", 5, 100, 0),
		sell(at(2019, 3, 17, 0), "X", 10, 120, 0),
		buy(at(2018, 1, 1, 0), "Y", 10, 50, 0),
	)
	gains(t, c, 0)
	if _, ok, err := c.Holding("X"); err != nil || ok {
		t.Errorf("Holding(X) = (ok=%v, err=%v), want no holding", ok, err)
	}
	assertHolding(t, c, "Y", "10", "50")
}

func TestSection104DisposalWithShareSplit(t *testing.T) {
	splits := map[string][]Split{
		"X": {{EffectiveAt: at(2014, 7, 1, 0), Ratio: Q(3)}},
	}
	c := newTestCalculator(t, DefaultConfig(), splits,
		buy(at(2014, 5, 1, 0), "X", 11, 3300, 0),
		sell(at(2014, 6, 1, 0), "X", 1, 500, 0),
		buy(at(2014, 8, 1, 0), "X", 10, 1000, 0),
		sell(at(2014, 9, 1, 0), "X", 5, 1100, 0),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "", "300", "200")
	if got := cgs[0].Quantity(); !got.Equal(Q(1)) {
		t.Errorf("first event Quantity() = %s, want 1", got)
	}
	assertGain(t, cgs[1], "", "500", "600")
	if got := cgs[1].Quantity(); !got.Equal(Q(5)) {
		t.Errorf("second event Quantity() = %s, want 5", got)
	}
	assertHolding(t, c, "X", "35", "3500")
}

func TestBedAndBreakfastRuleWithShareSplit(t *testing.T) {
	splits := map[string][]Split{
		"X": {{EffectiveAt: at(2019, 1, 25, 0), Ratio: Q(3)}},
	}
	c := newTestCalculator(t, DefaultConfig(), splits,
		buy(at(2019, 1, 18, 0), "X", 10, 100, 0),
		sell(at(2019, 1, 20, 0), "X", 5, 150, 0),
		buy(at(2019, 1, 30, 0), "X", 20, 160, 0),
	)

	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "2019-01-30", "120", "30")
	if got := cgs[0].Quantity(); !got.Equal(Q(5)) {
		t.Errorf("Quantity() = %s, want 5", got)
	}
	assertHolding(t, c, "X", "35", "140")
}

// TestAccountantsWorkedExample follows the taxation-of-shares example
// published by Rawlinson Pryde & Partners.
func TestAccountantsWorkedExample(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 18, 0), "X", 4, 12025, 0),
		sell(at(2019, 1, 18, 0), "X", 3, 9100, 0),
		sell(at(2019, 1, 19, 0), "X", 1, 5000, 0),
		buy(at(2019, 1, 22, 0), "X", 1, 2000, 0),
		buy(at(2019, 1, 23, 0), "X", 5, 15000, 0),
		sell(at(2019, 1, 24, 0), "X", 2, 8000, 0),
		buy(at(2019, 1, 25, 0), "X", 1, 3300, 0),
		sell(at(2019, 1, 25, 0), "X", 1, 3500, 0),
		buy(at(2019, 1, 26, 0), "X", 4, 17000, 0),
		sell(at(2019, 1, 27, 0), "X", 8, 70000, 0),
	)

	cgs := gains(t, c, 5)
	assertGain(t, cgs[0], "2019-01-18", "9018.75", "81.25")
	assertGain(t, cgs[1], "2019-01-22", "2000", "3000")
	assertGain(t, cgs[2], "2019-01-26", "8500", "-500")
	assertGain(t, cgs[3], "2019-01-25", "3300", "200")
	assertGain(t, cgs[4], "", "26506.25", "43493.75")

	if _, ok, err := c.Holding("X"); err != nil || ok {
		t.Errorf("Holding(X) = (ok=%v, err=%v), want no holding", ok, err)
	}
}

// The following tests follow the HMRC cryptoassets manual examples
// (CRYPTO22251 to CRYPTO22256); pooled tokens are identified exactly like
// shares.

func TestPooledCostExample(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 1, 0), "TOKEN-A", 100, 1000, 0),
		buy(at(2020, 9, 18, 0), "TOKEN-A", 50, 125000, 0),
		sell(at(2020, 12, 1, 0), "TOKEN-A", 50, 300000, 0),
	)

	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "", "42000", "258000")
	assertHolding(t, c, "TOKEN-A", "100", "84000")
}

func TestSameDayPoolingExample(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 1, 0), "TOKEN-B", 5000, 500, 0),
		sell(at(2020, 6, 23, 9), "TOKEN-B", 1000, 800, 0),
		buy(at(2020, 6, 23, 13), "TOKEN-B", 1600, 1000, 0),
		sell(at(2020, 6, 23, 19), "TOKEN-B", 500, 600, 0),
	)

	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "2020-06-23", "937.5", "462.5")
	assertHolding(t, c, "TOKEN-B", "5100", "562.5")
}

func TestThirtyDayPoolingExample(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 1, 0), "TOKEN-C", 2000, 1000, 0),
		sell(at(2020, 3, 31, 0), "TOKEN-C", 1000, 400, 0),
		sell(at(2020, 4, 20, 0), "TOKEN-C", 500, 150, 0),
		buy(at(2020, 4, 21, 0), "TOKEN-C", 700, 175, 0),
		buy(at(2020, 4, 28, 0), "TOKEN-C", 500, 100, 0),
		buy(at(2020, 5, 1, 0), "TOKEN-C", 500, 150, 0),
	)

	cgs := gains(t, c, 4)
	assertGain(t, cgs[0], "2020-04-21", "175", "105")
	assertGain(t, cgs[1], "2020-04-28", "60", "60")
	assertGain(t, cgs[2], "2020-04-28", "40", "20")
	assertGain(t, cgs[3], "2020-05-01", "90", "0")

	// The two disposals straddle the 5 April tax year boundary.
	years, err := c.DisposalYears()
	if err != nil {
		t.Fatalf("DisposalYears(): %v", err)
	}
	if len(years) != 2 || years[0] != 2019 || years[1] != 2020 {
		t.Errorf("DisposalYears() = %v, want [2019 2020]", years)
	}

	assertHolding(t, c, "TOKEN-C", "2200", "1060")
}

func TestSameDayMergeWithPoolRemainder(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 1, 0), "TOKEN-D", 8000, 1000, 0),
		sell(at(2020, 1, 31, 8), "TOKEN-D", 5000, 500, 0),
		buy(at(2020, 1, 31, 9), "TOKEN-D", 4000, 320, 0),
		buy(at(2020, 1, 31, 10), "TOKEN-D", 1000, 75, 0),
		buy(at(2020, 1, 31, 11), "TOKEN-D", 1000, 70, 0),
		sell(at(2020, 1, 31, 12), "TOKEN-D", 2000, 142, 0),
		buy(at(2020, 1, 31, 13), "TOKEN-D", 500, 35, 0),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "2020-01-31", "500", "96.14")
	assertGain(t, cgs[1], "", "62.5", "-16.64")
	assertHolding(t, c, "TOKEN-D", "7500", "937.5")
}

func TestThirtyDayRuleSpansDisposals(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 1, 0), "TOKEN-E", 14000, 200000, 0),
		sell(at(2020, 8, 30, 0), "TOKEN-E", 4000, 160000, 0),
		buy(at(2020, 9, 11, 0), "TOKEN-E", 500, 17500, 0),
	)

	cgs := gains(t, c, 2)
	assertGain(t, cgs[0], "2020-09-11", "17500", "2500")
	assertGain(t, cgs[1], "", "50000", "90000")
	assertHolding(t, c, "TOKEN-E", "10500", "150000")
}

func TestMixedIdentificationExample(t *testing.T) {
	c := newTestCalculator(t, DefaultConfig(), nil,
		buy(at(2019, 1, 1, 0), "TOKEN-F", 100000, 300000, 0),
		buy(at(2020, 7, 31, 9), "TOKEN-F", 10000, 45000, 0),
		sell(at(2020, 7, 31, 10), "TOKEN-F", 30000, 150000, 0),
		sell(at(2020, 8, 5, 0), "TOKEN-F", 20000, 100000, 0),
		buy(at(2020, 8, 6, 0), "TOKEN-F", 50000, 225000, 0),
		sell(at(2020, 8, 7, 0), "TOKEN-F", 100000, 150000, 0),
	)

	cgs := gains(t, c, 4)
	assertGain(t, cgs[0], "2020-07-31", "45000", "5000")
	assertGain(t, cgs[1], "2020-08-06", "90000", "10000")
	assertGain(t, cgs[2], "2020-08-06", "90000", "10000")
	assertGain(t, cgs[3], "", "313636.36", "-163636.36")
	assertHolding(t, c, "TOKEN-F", "10000", "31363.64")
}

func TestOrdersInForeignCurrency(t *testing.T) {
	foreign := testOrder(Acquire, at(2019, 1, 18, 0), "X", 10, 100, 0)
	foreign.Total = M(100, "USD")

	c := newTestCalculator(t, DefaultConfig(), nil, foreign)
	if _, err := c.CapitalGains(); !errors.Is(err, ErrInvariant) {
		t.Errorf("CapitalGains() error = %v, want ErrInvariant", err)
	}

	// Lenient mode drops the order instead.
	cfg := DefaultConfig()
	cfg.Strict = false
	c = newTestCalculator(t, cfg, nil, foreign)
	holdings, err := c.Holdings()
	if err != nil {
		t.Fatalf("Holdings(): %v", err)
	}
	if len(holdings) != 0 {
		t.Errorf("Holdings() = %v, want none", holdings)
	}
}

func TestExcludeFxFees(t *testing.T) {
	fxFee := func(o Order, fee float64) Order {
		m := M(fee, "GBP")
		o.Fees = Fees{Currency: "GBP", Forex: &m}
		return o
	}
	orders := []Order{
		fxFee(testOrder(Acquire, at(2019, 1, 18, 0), "X", 10, 102, 0), 2),
		fxFee(testOrder(Dispose, at(2019, 6, 1, 0), "X", 10, 149, 0), 1),
	}

	// Conversion fees allowable: cost = 102 + 1, proceeds = 150.
	c := newTestCalculator(t, DefaultConfig(), nil, orders...)
	cgs := gains(t, c, 1)
	assertGain(t, cgs[0], "", "103", "47")

	// Conversion fees excluded: cost = 100, proceeds = 150.
	cfg := DefaultConfig()
	cfg.IncludeFxFees = false
	c = newTestCalculator(t, cfg, nil, orders...)
	cgs = gains(t, c, 1)
	assertGain(t, cgs[0], "", "100", "50")
}

// TestCalculationRunsOnce checks that queries reuse the first calculation
// instead of hitting the data provider again.
func TestCalculationRunsOnce(t *testing.T) {
	h := NewHistory()
	err := h.AddOrders(
		buy(at(2019, 1, 18, 0), "X", 10, 100, 0),
		sell(at(2019, 6, 1, 0), "X", 5, 80, 0),
	)
	if err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	provider := &fakeSecurityProvider{}
	c := NewCalculator(h, NewFinancialData(provider, nil), DefaultConfig())

	for i := 0; i < 3; i++ {
		if _, err := c.CapitalGains(); err != nil {
			t.Fatalf("CapitalGains(): %v", err)
		}
		if _, err := c.Holdings(); err != nil {
			t.Fatalf("Holdings(): %v", err)
		}
	}
	if provider.infoCalls != 1 {
		t.Errorf("provider.infoCalls = %d, want 1 (one per security)", provider.infoCalls)
	}
}

func TestHoldingValue(t *testing.T) {
	provider := &fakeSecurityProvider{
		prices: map[string]Money{"X": M(2, "USD")},
	}
	rates := &fakeRateProvider{
		rates: map[string]Quantity{"USDGBP": Q(0.8)},
	}
	h := NewHistory()
	if err := h.AddOrders(buy(at(2019, 1, 18, 0), "X", 10, 100, 0)); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	c := NewCalculator(h, NewFinancialData(provider, rates), DefaultConfig())

	value, ok, err := c.HoldingValue("X")
	if err != nil || !ok {
		t.Fatalf("HoldingValue(X) = (ok=%v, err=%v), want a value", ok, err)
	}
	if got := value.Amount().String(); got != "16" {
		t.Errorf("HoldingValue(X) = %s GBP, want 16", got)
	}
	if got := value.Currency(); got != "GBP" {
		t.Errorf("HoldingValue(X) currency = %s, want GBP", got)
	}

	// Unknown security degrades to no value.
	if _, ok, err := c.HoldingValue("Y"); err != nil || ok {
		t.Errorf("HoldingValue(Y) = (ok=%v, err=%v), want no value", ok, err)
	}
}
