package cgt

import (
	"errors"
	"testing"
)

func TestHistoryDeduplicates(t *testing.T) {
	h := NewHistory()
	o := buy(at(2019, 1, 18, 0), "X", 10, 100, 0)
	if err := h.AddOrders(o, o); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	if err := h.AddOrders(o); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	if got := len(h.Orders()); got != 1 {
		t.Errorf("Orders() has %d orders, want 1", got)
	}

	d := Dividend{Tx: Tx{Timestamp: at(2019, 2, 1, 0), ISIN: "X", Total: M(5, "GBP")}}
	h.AddDividends(d, d)
	if got := len(h.Dividends()); got != 1 {
		t.Errorf("Dividends() has %d records, want 1", got)
	}
}

func TestHistorySortsByTimestamp(t *testing.T) {
	h := NewHistory()
	err := h.AddOrders(
		buy(at(2020, 3, 1, 0), "X", 1, 10, 0),
		buy(at(2019, 1, 18, 0), "X", 1, 10, 0),
		buy(at(2019, 6, 1, 0), "Y", 1, 10, 0),
	)
	if err != nil {
		t.Fatalf("AddOrders: %v", err)
	}

	orders := h.Orders()
	for i := 1; i < len(orders); i++ {
		if orders[i].Timestamp.Before(orders[i-1].Timestamp) {
			t.Errorf("Orders() out of order at %d: %v before %v", i, orders[i].Timestamp, orders[i-1].Timestamp)
		}
	}
}

func TestHistoryAssignsSequenceNumbers(t *testing.T) {
	h := NewHistory()
	err := h.AddOrders(
		buy(at(2020, 3, 1, 0), "X", 1, 10, 0),
		buy(at(2019, 1, 18, 0), "X", 1, 20, 0),
	)
	if err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	h.AddTransfers(Transfer{Tx: Tx{Timestamp: at(2019, 1, 1, 0), Total: M(1000, "GBP")}})

	orders := h.Orders()
	// Sequence numbers follow insertion order, not timestamp order.
	if orders[0].Seq != 2 || orders[1].Seq != 1 {
		t.Errorf("Seq = %d,%d, want 2,1", orders[0].Seq, orders[1].Seq)
	}
	if got := h.Transfers()[0].Seq; got != 3 {
		t.Errorf("transfer Seq = %d, want 3", got)
	}
}

func TestHistoryRejectsInvalidOrder(t *testing.T) {
	h := NewHistory()
	err := h.AddOrders(buy(at(2007, 1, 1, 0), "X", 1, 10, 0))
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("AddOrders error = %v, want ErrInvariant", err)
	}
}

func TestHistorySecurities(t *testing.T) {
	h := NewHistory()
	orders := []Order{
		buy(at(2019, 1, 18, 0), "ISIN-B", 1, 10, 0),
		buy(at(2019, 1, 19, 0), "ISIN-A", 1, 10, 0),
		buy(at(2019, 1, 20, 0), "ISIN-B", 1, 10, 0),
	}
	orders[0].Name, orders[0].Ticker = "Beta", "BET"
	orders[1].Name, orders[1].Ticker = "Alpha", "ALP"
	orders[2].Name, orders[2].Ticker = "Beta", "BET"
	if err := h.AddOrders(orders...); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}

	securities := h.Securities()
	if len(securities) != 2 {
		t.Fatalf("Securities() has %d entries, want 2", len(securities))
	}
	if securities[0].Name != "Alpha" || securities[1].Name != "Beta" {
		t.Errorf("Securities() = %v, want sorted by name", securities)
	}

	if got := h.SecurityName("ISIN-A"); got != "Alpha" {
		t.Errorf("SecurityName(ISIN-A) = %q, want Alpha", got)
	}
	if got := h.SecurityName("ISIN-Z"); got != "" {
		t.Errorf("SecurityName(ISIN-Z) = %q, want empty", got)
	}
}

func TestHistoryTickerISIN(t *testing.T) {
	h := NewHistory()
	orders := []Order{
		buy(at(2019, 1, 18, 0), "ISIN-A", 1, 10, 0),
		buy(at(2019, 1, 19, 0), "ISIN-B", 1, 10, 0),
	}
	orders[0].Ticker = "SAME"
	orders[1].Ticker = "SAME"
	if err := h.AddOrders(orders...); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}

	if _, err := h.TickerISIN("SAME"); !errors.Is(err, ErrAmbiguousTicker) {
		t.Errorf("TickerISIN(SAME) error = %v, want ErrAmbiguousTicker", err)
	}
	if isin, err := h.TickerISIN("NOPE"); err != nil || isin != "" {
		t.Errorf("TickerISIN(NOPE) = (%q, %v), want empty", isin, err)
	}

	h2 := NewHistory()
	if err := h2.AddOrders(buy(at(2019, 1, 18, 0), "ISIN-A", 1, 10, 0)); err != nil {
		t.Fatalf("AddOrders: %v", err)
	}
	if isin, err := h2.TickerISIN("ISIN-A"); err != nil || isin != "ISIN-A" {
		t.Errorf("TickerISIN = (%q, %v), want ISIN-A", isin, err)
	}
}
