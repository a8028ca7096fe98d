package cgt

import (
	"time"

	"github.com/ukshares/cgt/date"
)

// Tx holds the fields shared by every transaction kind. Transactions are
// value objects: derivations return new values and never mutate.
type Tx struct {
	// Seq is assigned by the History that owns the transaction, in
	// insertion order. It identifies a record in provenance notes and is
	// ignored by equality.
	Seq       int
	Timestamp time.Time
	ISIN      string
	Ticker    string
	Name      string
	Total     Money
	Notes     string
}

// Date returns the calendar day of the transaction, in UTC.
func (t Tx) Date() date.Date { return date.Of(t.Timestamp) }

// TaxYear returns the UK tax year the transaction falls in.
func (t Tx) TaxYear() date.TaxYear { return date.TaxYearOf(t.Date()) }

// equal ignores Seq and Notes, which carry provenance rather than substance.
func (t Tx) equal(u Tx) bool {
	return t.Timestamp.Equal(u.Timestamp) &&
		t.ISIN == u.ISIN &&
		t.Ticker == u.Ticker &&
		t.Name == u.Name &&
		t.Total.Equal(u.Total)
}

// Dividend is a dividend payment, with the tax withheld at source when the
// broker reports it.
type Dividend struct {
	Tx
	Withheld *Money
}

// Equal reports whether two dividends describe the same payment.
func (d Dividend) Equal(e Dividend) bool {
	return d.Tx.equal(e.Tx) && eqOpt(d.Withheld, e.Withheld)
}

// Transfer is a cash movement in or out of the account. Total is positive
// for a deposit and negative for a withdrawal.
type Transfer struct {
	Tx
}

// Equal reports whether two transfers describe the same cash movement.
func (t Transfer) Equal(u Transfer) bool { return t.Tx.equal(u.Tx) }

// Interest is interest paid on cash held in the account.
type Interest struct {
	Tx
}

// Equal reports whether two interest records describe the same payment.
func (i Interest) Equal(j Interest) bool { return i.Tx.equal(j.Tx) }
