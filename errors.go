package cgt

import "errors"

// Sentinel errors for the conditions callers need to tell apart with
// errors.Is. Errors returned by this package wrap one of these where it
// applies.
var (
	// ErrIncompleteRecords marks a disposal that cannot be matched against
	// any acquired shares: the transaction history is missing records.
	ErrIncompleteRecords = errors.New("incomplete records")

	// ErrInvariant marks an internal consistency violation in the input
	// data, such as an order denominated in an unexpected currency.
	ErrInvariant = errors.New("invariant violation")

	// ErrAmbiguousTicker marks a ticker that maps to more than one ISIN in
	// the transaction history.
	ErrAmbiguousTicker = errors.New("ambiguous ticker")
)
