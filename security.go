package cgt

import "time"

// Security identifies a listed security as seen in the transaction history.
type Security struct {
	ISIN string
	Name string
}

// Split is a share split (or consolidation, when the ratio is below one).
type Split struct {
	// EffectiveAt is the instant the split took effect. Orders placed
	// before it are held in pre-split shares.
	EffectiveAt time.Time
	// Ratio is the number of post-split shares per pre-split share.
	Ratio Quantity
}

// SecurityInfo is the reference data a provider knows about a security.
type SecurityInfo struct {
	Name   string
	Splits []Split
}
