// Package cgt computes UK capital gains tax figures for share disposals.
//
// It implements the HMRC share identification rules: shares disposed of are
// matched first against acquisitions of the same day, then against
// acquisitions made in the 30 days following the disposal (the bed and
// breakfast rule), and finally against the Section 104 holding, a pooled
// holding carried at average cost.
//
// The core functionalities include:
//   - Transaction History: a repository of orders, dividends, transfers and
//     interest parsed from broker statements, deduplicated and ordered.
//   - Tax Engine: a calculator that normalizes orders (share splits,
//     conversion fee policy), applies the identification rules and reports
//     capital gain events per tax year along with the remaining holdings.
//   - Market Data Integration: a provider seam for security reference data
//     (split histories), prices and exchange rates, used for order
//     normalization and holding valuation and never required for gains.
//
// This package serves as the foundational logic for the `cgtcalc`
// command-line tool.
package cgt
