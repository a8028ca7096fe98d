package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ukshares/cgt"
	"github.com/ukshares/cgt/date"
)

// GainsOptions narrows a capital gains report.
type GainsOptions struct {
	// TaxYear limits the report to one tax year. Zero reports every year
	// with a disposal.
	TaxYear date.TaxYear
	// Ticker limits the report to one security.
	Ticker string
	// OnlyGains and OnlyLosses keep only the disposals that realized a
	// gain, respectively a loss. At most one may be set.
	OnlyGains  bool
	OnlyLosses bool
}

// Summary aggregates the disposals of one tax year the way the tax return
// asks for them.
type Summary struct {
	Disposals int
	Proceeds  cgt.Money
	Cost      cgt.Money
	Gains     cgt.Money
	Losses    cgt.Money
}

// Net returns the net gain or loss of the year.
func (s Summary) Net() cgt.Money { return s.Gains.Sub(s.Losses) }

// CapitalGains renders a capital gains tax report: per tax year, a table of
// disposal events followed by the year's summary. It returns "" when no
// disposal passes the options.
func CapitalGains(c *cgt.Calculator, opts GainsOptions) (string, error) {
	if opts.OnlyGains && opts.OnlyLosses {
		return "", fmt.Errorf("cannot report only gains and only losses at once")
	}

	years, err := c.DisposalYears()
	if err != nil {
		return "", err
	}
	if opts.TaxYear != 0 {
		years = []date.TaxYear{opts.TaxYear}
	}

	var b strings.Builder
	for _, year := range years {
		gains, err := c.CapitalGainsIn(year)
		if err != nil {
			return "", err
		}

		var rows []cgt.CapitalGain
		for _, cg := range gains {
			if opts.Ticker != "" && cg.Disposal.Ticker != opts.Ticker {
				continue
			}
			if opts.OnlyGains && cg.GainLoss().IsNegative() {
				continue
			}
			if opts.OnlyLosses && cg.GainLoss().IsPositive() {
				continue
			}
			rows = append(rows, cg)
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&b, "# Capital Gains Tax Report %s\n\n", year)
		fmt.Fprintf(&b, "From %s to %s\n\n", year.Start(), year.End())
		fmt.Fprintln(&b, "| Disposal Date | Identification | Security | ISIN | Quantity | Cost | Proceeds | Gain/Loss |")
		fmt.Fprintln(&b, "|:---|:---|:---|:---|---:|---:|---:|---:|")

		// Seed the sums with the disposals' currency so zero amounts still
		// print as money.
		zero := cgt.M(0, rows[0].Disposal.Total.Currency())
		summary := Summary{Proceeds: zero, Cost: zero, Gains: zero, Losses: zero}
		for _, cg := range rows {
			proceeds := cg.Disposal.GrossProceeds().Round()
			cost := cg.Cost.Round()

			summary.Disposals++
			summary.Proceeds = summary.Proceeds.Add(proceeds)
			summary.Cost = summary.Cost.Add(cost)
			if cg.GainLoss().IsNegative() {
				summary.Losses = summary.Losses.Add(cg.GainLoss().Abs())
			} else {
				summary.Gains = summary.Gains.Add(cg.GainLoss())
			}

			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				cg.Disposal.Date(), cg.Identification(), cg.Disposal.Name, cg.Disposal.ISIN,
				cg.Quantity(), cost, proceeds, cg.GainLoss().Round().SignedString())
		}

		fmt.Fprint(&b, "\n")
		fmt.Fprintln(&b, "| Summary | |")
		fmt.Fprintln(&b, "|:---|---:|")
		fmt.Fprintf(&b, "| Number of disposals | %d |\n", summary.Disposals)
		fmt.Fprintf(&b, "| Disposal proceeds | %s |\n", summary.Proceeds.Round())
		fmt.Fprintf(&b, "| Allowable costs (incl. purchase price) | %s |\n", summary.Cost.Round())
		fmt.Fprintf(&b, "| Gains in the year, before losses | %s |\n", summary.Gains.Round())
		fmt.Fprintf(&b, "| Losses in the year | %s |\n", summary.Losses.Round())
		fmt.Fprintf(&b, "| Net gain or loss | %s |\n\n", summary.Net().Round().SignedString())
	}
	return b.String(), nil
}

// HoldingsOptions narrows a holdings report.
type HoldingsOptions struct {
	// Ticker limits the report to one security.
	Ticker string
	// ShowAvgCost adds the pool cost per share.
	ShowAvgCost bool
	// ShowValue adds current value, unrealized gain and portfolio weight
	// columns, priced with market data.
	ShowValue bool
}

// Holdings renders the open Section 104 holdings, largest cost first.
func Holdings(c *cgt.Calculator, h *cgt.History, opts HoldingsOptions) (string, error) {
	holdings, err := c.Holdings()
	if err != nil {
		return "", err
	}

	if opts.Ticker != "" {
		isin, err := h.TickerISIN(opts.Ticker)
		if err != nil {
			return "", err
		}
		kept := holdings[:0]
		for _, holding := range holdings {
			if holding.ISIN == isin {
				kept = append(kept, holding)
			}
		}
		holdings = kept
	}
	if len(holdings) == 0 {
		return "", nil
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[j].Cost.LessThan(holdings[i].Cost)
	})

	values := make(map[string]cgt.Money)
	var portfolio cgt.Money
	if opts.ShowValue {
		for _, holding := range holdings {
			if value, ok, err := c.HoldingValue(holding.ISIN); err != nil {
				return "", err
			} else if ok {
				values[holding.ISIN] = value
				portfolio = portfolio.Add(value)
			}
		}
	}

	header := []string{"Security", "ISIN", "Cost", "Quantity"}
	align := []string{":---", ":---", "---:", "---:"}
	if opts.ShowAvgCost {
		header = append(header, "Avg Cost")
		align = append(align, "---:")
	}
	if opts.ShowValue {
		header = append(header, "Current Value", "Gain/Loss", "Weight (%)")
		align = append(align, "---:", "---:", "---:")
	}

	var b strings.Builder
	fmt.Fprint(&b, "# Holdings\n\n")
	fmt.Fprintf(&b, "| %s |\n", strings.Join(header, " | "))
	fmt.Fprintf(&b, "|%s|\n", strings.Join(align, "|"))

	for _, holding := range holdings {
		row := []string{
			h.SecurityName(holding.ISIN),
			holding.ISIN,
			holding.Cost.Round().String(),
			holding.Quantity.String(),
		}
		if opts.ShowAvgCost {
			row = append(row, holding.AverageCost().Round().String())
		}
		if opts.ShowValue {
			valueCell, gainCell, weightCell := "n/a", "n/a", "n/a"
			if value, ok := values[holding.ISIN]; ok {
				valueCell = value.Round().String()
				gainCell = value.Sub(holding.Cost).Round().SignedString()
				weight := value.Amount().Div(portfolio.Amount()).Mul(decimal.New(100, 0))
				weightCell = weight.StringFixed(2)
			}
			row = append(row, valueCell, gainCell, weightCell)
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(row, " | "))
	}
	fmt.Fprint(&b, "\n")
	return b.String(), nil
}
