package renderer

import (
	"fmt"
	"strings"

	"github.com/ukshares/cgt"
)

// Orders renders the order history as one markdown table per tax year, with
// cost, proceeds and fee totals. It returns "" when no order passes the
// filters.
func Orders(h *cgt.History, filters ...Filter) string {
	var orders []cgt.Order
	for _, o := range h.Orders() {
		if keep(o.Tx, filters) {
			orders = append(orders, o)
		}
	}
	if len(orders) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprint(&b, "# Orders\n\n")

	years, groups := groupByTaxYear(orders, func(o cgt.Order) cgt.Tx { return o.Tx })
	for _, year := range years {
		fmt.Fprintf(&b, "## Tax year %s\n\n", year)
		fmt.Fprintln(&b, "| Date | Security | ISIN | Ticker | Cost | Proceeds | Quantity | Price | Fees |")
		fmt.Fprintln(&b, "|:---|:---|:---|:---|---:|---:|---:|---:|---:|")

		var cost, proceeds, fees cgt.Money
		for _, o := range groups[year] {
			var costCell, proceedsCell string
			switch o.Side {
			case cgt.Acquire:
				costCell = cell(o.TotalCost())
				cost = cost.Add(o.TotalCost())
			case cgt.Dispose:
				proceedsCell = cell(o.NetProceeds())
				proceeds = proceeds.Add(o.NetProceeds())
			}
			fees = fees.Add(o.Fees.Total())

			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				o.Date(), o.Name, o.ISIN, o.Ticker,
				costCell, proceedsCell, o.Quantity, o.Price.Round(), cell(o.Fees.Total()))
		}
		fmt.Fprintf(&b, "| **Total** | | | | %s | %s | | | %s |\n\n",
			bold(cell(cost)), bold(cell(proceeds)), bold(cell(fees)))
	}
	return b.String()
}

// Dividends renders the dividend history as one markdown table per tax year.
func Dividends(h *cgt.History, filters ...Filter) string {
	var dividends []cgt.Dividend
	for _, d := range h.Dividends() {
		if keep(d.Tx, filters) {
			dividends = append(dividends, d)
		}
	}
	if len(dividends) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprint(&b, "# Dividends\n\n")

	years, groups := groupByTaxYear(dividends, func(d cgt.Dividend) cgt.Tx { return d.Tx })
	for _, year := range years {
		fmt.Fprintf(&b, "## Tax year %s\n\n", year)
		fmt.Fprintln(&b, "| Date | Security | ISIN | Ticker | Net Amount | Withheld Amount |")
		fmt.Fprintln(&b, "|:---|:---|:---|:---|---:|---:|")

		var net, withheld cgt.Money
		for _, d := range groups[year] {
			net = net.Add(d.Total)
			var withheldCell string
			if d.Withheld != nil {
				withheld = withheld.Add(*d.Withheld)
				withheldCell = d.Withheld.Round().String()
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				d.Date(), d.Name, d.ISIN, d.Ticker, d.Total.Round(), withheldCell)
		}
		fmt.Fprintf(&b, "| **Total** | | | | %s | %s |\n\n", bold(cell(net)), bold(cell(withheld)))
	}
	return b.String()
}

// Transfers renders the cash movement history as one markdown table per tax
// year, with deposits and withdrawals in separate columns.
func Transfers(h *cgt.History, filters ...Filter) string {
	var transfers []cgt.Transfer
	for _, t := range h.Transfers() {
		if keep(t.Tx, filters) {
			transfers = append(transfers, t)
		}
	}
	if len(transfers) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprint(&b, "# Transfers\n\n")

	years, groups := groupByTaxYear(transfers, func(t cgt.Transfer) cgt.Tx { return t.Tx })
	for _, year := range years {
		fmt.Fprintf(&b, "## Tax year %s\n\n", year)
		fmt.Fprintln(&b, "| Date | Deposit | Withdrawal |")
		fmt.Fprintln(&b, "|:---|---:|---:|")

		var deposited, withdrawn cgt.Money
		for _, t := range groups[year] {
			var depositCell, withdrawalCell string
			if t.Total.IsNegative() {
				withdrawalCell = t.Total.Abs().Round().String()
				withdrawn = withdrawn.Add(t.Total.Abs())
			} else {
				depositCell = t.Total.Round().String()
				deposited = deposited.Add(t.Total)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", t.Date(), depositCell, withdrawalCell)
		}
		fmt.Fprintf(&b, "| **Total** | %s | %s |\n\n", bold(cell(deposited)), bold(cell(withdrawn)))
	}
	return b.String()
}

// Interest renders the interest history as one markdown table per tax year.
func Interest(h *cgt.History, filters ...Filter) string {
	var interest []cgt.Interest
	for _, i := range h.Interest() {
		if keep(i.Tx, filters) {
			interest = append(interest, i)
		}
	}
	if len(interest) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprint(&b, "# Interest\n\n")

	years, groups := groupByTaxYear(interest, func(i cgt.Interest) cgt.Tx { return i.Tx })
	for _, year := range years {
		fmt.Fprintf(&b, "## Tax year %s\n\n", year)
		fmt.Fprintln(&b, "| Date | Amount |")
		fmt.Fprintln(&b, "|:---|---:|")

		var total cgt.Money
		for _, i := range groups[year] {
			total = total.Add(i.Total)
			fmt.Fprintf(&b, "| %s | %s |\n", i.Date(), i.Total.Round())
		}
		fmt.Fprintf(&b, "| **Total** | %s |\n\n", bold(cell(total)))
	}
	return b.String()
}
