package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt/renderer"
)

type holdingsCmd struct {
	ticker      string
	showAvgCost bool
	showValue   bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show the Section 104 holdings" }
func (*holdingsCmd) Usage() string {
	return `cgtcalc holdings [-ticker <ticker>] [-show-avg-cost] [-show-value] <statement>...

  Shows the open Section 104 holdings with their pooled cost. With
  -show-value, each holding is priced with current market data.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Only show the given security")
	f.BoolVar(&c.showAvgCost, "show-avg-cost", false, "Add the pool cost per share")
	f.BoolVar(&c.showValue, "show-value", false, "Add current value, unrealized gain and weight columns")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	history, err := loadHistory(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	calc, err := newCalculator(history)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	report, err := renderer.Holdings(calc, history, renderer.HoldingsOptions{
		Ticker:      c.ticker,
		ShowAvgCost: c.showAvgCost,
		ShowValue:   c.showValue,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(report)
	return subcommands.ExitSuccess
}
