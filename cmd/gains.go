package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt/renderer"
)

type gainsCmd struct {
	taxYear string
	ticker  string
	gains   bool
	losses  bool
}

func (*gainsCmd) Name() string     { return "capital-gains" }
func (*gainsCmd) Synopsis() string { return "show capital gains per tax year" }
func (*gainsCmd) Usage() string {
	return `cgtcalc capital-gains [-tax-year <year>] [-ticker <ticker>] [-gains|-losses] <statement>...

  Calculates the capital gains tax report: every disposal identified under
  the same-day rule, the 30-day rule or against the Section 104 holding,
  with a per-year summary.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.taxYear, "tax-year", "", "Only report the given tax year (by its starting calendar year)")
	f.StringVar(&c.ticker, "ticker", "", "Only report disposals of the given security")
	f.BoolVar(&c.gains, "gains", false, "Only report disposals that realized a gain")
	f.BoolVar(&c.losses, "losses", false, "Only report disposals that realized a loss")
}

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.gains && c.losses {
		fmt.Fprintln(os.Stderr, "-gains and -losses flags cannot be used together")
		return subcommands.ExitUsageError
	}
	year, err := taxYearFlag(c.taxYear)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

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

	report, err := renderer.CapitalGains(calc, renderer.GainsOptions{
		TaxYear:    year,
		Ticker:     c.ticker,
		OnlyGains:  c.gains,
		OnlyLosses: c.losses,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(report)
	return subcommands.ExitSuccess
}
