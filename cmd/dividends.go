package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt/renderer"
)

type dividendsCmd struct {
	taxYear string
	ticker  string
}

func (*dividendsCmd) Name() string     { return "dividends" }
func (*dividendsCmd) Synopsis() string { return "show dividends paid out" }
func (*dividendsCmd) Usage() string {
	return `cgtcalc dividends [-tax-year <year>] [-ticker <ticker>] <statement>...

  Shows every dividend parsed from the statement files, grouped by tax year.
`
}

func (c *dividendsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.taxYear, "tax-year", "", "Only show the given tax year (by its starting calendar year)")
	f.StringVar(&c.ticker, "ticker", "", "Only show the given security")
}

func (c *dividendsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filters, err := historyFilters(c.taxYear, c.ticker)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	history, err := loadHistory(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Dividends(history, filters...))
	return subcommands.ExitSuccess
}
