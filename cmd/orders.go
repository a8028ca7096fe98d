package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt/renderer"
)

type ordersCmd struct {
	taxYear string
	ticker  string
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "show share buy and sell orders" }
func (*ordersCmd) Usage() string {
	return `cgtcalc orders [-tax-year <year>] [-ticker <ticker>] <statement>...

  Shows every order parsed from the statement files, grouped by tax year.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.taxYear, "tax-year", "", "Only show the given tax year (by its starting calendar year)")
	f.StringVar(&c.ticker, "ticker", "", "Only show the given security")
}

func (c *ordersCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	printMarkdown(renderer.Orders(history, filters...))
	return subcommands.ExitSuccess
}
