package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt/renderer"
)

type interestCmd struct {
	taxYear string
}

func (*interestCmd) Name() string     { return "interest" }
func (*interestCmd) Synopsis() string { return "show interest paid on cash" }
func (*interestCmd) Usage() string {
	return `cgtcalc interest [-tax-year <year>] <statement>...

  Shows every interest payment parsed from the statement files, grouped by
  tax year.
`
}

func (c *interestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.taxYear, "tax-year", "", "Only show the given tax year (by its starting calendar year)")
}

func (c *interestCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filters, err := historyFilters(c.taxYear, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	history, err := loadHistory(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Interest(history, filters...))
	return subcommands.ExitSuccess
}
