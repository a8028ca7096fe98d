package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt/renderer"
)

type transfersCmd struct {
	taxYear string
}

func (*transfersCmd) Name() string     { return "transfers" }
func (*transfersCmd) Synopsis() string { return "show cash deposits and withdrawals" }
func (*transfersCmd) Usage() string {
	return `cgtcalc transfers [-tax-year <year>] <statement>...

  Shows every cash movement parsed from the statement files, grouped by
  tax year.
`
}

func (c *transfersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.taxYear, "tax-year", "", "Only show the given tax year (by its starting calendar year)")
}

func (c *transfersCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	printMarkdown(renderer.Transfers(history, filters...))
	return subcommands.ExitSuccess
}
