// Package cmd implements the CLI application to report UK capital gains tax
// from broker account statements.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/subcommands"

	"github.com/ukshares/cgt"
	"github.com/ukshares/cgt/date"
	"github.com/ukshares/cgt/parse"
	"github.com/ukshares/cgt/renderer"
	"github.com/ukshares/cgt/yahoo"
)

// Commands lists the subcommands for the main package to register.
var Commands = []subcommands.Command{
	&ordersCmd{},
	&dividendsCmd{},
	&transfersCmd{},
	&interestCmd{},
	&gainsCmd{},
	&holdingsCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var noStrict = flag.Bool("no-strict", false, "Tolerate problems in the records: skip what cannot be used instead of failing")
var excludeFxFees = flag.Bool("exclude-fx-fees", false, "Do not count currency conversion fees as an allowable cost")
var quiet = flag.Bool("quiet", false, "Suppress log output")
var cachePath = flag.String("cache", defaultCachePath(), "Path to the market data cache file")

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cgtcalc", "securities.yaml")
}

// Setup applies the global flags. Main calls it after flag.Parse.
func Setup() {
	if *quiet {
		log.SetOutput(io.Discard)
	}
}

// loadHistory parses every statement file into one transaction history.
func loadHistory(files []string) (*cgt.History, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no statement files given")
	}
	history := cgt.NewHistory()
	for _, path := range files {
		parser, err := parse.ForFile(path)
		if err != nil {
			return nil, err
		}
		log.Printf("parsing %s as a %s statement", path, parser.Name())
		result, err := parser.Parse(path, parse.Config{Strict: !*noStrict})
		if err != nil {
			return nil, err
		}
		if err := result.Add(history); err != nil {
			return nil, err
		}
	}
	return history, nil
}

// newCalculator builds the tax engine over the history, with market data from
// Yahoo Finance.
func newCalculator(history *cgt.History) (*cgt.Calculator, error) {
	if *cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(*cachePath), 0o755); err != nil {
			return nil, err
		}
	}
	provider, err := yahoo.NewProvider(*cachePath)
	if err != nil {
		return nil, err
	}
	cfg := cgt.DefaultConfig()
	cfg.Strict = !*noStrict
	cfg.IncludeFxFees = !*excludeFxFees
	return cgt.NewCalculator(history, cgt.NewFinancialData(provider, provider), cfg), nil
}

// taxYearFlag parses a -tax-year value like "2021" (the 2021/22 tax year).
// Zero means every year.
func taxYearFlag(s string) (date.TaxYear, error) {
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad tax year %q: want the starting calendar year, like 2021", s)
	}
	return date.TaxYear(year), nil
}

// historyFilters builds the report filters shared by the history subcommands.
func historyFilters(taxYear, ticker string) ([]renderer.Filter, error) {
	var filters []renderer.Filter
	year, err := taxYearFlag(taxYear)
	if err != nil {
		return nil, err
	}
	if year != 0 {
		filters = append(filters, renderer.ByTaxYear(year))
	}
	if ticker != "" {
		filters = append(filters, renderer.ByTicker(ticker))
	}
	return filters, nil
}
