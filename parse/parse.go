// Package parse reads broker account statements into the transaction model.
//
// Each supported broker has a parser that recognizes its CSV export by the
// header row. ForFile picks the right parser for a statement file; parsers
// register themselves at init time.
package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ukshares/cgt"
)

// ErrUnrecognizedFormat is returned by ForFile when no registered parser
// recognizes the statement's header row.
var ErrUnrecognizedFormat = errors.New("unrecognized statement format")

// Config controls how parsers treat rows they cannot make sense of.
type Config struct {
	// Strict aborts the parse on the first bad row. When false, bad rows
	// are logged and skipped.
	Strict bool
}

// DefaultConfig returns the configuration parsers use unless told otherwise.
func DefaultConfig() Config { return Config{Strict: true} }

// Result holds everything a parser extracted from one statement file.
type Result struct {
	Orders    []cgt.Order
	Dividends []cgt.Dividend
	Transfers []cgt.Transfer
	Interest  []cgt.Interest
}

// Add copies every transaction in the result into the history.
func (r *Result) Add(h *cgt.History) error {
	if err := h.AddOrders(r.Orders...); err != nil {
		return err
	}
	h.AddDividends(r.Dividends...)
	h.AddTransfers(r.Transfers...)
	h.AddInterest(r.Interest...)
	return nil
}

// A Parser reads one broker's statement format.
type Parser interface {
	// Name identifies the broker.
	Name() string
	// CanParse reports whether a statement with this header row belongs to
	// the parser's format.
	CanParse(header []string) bool
	// Parse reads the whole statement file.
	Parse(path string, cfg Config) (*Result, error)
}

var parsers []Parser

// Register adds a parser to the set ForFile considers. Earlier registrations
// win when more than one parser recognizes a file.
func Register(p Parser) { parsers = append(parsers, p) }

// ForFile returns the parser that recognizes the file's header row.
func ForFile(path string) (Parser, error) {
	header, err := readHeader(path)
	if err != nil {
		return nil, err
	}
	for _, p := range parsers {
		if p.CanParse(header) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnrecognizedFormat)
}

// File parses a statement with whichever parser recognizes it.
func File(path string, cfg Config) (*Result, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(path, cfg)
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return header, nil
}

// record is one CSV row with access to fields by column name.
type record struct {
	file   string
	line   int
	fields map[string]string
}

func (r record) get(name string) string { return r.fields[name] }

// decimal returns the named field as a number, or zero when it is empty.
func (r record) decimal(name string) (decimal.Decimal, error) {
	s := r.get(name)
	if s == "" {
		return decimal.Decimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, r.errorf("bad value %q for %q", s, name)
	}
	return d, nil
}

func (r record) errorf(format string, args ...any) error {
	return fmt.Errorf("%s: row %d: %s", r.file, r.line, fmt.Sprintf(format, args...))
}

// forEachRow streams the statement's data rows to fn as name-addressable
// records.
func forEachRow(path string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file := filepath.Base(path)
	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				fields[name] = row[i]
			}
		}
		if err := fn(record{file: file, line: line, fields: fields}); err != nil {
			return err
		}
	}
}

// badRow applies the strict or lenient policy to a row error: strict parses
// fail, lenient parses log the problem and move on.
func badRow(cfg Config, err error) error {
	if cfg.Strict {
		return err
	}
	log.Printf("warning: skipping row: %v", err)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp reads the broker's timestamp formats. Timestamps without an
// offset are taken as UTC.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

// pennyTolerance is how far a recomputed amount may drift from the amount the
// broker reported before the row is rejected.
var pennyTolerance = decimal.New(1, -2)
