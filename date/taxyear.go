package date

import "time"

// The UK tax year runs from 6 April to 5 April of the following calendar
// year.
const (
	taxYearStartMonth = time.April
	taxYearStartDay   = 6
)

// TaxYear identifies a UK tax year by the calendar year in which it starts:
// TaxYear(2023) is 6 April 2023 to 5 April 2024.
type TaxYear int

// TaxYearOf returns the tax year the given date falls in.
func TaxYearOf(d Date) TaxYear {
	if d.Before(New(d.Year(), taxYearStartMonth, taxYearStartDay)) {
		return TaxYear(d.Year() - 1)
	}
	return TaxYear(d.Year())
}

// Start returns the first day of the tax year (6 April).
func (y TaxYear) Start() Date { return New(int(y), taxYearStartMonth, taxYearStartDay) }

// End returns the last day of the tax year (5 April of the following year).
func (y TaxYear) End() Date { return New(int(y)+1, taxYearStartMonth, taxYearStartDay-1) }

// Contains reports whether d falls within the tax year.
func (y TaxYear) Contains(d Date) bool { return TaxYearOf(d) == y }

// String formats the tax year in its usual short form, e.g. "2023/24".
func (y TaxYear) String() string {
	return y.Start().time().Format("2006") + "/" + y.End().time().Format("06")
}
