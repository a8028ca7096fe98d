package date

import (
	"testing"
	"time"
)

func TestTaxYearOf(t *testing.T) {
	cases := []struct {
		on   Date
		want TaxYear
	}{
		{New(2024, time.April, 5), 2023},  // last day of 2023/24
		{New(2024, time.April, 6), 2024},  // first day of 2024/25
		{New(2024, time.December, 31), 2024},
		{New(2025, time.January, 1), 2024},
	}
	for _, c := range cases {
		if got := TaxYearOf(c.on); got != c.want {
			t.Errorf("TaxYearOf(%v) = %v, want %v", c.on, got, c.want)
		}
	}
}

func TestTaxYearBounds(t *testing.T) {
	y := TaxYear(2023)
	if got, want := y.Start(), New(2023, time.April, 6); got != want {
		t.Errorf("Start() = %v, want %v", got, want)
	}
	if got, want := y.End(), New(2024, time.April, 5); got != want {
		t.Errorf("End() = %v, want %v", got, want)
	}
	if !y.Contains(New(2023, time.August, 1)) {
		t.Errorf("Contains(2023-08-01) = false, want true")
	}
	if y.Contains(New(2024, time.April, 6)) {
		t.Errorf("Contains(2024-04-06) = true, want false")
	}
}

func TestTaxYearString(t *testing.T) {
	if got, want := TaxYear(2023).String(), "2023/24"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := TaxYear(2019).String(), "2019/20"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
