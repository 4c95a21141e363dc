package pricing

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func TestParseYearLabelVariants(t *testing.T) {
	cases := []struct {
		raw  string
		want YearLabel
	}{
		{"2025", "2025"},
		{" 2025 ", "2025"},
		{"2025.0", "2025"},
		{"2025,0", "2025"},
		{"", "2026"},
		{"abc", "2026"},
		{"2025.5", "2026"},
		{"99", "2026"},
		{"12345", "2026"},
	}
	for _, tc := range cases {
		if got := ParseYearLabel(tc.raw, testNow); got != tc.want {
			t.Fatalf("ParseYearLabel(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolveTariffsYearVariantsCollide(t *testing.T) {
	raws := []RawTariff{
		{MonthLabel: "Marzo", YearLabel: "2025", Price: "0.20"},
		{MonthLabel: "Marzo", YearLabel: "2025.0", Price: "0.25"},
	}
	tariffs := ResolveTariffs(raws, testNow)
	if len(tariffs) != 1 {
		t.Fatalf("len = %d, want 1", len(tariffs))
	}
	key := TariffKey{MonthLabel: "Marzo", YearLabel: "2025"}
	if tariffs[key] != 0.25 {
		t.Fatalf("price = %v, want 0.25 (last row wins)", tariffs[key])
	}
}

func TestResolveTariffsSkipsBadRows(t *testing.T) {
	raws := []RawTariff{
		{MonthLabel: "Smarch", YearLabel: "2025", Price: "0.20"},
		{MonthLabel: "Aprile", YearLabel: "2025", Price: "free"},
		{MonthLabel: "Aprile", YearLabel: "2025", Price: "-0.10"},
		{MonthLabel: "Maggio", YearLabel: "2025", Price: "0,22"},
	}
	tariffs := ResolveTariffs(raws, testNow)
	if len(tariffs) != 1 {
		t.Fatalf("len = %d, want 1", len(tariffs))
	}
	key := TariffKey{MonthLabel: "Maggio", YearLabel: "2025"}
	if tariffs[key] != 0.22 {
		t.Fatalf("price = %v, want 0.22", tariffs[key])
	}
}

func TestResolveTariffsEmptyInput(t *testing.T) {
	if tariffs := ResolveTariffs(nil, testNow); len(tariffs) != 0 {
		t.Fatalf("empty input resolved to %d entries", len(tariffs))
	}
}

func TestResolveFuelPricesLastWins(t *testing.T) {
	raws := []RawFuelPrice{
		{YearLabel: "2025", Price: "1.75"},
		{YearLabel: "2025,0", Price: "1,80"},
		{YearLabel: "", Price: "1.90"},
	}
	prices := ResolveFuelPrices(raws, testNow)
	if prices["2025"] != 1.80 {
		t.Fatalf("2025 price = %v, want 1.80", prices["2025"])
	}
	if prices["2026"] != 1.90 {
		t.Fatalf("blank year should fall back to current year, got %v", prices["2026"])
	}
}
