package pricing

import (
	"time"

	charging "evcharge-manager/internal/charging/domain"
)

// TariffKey joins a charge record to its home-electricity tariff.
type TariffKey struct {
	MonthLabel string
	YearLabel  YearLabel
}

// TariffEntry is the price of home electricity for one month of one year.
type TariffEntry struct {
	MonthLabel  string
	YearLabel   YearLabel
	PricePerKWh float64
}

// FuelPrice is the reference gasoline price for one year.
type FuelPrice struct {
	YearLabel     YearLabel
	PricePerLiter float64
}

// RawTariff is one untyped row of the Tariffe table.
type RawTariff struct {
	MonthLabel string
	YearLabel  string
	Price      string
}

// RawFuelPrice is one untyped row of the Config table.
type RawFuelPrice struct {
	YearLabel string
	Price     string
}

// ResolveTariffs builds the (month, year) → price mapping. Rows with an
// unknown month name or an unparsable price are skipped; on duplicate keys
// the last row in input order wins, matching the replace-by-key semantics of
// tariff updates. Empty input resolves to an empty mapping, never an error.
func ResolveTariffs(raws []RawTariff, now time.Time) map[TariffKey]float64 {
	tariffs := make(map[TariffKey]float64, len(raws))
	for _, raw := range raws {
		if !charging.IsMonthLabel(raw.MonthLabel) {
			continue
		}
		price, err := charging.ParseDecimal(raw.Price)
		if err != nil || price < 0 {
			continue
		}
		key := TariffKey{
			MonthLabel: raw.MonthLabel,
			YearLabel:  ParseYearLabel(raw.YearLabel, now),
		}
		tariffs[key] = price
	}
	return tariffs
}

// ResolveFuelPrices builds the year → price-per-liter mapping with the same
// last-wins and current-year-fallback semantics as ResolveTariffs.
func ResolveFuelPrices(raws []RawFuelPrice, now time.Time) map[YearLabel]float64 {
	prices := make(map[YearLabel]float64, len(raws))
	for _, raw := range raws {
		price, err := charging.ParseDecimal(raw.Price)
		if err != nil || price < 0 {
			continue
		}
		prices[ParseYearLabel(raw.YearLabel, now)] = price
	}
	return prices
}
