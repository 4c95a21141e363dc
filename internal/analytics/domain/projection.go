package analytics

import (
	"errors"

	charging "evcharge-manager/internal/charging/domain"
	pricing "evcharge-manager/internal/pricing/domain"
)

// EfficiencyConfig converts delivered energy into an equivalent fuel volume:
// energy * EVKMPerKWh is the distance driven, divided by FuelKMPerLiter it
// becomes the liters a combustion car would have burned.
type EfficiencyConfig struct {
	EVKMPerKWh     float64
	FuelKMPerLiter float64
}

// Validate checks both constants are usable.
func (c EfficiencyConfig) Validate() error {
	if c.EVKMPerKWh <= 0 || c.FuelKMPerLiter <= 0 {
		return errors.New("analytics: efficiency constants must be positive")
	}
	return nil
}

// DerivedRecord is a charge record augmented with resolved prices and
// computed cost figures. Never persisted; recomputed fresh on every read.
type DerivedRecord struct {
	charging.ChargeRecord

	TariffPrice        float64
	FuelPrice          float64
	ActualCost         float64
	EquivalentFuelCost float64
	Savings            float64

	// TariffMissing flags records priced at zero because no tariff matched
	// their month and year. The cost silently under-counts in that case;
	// the flag lets callers surface it.
	TariffMissing bool
}

// Project joins records against resolved prices and computes per-record cost
// and savings. Pure: inputs are never mutated and the result is a fresh
// slice on every call.
func Project(
	records []charging.ChargeRecord,
	tariffs map[pricing.TariffKey]float64,
	fuelPrices map[pricing.YearLabel]float64,
	eff EfficiencyConfig,
	backupFuelPrice float64,
) []DerivedRecord {
	derived := make([]DerivedRecord, 0, len(records))
	for _, record := range records {
		d := DerivedRecord{ChargeRecord: record}

		key := pricing.TariffKey{MonthLabel: record.MonthLabel, YearLabel: pricing.YearLabel(record.YearLabel)}
		tariff, ok := tariffs[key]
		if !ok {
			d.TariffMissing = true
		}
		d.TariffPrice = tariff

		fuel, ok := fuelPrices[pricing.YearLabel(record.YearLabel)]
		if !ok {
			fuel = backupFuelPrice
		}
		d.FuelPrice = fuel

		if record.Location == charging.LocationPublic && record.DirectCost > 0 {
			d.ActualCost = record.DirectCost
		} else {
			d.ActualCost = record.EnergyKWh * d.TariffPrice
		}
		d.EquivalentFuelCost = record.EnergyKWh * eff.EVKMPerKWh / eff.FuelKMPerLiter * d.FuelPrice
		d.Savings = d.EquivalentFuelCost - d.ActualCost

		derived = append(derived, d)
	}
	return derived
}
