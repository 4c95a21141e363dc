package analytics

import (
	"sort"

	charging "evcharge-manager/internal/charging/domain"
)

// MonthlySummary aggregates derived records for one month of one year.
type MonthlySummary struct {
	MonthLabel         string
	Charges            int
	EnergyKWh          float64
	ActualCost         float64
	EquivalentFuelCost float64
	Savings            float64
	TariffMissing      bool
}

// YearlySummary aggregates derived records for one year.
type YearlySummary struct {
	YearLabel          string
	Charges            int
	EnergyKWh          float64
	ActualCost         float64
	EquivalentFuelCost float64
	Savings            float64
}

// SummarizeByMonth aggregates the records of one year per month. The result
// follows the fixed calendar order Gennaio…Dicembre regardless of input
// order; months without records are omitted.
func SummarizeByMonth(derived []DerivedRecord, yearLabel string) []MonthlySummary {
	byMonth := make(map[string]*MonthlySummary, 12)
	for _, d := range derived {
		if d.YearLabel != yearLabel {
			continue
		}
		summary := byMonth[d.MonthLabel]
		if summary == nil {
			summary = &MonthlySummary{MonthLabel: d.MonthLabel}
			byMonth[d.MonthLabel] = summary
		}
		summary.Charges++
		summary.EnergyKWh += d.EnergyKWh
		summary.ActualCost += d.ActualCost
		summary.EquivalentFuelCost += d.EquivalentFuelCost
		summary.Savings += d.Savings
		if d.TariffMissing {
			summary.TariffMissing = true
		}
	}

	summaries := make([]MonthlySummary, 0, len(byMonth))
	for _, label := range charging.MonthLabels {
		if summary, ok := byMonth[label]; ok {
			summaries = append(summaries, *summary)
		}
	}
	return summaries
}

// SummarizeByYear aggregates all records per year, ascending.
func SummarizeByYear(derived []DerivedRecord) []YearlySummary {
	byYear := make(map[string]*YearlySummary)
	for _, d := range derived {
		summary := byYear[d.YearLabel]
		if summary == nil {
			summary = &YearlySummary{YearLabel: d.YearLabel}
			byYear[d.YearLabel] = summary
		}
		summary.Charges++
		summary.EnergyKWh += d.EnergyKWh
		summary.ActualCost += d.ActualCost
		summary.EquivalentFuelCost += d.EquivalentFuelCost
		summary.Savings += d.Savings
	}

	summaries := make([]YearlySummary, 0, len(byYear))
	for _, summary := range byYear {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].YearLabel < summaries[j].YearLabel
	})
	return summaries
}
