package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	analyticsapp "evcharge-manager/internal/analytics/application"
	analytics "evcharge-manager/internal/analytics/domain"
)

// SummaryHandler serves the aggregated cost/savings view.
type SummaryHandler struct {
	projection *analyticsapp.ProjectionService
}

// NewSummaryHandler constructs a handler.
func NewSummaryHandler(projection *analyticsapp.ProjectionService) (*SummaryHandler, error) {
	if projection == nil {
		return nil, errors.New("summary handler: nil projection service")
	}
	return &SummaryHandler{projection: projection}, nil
}

// ServeHTTP handles GET /api/v1/summary.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, err := h.projection.Derived(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	year := r.URL.Query().Get("year")
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}

	months := analytics.SummarizeByMonth(result.Derived, year)
	years := analytics.SummarizeByYear(result.Derived)

	payload := map[string]any{
		"year":        year,
		"months":      monthsJSON(months),
		"years":       yearsJSON(years),
		"stale_store": result.StaleStore,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

type monthJSON struct {
	Month              string  `json:"month"`
	Charges            int     `json:"charges"`
	EnergyKWh          float64 `json:"energy_kwh"`
	ActualCost         float64 `json:"actual_cost"`
	EquivalentFuelCost float64 `json:"equivalent_fuel_cost"`
	Savings            float64 `json:"savings"`
	TariffMissing      bool    `json:"tariff_missing,omitempty"`
}

type yearJSON struct {
	Year               string  `json:"year"`
	Charges            int     `json:"charges"`
	EnergyKWh          float64 `json:"energy_kwh"`
	ActualCost         float64 `json:"actual_cost"`
	EquivalentFuelCost float64 `json:"equivalent_fuel_cost"`
	Savings            float64 `json:"savings"`
}

func monthsJSON(months []analytics.MonthlySummary) []monthJSON {
	out := make([]monthJSON, len(months))
	for i, m := range months {
		out[i] = monthJSON{
			Month:              m.MonthLabel,
			Charges:            m.Charges,
			EnergyKWh:          m.EnergyKWh,
			ActualCost:         m.ActualCost,
			EquivalentFuelCost: m.EquivalentFuelCost,
			Savings:            m.Savings,
			TariffMissing:      m.TariffMissing,
		}
	}
	return out
}

func yearsJSON(years []analytics.YearlySummary) []yearJSON {
	out := make([]yearJSON, len(years))
	for i, y := range years {
		out[i] = yearJSON{
			Year:               y.YearLabel,
			Charges:            y.Charges,
			EnergyKWh:          y.EnergyKWh,
			ActualCost:         y.ActualCost,
			EquivalentFuelCost: y.EquivalentFuelCost,
			Savings:            y.Savings,
		}
	}
	return out
}
