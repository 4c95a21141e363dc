package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	charging "evcharge-manager/internal/charging/domain"
	pricingapp "evcharge-manager/internal/pricing/application"
	pricing "evcharge-manager/internal/pricing/domain"
	"evcharge-manager/internal/pricing/infrastructure/fuelfeed"
)

// PricesHandler handles the tariff and fuel price APIs.
type PricesHandler struct {
	service *pricingapp.TariffService
	feed    *fuelfeed.Client
}

// NewPricesHandler constructs a handler. The feed client is optional.
func NewPricesHandler(service *pricingapp.TariffService, feed *fuelfeed.Client) (*PricesHandler, error) {
	if service == nil {
		return nil, errors.New("prices handler: nil service")
	}
	return &PricesHandler{service: service, feed: feed}, nil
}

// ServeHTTP handles /api/v1/tariffs and /api/v1/fuel-prices.
func (h *PricesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/tariffs" && r.Method == http.MethodGet:
		h.handleListTariffs(w, r)
	case r.URL.Path == "/api/v1/tariffs" && r.Method == http.MethodPut:
		h.handleSetTariff(w, r)
	case r.URL.Path == "/api/v1/fuel-prices" && r.Method == http.MethodGet:
		h.handleListFuelPrices(w, r)
	case r.URL.Path == "/api/v1/fuel-prices" && r.Method == http.MethodPut:
		h.handleSetFuelPrice(w, r)
	case r.URL.Path == "/api/v1/fuel-prices/reference" && r.Method == http.MethodGet:
		h.handleReference(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type tariffJSON struct {
	Month       string  `json:"month"`
	Year        string  `json:"year"`
	PricePerKWh float64 `json:"price_per_kwh"`
}

type fuelPriceJSON struct {
	Year          string  `json:"year"`
	PricePerLiter float64 `json:"price_per_liter"`
}

func (h *PricesHandler) handleListTariffs(w http.ResponseWriter, r *http.Request) {
	tariffs, err := h.service.ListTariffs(r.Context())
	if err != nil {
		http.Error(w, "store error", http.StatusBadGateway)
		return
	}
	payload := make([]tariffJSON, 0, len(tariffs))
	for key, price := range tariffs {
		payload = append(payload, tariffJSON{Month: key.MonthLabel, Year: string(key.YearLabel), PricePerKWh: price})
	}
	sort.Slice(payload, func(i, j int) bool {
		if payload[i].Year != payload[j].Year {
			return payload[i].Year < payload[j].Year
		}
		a, _ := charging.MonthOrdinal(payload[i].Month)
		b, _ := charging.MonthOrdinal(payload[j].Month)
		return a < b
	})
	respondJSON(w, map[string]any{"tariffs": payload})
}

func (h *PricesHandler) handleSetTariff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month       string  `json:"month"`
		Year        string  `json:"year"`
		PricePerKWh float64 `json:"price_per_kwh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	entry, err := h.service.SetTariff(r.Context(), req.Month, req.Year, req.PricePerKWh)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, tariffJSON{Month: entry.MonthLabel, Year: string(entry.YearLabel), PricePerKWh: entry.PricePerKWh})
}

func (h *PricesHandler) handleListFuelPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.service.ListFuelPrices(r.Context())
	if err != nil {
		http.Error(w, "store error", http.StatusBadGateway)
		return
	}
	payload := make([]fuelPriceJSON, 0, len(prices))
	for year, price := range prices {
		payload = append(payload, fuelPriceJSON{Year: string(year), PricePerLiter: price})
	}
	sort.Slice(payload, func(i, j int) bool { return payload[i].Year < payload[j].Year })
	respondJSON(w, map[string]any{"fuel_prices": payload})
}

func (h *PricesHandler) handleSetFuelPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year          string  `json:"year"`
		PricePerLiter float64 `json:"price_per_liter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	price, err := h.service.SetFuelPrice(r.Context(), req.Year, req.PricePerLiter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, fuelPriceJSON{Year: string(price.YearLabel), PricePerLiter: price.PricePerLiter})
}

func (h *PricesHandler) handleReference(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		http.Error(w, "feed not configured", http.StatusNotFound)
		return
	}
	price, live := h.feed.Fetch(r.Context())
	respondJSON(w, map[string]any{"price_per_liter": price, "live": live})
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidMonth), errors.Is(err, pricing.ErrNegativePrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "store error", http.StatusBadGateway)
	}
}
