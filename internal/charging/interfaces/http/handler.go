package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chargingapp "evcharge-manager/internal/charging/application"
	charging "evcharge-manager/internal/charging/domain"
)

// ChargesHandler handles the charge log API.
type ChargesHandler struct {
	service *chargingapp.ChargeLogService
}

// NewChargesHandler constructs a handler.
func NewChargesHandler(service *chargingapp.ChargeLogService) (*ChargesHandler, error) {
	if service == nil {
		return nil, errors.New("charges handler: nil service")
	}
	return &ChargesHandler{service: service}, nil
}

// ServeHTTP handles routes under /api/v1/charges.
func (h *ChargesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/charges" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/charges" && r.Method == http.MethodPost:
		h.handleAppend(w, r)
	case r.URL.Path == "/api/v1/charges/last" && r.Method == http.MethodDelete:
		h.handleDeleteLast(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ChargesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	payload := make([]recordJSON, len(records))
	for i, record := range records {
		payload[i] = toRecordJSON(record)
	}
	respondJSON(w, map[string]any{"charges": payload})
}

func (h *ChargesHandler) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string  `json:"date"`
		EnergyKWh  float64 `json:"energy_kwh"`
		Location   string  `json:"location"`
		DirectCost float64 `json:"direct_cost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	input := chargingapp.NewCharge{
		EnergyKWh:  req.EnergyKWh,
		Location:   charging.NormalizeLocation(req.Location),
		DirectCost: req.DirectCost,
	}
	if req.Date != "" {
		date, err := charging.ParseDate(req.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		input.Date = date
	}

	record, err := h.service.Append(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toRecordJSON(record))
}

func (h *ChargesHandler) handleDeleteLast(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.DeleteLast(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"removed": toRecordJSON(removed)})
}

type recordJSON struct {
	Date       string  `json:"date"`
	EnergyKWh  float64 `json:"energy_kwh"`
	Month      string  `json:"month"`
	Year       string  `json:"year"`
	Location   string  `json:"location"`
	DirectCost float64 `json:"direct_cost,omitempty"`
}

func toRecordJSON(record charging.ChargeRecord) recordJSON {
	return recordJSON{
		Date:       record.Date.Format(time.DateOnly),
		EnergyKWh:  record.EnergyKWh,
		Month:      record.MonthLabel,
		Year:       record.YearLabel,
		Location:   string(record.Location),
		DirectCost: record.DirectCost,
	}
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, charging.ErrInvalidRecord):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, charging.ErrEmptyLog):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "store error", http.StatusBadGateway)
	}
}
