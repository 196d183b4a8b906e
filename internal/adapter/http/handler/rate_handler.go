package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/ilpnode/internal/adapter/http/dto"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	SetRates(ctx context.Context, rates map[string]decimal.Decimal) error
	Rates() map[string]decimal.Decimal
}

// RateHandler serves the administrative exchange rate API.
type RateHandler struct {
	rates RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rates RateService) *RateHandler {
	return &RateHandler{rates: rates}
}

// List returns the current rate table as decimal strings.
func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string)
	for code, rate := range h.rates.Rates() {
		out[code] = rate.String()
	}
	writeJSON(w, http.StatusOK, out)
}

// Replace atomically replaces the whole rate table.
func (h *RateHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req dto.RatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rates := make(map[string]decimal.Decimal, len(req))
	for code, val := range req {
		rate, err := decimal.NewFromString(val)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid rate", code+": "+err.Error())
			return
		}
		rates[code] = rate
	}

	if err := h.rates.SetRates(r.Context(), rates); err != nil {
		writeError(w, mapDomainError(err), "failed to set rates", err.Error())
		return
	}
	h.List(w, r)
}
