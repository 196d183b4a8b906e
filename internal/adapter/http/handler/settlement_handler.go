package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ilpnode/internal/adapter/http/dto"
	"github.com/iho/ilpnode/internal/domain"
)

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	ApplyIncomingSettlement(ctx context.Context, accountID string, amount uint64, idempotencyKey string) (int64, bool, error)
	ListSettlements(ctx context.Context, accountID string, limit, offset int) ([]*domain.SettlementRecord, error)
}

// SettlementHandler receives settlement notifications from engines and
// serves the settlement history.
type SettlementHandler struct {
	settlements SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlements SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// Notify credits an incoming settlement. Engines retry on our 5xx, so the
// credit is idempotent under the Idempotency-Key header (or body field).
func (h *SettlementHandler) Notify(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.SettlementNotification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = req.IdempotencyKey
	}

	balance, applied, err := h.settlements.ApplyIncomingSettlement(r.Context(), accountID, req.Amount, key)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply settlement", err.Error())
		return
	}

	status := http.StatusCreated
	if !applied {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.SettlementResponse{
		AccountID: accountID,
		Balance:   balance,
		Applied:   applied,
	})
}

// History lists archived settlements for an account.
func (h *SettlementHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	records, err := h.settlements.ListSettlements(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list settlements", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.SettlementRecordsFromDomain(records))
}
