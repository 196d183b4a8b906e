package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ilpnode/internal/adapter/http/dto"
	"github.com/iho/ilpnode/internal/adapter/http/middleware"
	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
)

// PacketService is the balance-aware forwarding path.
type PacketService interface {
	HandlePacket(ctx context.Context, from *domain.Account, req usecase.ForwardRequest) (usecase.ForwardResult, error)
}

// ILPHandler is the HTTP packet ingress. Counterparties authenticate as
// their own account with the account's http_incoming_token.
type ILPHandler struct {
	accounts   AccountService
	forwarding PacketService
}

// NewILPHandler creates a new ILPHandler.
func NewILPHandler(accounts AccountService, forwarding PacketService) *ILPHandler {
	return &ILPHandler{accounts: accounts, forwarding: forwarding}
}

// Handle receives one packet from the authenticated counterparty and returns
// the fulfill or reject outcome.
func (h *ILPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	username := domain.NormalizeUsername(chi.URLParam(r, "username"))
	from, err := h.accounts.GetAccountByUsername(r.Context(), username)
	if err != nil {
		// Do not reveal whether the account exists to unauthenticated callers.
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	token, ok := middleware.BearerToken(r)
	if !ok || from.HTTPIncomingToken == "" || !middleware.TokenEqual(token, from.HTTPIncomingToken) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.PacketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	fwdReq, err := req.ToForwardRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid packet data", err.Error())
		return
	}

	result, err := h.forwarding.HandlePacket(r.Context(), from, fwdReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process packet", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.PacketResponseFromResult(result))
}
