package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/infrastructure/spsp"
)

// SPSPHandler serves payment-setup queries for receiving accounts.
type SPSPHandler struct {
	accounts           AccountService
	resolver           *spsp.Resolver
	defaultSPSPAccount string
}

// NewSPSPHandler creates a new SPSPHandler. defaultSPSPAccount is the
// username served at /.well-known/pay; empty disables that endpoint.
func NewSPSPHandler(accounts AccountService, resolver *spsp.Resolver, defaultSPSPAccount string) *SPSPHandler {
	return &SPSPHandler{
		accounts:           accounts,
		resolver:           resolver,
		defaultSPSPAccount: defaultSPSPAccount,
	}
}

// Query resolves a receiver address and shared secret for the named account.
func (h *SPSPHandler) Query(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, chi.URLParam(r, "username"))
}

// WellKnown serves the node's default receiving account.
func (h *SPSPHandler) WellKnown(w http.ResponseWriter, r *http.Request) {
	if h.defaultSPSPAccount == "" {
		writeError(w, http.StatusNotFound, "no default spsp account configured", "")
		return
	}
	h.respond(w, r, h.defaultSPSPAccount)
}

func (h *SPSPHandler) respond(w http.ResponseWriter, r *http.Request, username string) {
	account, err := h.accounts.GetAccountByUsername(r.Context(), domain.NormalizeUsername(username))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve account", err.Error())
		return
	}

	resp, err := h.resolver.Resolve(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to derive payment details", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/spsp4+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
