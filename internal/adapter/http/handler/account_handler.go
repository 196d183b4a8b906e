package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ilpnode/internal/adapter/http/dto"
	"github.com/iho/ilpnode/internal/adapter/http/middleware"
	"github.com/iho/ilpnode/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	InsertAccount(ctx context.Context, details domain.AccountDetails) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, id string, details domain.AccountDetails) (*domain.Account, error)
	PatchSettings(ctx context.Context, id string, settings domain.AccountSettings) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id string) (*domain.Account, error)
}

// BalanceService is the display-read side of the ledger.
type BalanceService interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
}

// AccountHandler serves the administrative account API and the self-service
// settings endpoint.
type AccountHandler struct {
	accounts AccountService
	balances BalanceService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService, balances BalanceService) *AccountHandler {
	return &AccountHandler{accounts: accounts, balances: balances}
}

// Create inserts a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accounts.InsertAccount(r.Context(), req.ToDetails())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts as a bounded page.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accounts.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Limit:    limit,
		Offset:   offset,
	})
}

// Update replaces the mutable fields of an account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accounts.UpdateAccount(r.Context(), chi.URLParam(r, "id"), req.ToDetails())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update account", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete removes an account and its derived state.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.DeleteAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to delete account", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetBalance reads the account balance for display.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountID: id,
		Balance:   balance,
		AssetCode: account.AssetCode,
	})
}

// PatchSettings applies the self-service settings patch. The caller
// authenticates as the account itself with one of its incoming tokens.
func (h *AccountHandler) PatchSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	if !h.authorizeAccount(r, account) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	updated, err := h.accounts.PatchSettings(r.Context(), id, req.ToSettings())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to patch settings", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountFromDomain(updated))
}

// authorizeAccount checks the bearer credential against the account's own
// incoming tokens, in constant time.
func (h *AccountHandler) authorizeAccount(r *http.Request, account *domain.Account) bool {
	token, ok := middleware.BearerToken(r)
	if !ok {
		return false
	}
	if account.HTTPIncomingToken != "" && middleware.TokenEqual(token, account.HTTPIncomingToken) {
		return true
	}
	if account.BTPIncomingToken != "" && middleware.TokenEqual(token, account.BTPIncomingToken) {
		return true
	}
	return false
}
