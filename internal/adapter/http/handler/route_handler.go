package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ilpnode/internal/adapter/http/dto"
	"github.com/iho/ilpnode/internal/domain"
)

// RoutingService defines the behavior needed by RouteHandler.
type RoutingService interface {
	SetStaticRoutes(ctx context.Context, entries []domain.StaticRoute) error
	SetStaticRoute(ctx context.Context, prefix, accountID string) error
	Routes() map[string]string
}

// RouteHandler serves the administrative routing table API.
type RouteHandler struct {
	routing RoutingService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routing RoutingService) *RouteHandler {
	return &RouteHandler{routing: routing}
}

// List returns the merged routing table.
func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.routing.Routes())
}

// ReplaceStatic atomically replaces the whole static route set.
func (h *RouteHandler) ReplaceStatic(w http.ResponseWriter, r *http.Request) {
	var req dto.RoutesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.routing.SetStaticRoutes(r.Context(), req.ToStaticRoutes()); err != nil {
		writeError(w, mapDomainError(err), "failed to replace static routes", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.routing.Routes())
}

// UpsertStatic sets one static route. The prefix rides in the URL path.
func (h *RouteHandler) UpsertStatic(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")

	var req dto.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.routing.SetStaticRoute(r.Context(), prefix, req.AccountID); err != nil {
		writeError(w, mapDomainError(err), "failed to set static route", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.routing.Routes())
}
