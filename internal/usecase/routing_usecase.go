package usecase

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/iho/ilpnode/internal/domain"
)

// routingSnapshot is an immutable view of the merged routing table. Lookups
// read one snapshot for their whole lifetime; mutations build a fresh one
// and swap the pointer, so a resolve never observes a half-replaced table.
type routingSnapshot struct {
	// merged holds learned routes overlaid by static routes: on an
	// identical prefix, static wins.
	merged map[string]string
}

// RoutingUseCase maps ILP address prefixes to accounts with longest
// exact-segment prefix matching.
type RoutingUseCase struct {
	routes    RouteStore
	accounts  AccountRepository
	snapshot  atomic.Pointer[routingSnapshot]
	defaultTo string // optional catch-all account id
}

// NewRoutingUseCase creates a RoutingUseCase. defaultAccountID may be empty
// (no catch-all route).
func NewRoutingUseCase(routes RouteStore, accounts AccountRepository, defaultAccountID string) *RoutingUseCase {
	uc := &RoutingUseCase{
		routes:    routes,
		accounts:  accounts,
		defaultTo: defaultAccountID,
	}
	uc.snapshot.Store(&routingSnapshot{merged: map[string]string{}})
	return uc
}

// Load rebuilds the in-memory snapshot from the store. Called at startup and
// after every mutation.
func (uc *RoutingUseCase) Load(ctx context.Context) error {
	static, learned, err := uc.routes.GetAllRoutes(ctx)
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(static)+len(learned))
	for prefix, id := range learned {
		merged[prefix] = id
	}
	for prefix, id := range static {
		merged[prefix] = id
	}
	uc.snapshot.Store(&routingSnapshot{merged: merged})
	return nil
}

// SetStaticRoutes atomically replaces the whole static route set.
func (uc *RoutingUseCase) SetStaticRoutes(ctx context.Context, entries []domain.StaticRoute) error {
	routes := make(map[string]string, len(entries))
	for _, e := range entries {
		if err := domain.ValidateRoutePrefix(e.Prefix); err != nil {
			return err
		}
		if _, err := uc.accounts.GetByID(ctx, e.AccountID); err != nil {
			return err
		}
		routes[e.Prefix] = e.AccountID
	}
	if err := uc.routes.ReplaceStaticRoutes(ctx, routes); err != nil {
		return err
	}
	return uc.Load(ctx)
}

// SetStaticRoute upserts one static route; the account must exist.
func (uc *RoutingUseCase) SetStaticRoute(ctx context.Context, prefix, accountID string) error {
	if err := domain.ValidateRoutePrefix(prefix); err != nil {
		return err
	}
	if _, err := uc.accounts.GetByID(ctx, accountID); err != nil {
		return err
	}
	if err := uc.routes.UpsertStaticRoute(ctx, prefix, accountID); err != nil {
		return err
	}
	return uc.Load(ctx)
}

// SetLearnedRoutes replaces the dynamically learned route set, typically
// from a peer route broadcast. Static routes keep priority on identical
// prefixes.
func (uc *RoutingUseCase) SetLearnedRoutes(ctx context.Context, routes map[string]string) error {
	for prefix := range routes {
		if err := domain.ValidateRoutePrefix(prefix); err != nil {
			return err
		}
	}
	if err := uc.routes.ReplaceLearnedRoutes(ctx, routes); err != nil {
		return err
	}
	return uc.Load(ctx)
}

// Resolve returns the account bound to the longest prefix covering the
// destination. Matching is exact-segment: "example.a" covers "example.a.b"
// but not "example.ab".
func (uc *RoutingUseCase) Resolve(destination string) (string, error) {
	snap := uc.snapshot.Load()
	segments := strings.Split(destination, ".")
	for i := len(segments); i > 0; i-- {
		prefix := strings.Join(segments[:i], ".")
		if id, ok := snap.merged[prefix]; ok {
			return id, nil
		}
	}
	if uc.defaultTo != "" {
		return uc.defaultTo, nil
	}
	return "", domain.ErrNoRoute
}

// Routes returns the current merged table, for the admin API.
func (uc *RoutingUseCase) Routes() map[string]string {
	snap := uc.snapshot.Load()
	out := make(map[string]string, len(snap.merged))
	for k, v := range snap.merged {
		out[k] = v
	}
	return out
}
