package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
	"github.com/iho/ilpnode/internal/usecase/mocks"
)

func newRoutingFixture(t *testing.T, defaultTo string) (*usecase.RoutingUseCase, *mocks.MockRouteStore, *mocks.MockAccountRepository) {
	t.Helper()
	store := mocks.NewMockRouteStore()
	accounts := mocks.NewMockAccountRepository()
	for _, id := range []string{"acct-a", "acct-b", "acct-c", "acct-default"} {
		if err := accounts.Insert(context.Background(), &domain.Account{ID: id, Username: "u-" + id}); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}
	return usecase.NewRoutingUseCase(store, accounts, defaultTo), store, accounts
}

func TestRoutingUseCase_LongestPrefixWins(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")
	ctx := context.Background()

	err := uc.SetStaticRoutes(ctx, []domain.StaticRoute{
		{Prefix: "example.a", AccountID: "acct-a"},
		{Prefix: "example.a.b", AccountID: "acct-b"},
	})
	if err != nil {
		t.Fatalf("SetStaticRoutes failed: %v", err)
	}

	tests := []struct {
		destination string
		want        string
	}{
		{"example.a", "acct-a"},
		{"example.a.x", "acct-a"},
		{"example.a.b", "acct-b"},
		{"example.a.b.c", "acct-b"},
	}
	for _, tt := range tests {
		got, err := uc.Resolve(tt.destination)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", tt.destination, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.destination, got, tt.want)
		}
	}
}

func TestRoutingUseCase_ExactSegmentMatching(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")
	ctx := context.Background()

	if err := uc.SetStaticRoute(ctx, "example.a", "acct-a"); err != nil {
		t.Fatalf("SetStaticRoute failed: %v", err)
	}

	// "example.ab" shares the byte prefix but not the segment prefix.
	if _, err := uc.Resolve("example.ab"); !errors.Is(err, domain.ErrNoRoute) {
		t.Errorf("expected ErrNoRoute for sibling segment, got %v", err)
	}
}

func TestRoutingUseCase_NoRoute(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")

	if _, err := uc.Resolve("elsewhere.peer"); !errors.Is(err, domain.ErrNoRoute) {
		t.Errorf("expected ErrNoRoute, got %v", err)
	}
}

func TestRoutingUseCase_DefaultRoute(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "acct-default")

	got, err := uc.Resolve("elsewhere.peer")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "acct-default" {
		t.Errorf("expected catch-all account, got %q", got)
	}
}

func TestRoutingUseCase_StaticOverridesLearned(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")
	ctx := context.Background()

	if err := uc.SetLearnedRoutes(ctx, map[string]string{"example.a": "acct-b"}); err != nil {
		t.Fatalf("SetLearnedRoutes failed: %v", err)
	}
	if err := uc.SetStaticRoute(ctx, "example.a", "acct-a"); err != nil {
		t.Fatalf("SetStaticRoute failed: %v", err)
	}

	got, err := uc.Resolve("example.a.x")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "acct-a" {
		t.Errorf("static route should win on identical prefix, got %q", got)
	}
}

func TestRoutingUseCase_RejectsUnknownAccount(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")

	err := uc.SetStaticRoute(context.Background(), "example.a", "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRoutingUseCase_RejectsBadPrefix(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")

	err := uc.SetStaticRoute(context.Background(), "example..bad", "acct-a")
	if !errors.Is(err, domain.ErrInvalidPrefix) {
		t.Errorf("expected ErrInvalidPrefix, got %v", err)
	}
}

func TestRoutingUseCase_ReplaceIsAtomicToReaders(t *testing.T) {
	uc, _, _ := newRoutingFixture(t, "")
	ctx := context.Background()

	if err := uc.SetStaticRoutes(ctx, []domain.StaticRoute{{Prefix: "example.a", AccountID: "acct-a"}}); err != nil {
		t.Fatalf("SetStaticRoutes failed: %v", err)
	}
	if err := uc.SetStaticRoutes(ctx, []domain.StaticRoute{{Prefix: "example.b", AccountID: "acct-b"}}); err != nil {
		t.Fatalf("SetStaticRoutes failed: %v", err)
	}

	// The old entry must be gone after a full replacement.
	if _, err := uc.Resolve("example.a"); !errors.Is(err, domain.ErrNoRoute) {
		t.Errorf("expected old route to be dropped, got %v", err)
	}
	if got, _ := uc.Resolve("example.b"); got != "acct-b" {
		t.Errorf("expected new route, got %q", got)
	}
}
