package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
	"github.com/iho/ilpnode/internal/usecase/mocks"
)

func newAccountFixture() (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockRouteStore) {
	repo := mocks.NewMockAccountRepository()
	routes := mocks.NewMockRouteStore()
	return usecase.NewAccountUseCase(repo, routes, mocks.NewMockIDGenerator()), repo, routes
}

func TestAccountUseCase_InsertAccount(t *testing.T) {
	tests := []struct {
		name        string
		details     domain.AccountDetails
		expectError error
	}{
		{
			name:    "valid minimal account",
			details: domain.AccountDetails{Username: "alice", AssetCode: "USD", AssetScale: 6},
		},
		{
			name:    "username normalized before storage",
			details: domain.AccountDetails{Username: "  BOB ", AssetCode: "USD", AssetScale: 6},
		},
		{
			name:        "bad username",
			details:     domain.AccountDetails{Username: "a", AssetCode: "USD"},
			expectError: domain.ErrInvalidField,
		},
		{
			name:        "bad asset code",
			details:     domain.AccountDetails{Username: "carol", AssetCode: "usd"},
			expectError: domain.ErrInvalidField,
		},
		{
			name:        "bad ilp address",
			details:     domain.AccountDetails{Username: "carol", AssetCode: "USD", ILPAddress: "example..x"},
			expectError: domain.ErrInvalidField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, _ := newAccountFixture()
			account, err := uc.InsertAccount(context.Background(), tt.details)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.ID == "" {
				t.Error("expected generated account ID")
			}
			if account.Username != domain.NormalizeUsername(tt.details.Username) {
				t.Errorf("expected normalized username, got %q", account.Username)
			}
			if account.RoutingRelation != domain.RelationPeer {
				t.Errorf("expected default relation peer, got %q", account.RoutingRelation)
			}
		})
	}
}

func TestAccountUseCase_InsertDuplicateUsername(t *testing.T) {
	uc, _, _ := newAccountFixture()
	ctx := context.Background()

	details := domain.AccountDetails{Username: "alice", AssetCode: "USD", AssetScale: 6}
	if _, err := uc.InsertAccount(ctx, details); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// Same username through a different spelling must still collide.
	details.Username = " ALICE "
	if _, err := uc.InsertAccount(ctx, details); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAccountUseCase_UpdatePinsIdentity(t *testing.T) {
	uc, _, _ := newAccountFixture()
	ctx := context.Background()

	account, err := uc.InsertAccount(ctx, domain.AccountDetails{Username: "alice", AssetCode: "USD", AssetScale: 6})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	updated, err := uc.UpdateAccount(ctx, account.ID, domain.AccountDetails{
		Username:        "mallory",
		AssetCode:       "EUR",
		HTTPEndpoint:    "https://peer.example/ilp",
		MaxPacketAmount: 5000,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Username != "alice" || updated.AssetCode != "USD" {
		t.Errorf("identity fields must not change on update: %q %q", updated.Username, updated.AssetCode)
	}
	if updated.HTTPEndpoint != "https://peer.example/ilp" || updated.MaxPacketAmount != 5000 {
		t.Error("mutable fields were not applied")
	}
}

func TestAccountUseCase_PatchSettingsAppliesSubset(t *testing.T) {
	uc, _, _ := newAccountFixture()
	ctx := context.Background()

	threshold := int64(1000)
	account, err := uc.InsertAccount(ctx, domain.AccountDetails{
		Username:          "alice",
		AssetCode:         "USD",
		AssetScale:        6,
		HTTPIncomingToken: "old-token",
		HTTPEndpoint:      "https://old.example/ilp",
		SettleThreshold:   &threshold,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	newToken := "new-token"
	patched, err := uc.PatchSettings(ctx, account.ID, domain.AccountSettings{
		HTTPIncomingToken: &newToken,
	})
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if patched.HTTPIncomingToken != "new-token" {
		t.Errorf("token not patched: %q", patched.HTTPIncomingToken)
	}
	if patched.HTTPEndpoint != "https://old.example/ilp" {
		t.Errorf("unpatched field changed: %q", patched.HTTPEndpoint)
	}
	if patched.SettleThreshold == nil || *patched.SettleThreshold != 1000 {
		t.Error("unpatched settle threshold changed")
	}
}

func TestAccountUseCase_DeletePrunesRoutes(t *testing.T) {
	uc, _, routes := newAccountFixture()
	ctx := context.Background()

	account, err := uc.InsertAccount(ctx, domain.AccountDetails{Username: "alice", AssetCode: "USD", AssetScale: 6})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := routes.UpsertStaticRoute(ctx, "example.alice", account.ID); err != nil {
		t.Fatalf("seed route failed: %v", err)
	}

	if _, err := uc.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	static, _, err := routes.GetAllRoutes(ctx)
	if err != nil {
		t.Fatalf("GetAllRoutes failed: %v", err)
	}
	if len(static) != 0 {
		t.Errorf("expected dangling routes pruned, got %v", static)
	}

	if _, err := uc.GetAccount(ctx, account.ID); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound after delete, got %v", err)
	}
}
