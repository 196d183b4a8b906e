package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/ilpnode/internal/domain"
)

func seedAccount(t *testing.T, repo *AccountRepository, id, username string) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:         id,
		Username:   username,
		AssetCode:  "USD",
		AssetScale: 6,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := repo.Insert(context.Background(), account); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return account
}

func TestAccountRepository_InsertAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)
	ctx := context.Background()
	account := seedAccount(t, repo, "a1", "alice")

	got, err := repo.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Username != "alice" || got.AssetCode != "USD" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil || byName.ID != account.ID {
		t.Fatalf("GetByUsername failed: %v", err)
	}

	// Insert initializes the balance key.
	if !mr.Exists("balances:a1") {
		t.Error("expected balance key initialized on insert")
	}
}

func TestAccountRepository_DuplicateUsername(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)
	seedAccount(t, repo, "a1", "alice")

	err := repo.Insert(context.Background(), &domain.Account{ID: "a2", Username: "alice"})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	// The losing insert must leave nothing behind.
	if mr.Exists("accounts:a2") || mr.Exists("balances:a2") {
		t.Error("failed insert leaked keys")
	}
}

func TestAccountRepository_GetMissing(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepository_UpdateMissing(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)

	err := repo.Update(context.Background(), &domain.Account{ID: "ghost", Username: "ghost"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("update must not resurrect deleted accounts, got %v", err)
	}
}

func TestAccountRepository_DeleteRemovesDerivedKeys(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)
	ctx := context.Background()
	seedAccount(t, repo, "a1", "alice")

	if err := repo.SetSettlementAlert(ctx, "a1", "engine unreachable"); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.Delete(ctx, "a1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.Username != "alice" {
		t.Errorf("delete should return the removed record, got %+v", deleted)
	}

	for _, key := range []string{"accounts:a1", "balances:a1", "settlement:alert:a1"} {
		if mr.Exists(key) {
			t.Errorf("key %s should be gone", key)
		}
	}

	// The username is free again.
	if err := repo.Insert(ctx, &domain.Account{ID: "a2", Username: "alice"}); err != nil {
		t.Errorf("username should be reusable after delete: %v", err)
	}
}

func TestAccountRepository_ListPagination(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, username := range []string{"alice", "bob", "carol"} {
		account := &domain.Account{
			ID:        username + "-id",
			Username:  username,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Insert(ctx, account); err != nil {
			t.Fatal(err)
		}
	}

	page, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 2 || page[0].Username != "alice" || page[1].Username != "bob" {
		t.Errorf("unexpected first page: %+v", page)
	}

	page, err = repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 1 || page[0].Username != "carol" {
		t.Errorf("unexpected second page: %+v", page)
	}
}

func TestAccountRepository_SettlementAlert(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	repo := NewAccountRepository(client)
	ctx := context.Background()
	seedAccount(t, repo, "a1", "alice")

	if err := repo.SetSettlementAlert(ctx, "a1", "settlement of 1200 failed"); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SettlementAlert != "settlement of 1200 failed" {
		t.Errorf("alert not surfaced on read: %q", got.SettlementAlert)
	}

	// Clearing deletes the flag key.
	if err := repo.SetSettlementAlert(ctx, "a1", ""); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.GetByID(ctx, "a1")
	if got.SettlementAlert != "" {
		t.Errorf("alert should be cleared, got %q", got.SettlementAlert)
	}

	if err := repo.SetSettlementAlert(ctx, "missing", "x"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
