package redis

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRouteStore_ReplaceAndRead(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRouteStore(client)
	ctx := context.Background()

	if err := store.ReplaceStaticRoutes(ctx, map[string]string{
		"example.a": "acct-a",
		"example.b": "acct-b",
	}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := store.ReplaceLearnedRoutes(ctx, map[string]string{
		"example.c": "acct-c",
	}); err != nil {
		t.Fatalf("replace learned failed: %v", err)
	}

	static, learned, err := store.GetAllRoutes(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(static) != 2 || static["example.a"] != "acct-a" {
		t.Errorf("unexpected static set: %v", static)
	}
	if len(learned) != 1 || learned["example.c"] != "acct-c" {
		t.Errorf("unexpected learned set: %v", learned)
	}

	// A replacement drops entries absent from the new set.
	if err := store.ReplaceStaticRoutes(ctx, map[string]string{"example.b": "acct-b"}); err != nil {
		t.Fatal(err)
	}
	static, _, _ = store.GetAllRoutes(ctx)
	if len(static) != 1 {
		t.Errorf("old entries must be dropped, got %v", static)
	}

	// Replacing with an empty set clears the hash.
	if err := store.ReplaceStaticRoutes(ctx, nil); err != nil {
		t.Fatal(err)
	}
	static, _, _ = store.GetAllRoutes(ctx)
	if len(static) != 0 {
		t.Errorf("expected empty set, got %v", static)
	}
}

func TestRouteStore_UpsertSingle(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRouteStore(client)
	ctx := context.Background()

	if err := store.UpsertStaticRoute(ctx, "example.a", "acct-a"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertStaticRoute(ctx, "example.a", "acct-b"); err != nil {
		t.Fatal(err)
	}

	static, _, _ := store.GetAllRoutes(ctx)
	if static["example.a"] != "acct-b" {
		t.Errorf("upsert should overwrite, got %v", static)
	}
}

func TestRouteStore_RemoveRoutesForAccount(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRouteStore(client)
	ctx := context.Background()

	if err := store.ReplaceStaticRoutes(ctx, map[string]string{
		"example.a":  "acct-gone",
		"example.b":  "acct-keep",
		"example.a2": "acct-gone",
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceLearnedRoutes(ctx, map[string]string{
		"example.c": "acct-gone",
	}); err != nil {
		t.Fatal(err)
	}

	if err := store.RemoveRoutesForAccount(ctx, "acct-gone"); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	static, learned, _ := store.GetAllRoutes(ctx)
	if len(static) != 1 || static["example.b"] != "acct-keep" {
		t.Errorf("unexpected static after prune: %v", static)
	}
	if len(learned) != 0 {
		t.Errorf("unexpected learned after prune: %v", learned)
	}
}

func TestRateStore_RoundTrip(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRateStore(client)
	ctx := context.Background()

	in := map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("1.2345"),
	}
	if err := store.ReplaceRates(ctx, in); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	out, err := store.GetAllRates(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(out) != 2 || !out["EUR"].Equal(in["EUR"]) {
		t.Errorf("roundtrip mismatch: %v", out)
	}

	// Full replacement drops stale codes.
	if err := store.ReplaceRates(ctx, map[string]decimal.Decimal{"USD": decimal.NewFromInt(1)}); err != nil {
		t.Fatal(err)
	}
	out, _ = store.GetAllRates(ctx)
	if _, ok := out["EUR"]; ok {
		t.Error("stale rate survived replacement")
	}
}
