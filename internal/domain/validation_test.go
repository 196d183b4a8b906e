package domain

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with digits", "peer42", false},
		{"valid with separators", "us-east_1", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), true},
		{"uppercase rejected", "Alice", true},
		{"dot rejected", "alice.smith", true},
		{"space rejected", "alice smith", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  Alice "); got != "alice" {
		t.Errorf("expected %q, got %q", "alice", got)
	}
}

func TestValidateAssetCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"valid", "USD", false},
		{"valid alphanumeric", "USDT2", false},
		{"empty", "", true},
		{"lowercase", "usd", true},
		{"too long", strings.Repeat("X", MaxAssetCodeLength+1), true},
		{"symbol", "US$", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetCode(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestValidateILPAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid short", "example", false},
		{"valid hierarchical", "example.node.alice", false},
		{"valid punctuation", "g.us-east_1.~acme", false},
		{"empty", "", true},
		{"empty segment", "example..alice", true},
		{"trailing dot", "example.alice.", true},
		{"bad character", "example.al!ce", true},
		{"too long", strings.Repeat("a", MaxAddressLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateILPAddress(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateILPAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestAccountDetailsValidate(t *testing.T) {
	valid := AccountDetails{Username: "alice", AssetCode: "XRP", AssetScale: 9}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badRelation := valid
	badRelation.RoutingRelation = "upstream"
	if err := badRelation.Validate(); err == nil {
		t.Error("expected error for unknown routing relation")
	}

	badToken := valid
	badToken.HTTPIncomingToken = strings.Repeat("t", MaxTokenLength+1)
	if err := badToken.Validate(); err == nil {
		t.Error("expected error for oversized token")
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, DefaultPageSize, 0},
		{-5, -3, DefaultPageSize, 0},
		{10, 20, 10, 20},
		{MaxPageSize + 1, 0, MaxPageSize, 0},
	}

	for _, tt := range tests {
		limit, offset := ValidatePagination(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestSettleTarget(t *testing.T) {
	var account Account
	if got := account.SettleTarget(); got != 0 {
		t.Errorf("expected default settle target 0, got %d", got)
	}

	to := uint64(500)
	account.SettleTo = &to
	if got := account.SettleTarget(); got != 500 {
		t.Errorf("expected settle target 500, got %d", got)
	}
}
