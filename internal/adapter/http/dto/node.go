package dto

import (
	"encoding/base64"
	"time"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
)

// ErrorResponse is the shared error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RoutesRequest replaces the full static route set.
type RoutesRequest map[string]string

// ToStaticRoutes converts the map form to domain entries.
func (r RoutesRequest) ToStaticRoutes() []domain.StaticRoute {
	out := make([]domain.StaticRoute, 0, len(r))
	for prefix, accountID := range r {
		out = append(out, domain.StaticRoute{Prefix: prefix, AccountID: accountID})
	}
	return out
}

// RouteRequest upserts one static route.
type RouteRequest struct {
	AccountID string `json:"account_id"`
}

// RatesRequest replaces the full rate table; values are decimal strings.
type RatesRequest map[string]string

// SettlementNotification is an inbound settlement credit from an engine or
// peer. The idempotency key may instead ride in the Idempotency-Key header.
type SettlementNotification struct {
	Amount         uint64 `json:"amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// SettlementResponse reports the post-credit balance.
type SettlementResponse struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
	Applied   bool   `json:"applied"`
}

// SettlementRecordResponse is one archived settlement.
type SettlementRecordResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Direction   string    `json:"direction"`
	Amount      uint64    `json:"amount"`
	AssetCode   string    `json:"asset_code"`
	AssetScale  uint8     `json:"asset_scale"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// SettlementRecordsFromDomain converts archive rows.
func SettlementRecordsFromDomain(recs []*domain.SettlementRecord) []SettlementRecordResponse {
	out := make([]SettlementRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, SettlementRecordResponse{
			ID:          rec.ID,
			AccountID:   rec.AccountID,
			Direction:   string(rec.Direction),
			Amount:      rec.Amount,
			AssetCode:   rec.AssetCode,
			AssetScale:  rec.AssetScale,
			ConfirmedAt: rec.ConfirmedAt,
		})
	}
	return out
}

// PacketRequest is the decoded forwarding request handed to the core by the
// packet pipeline adapters. Data is opaque, base64 over the wire.
type PacketRequest struct {
	Destination string    `json:"destination"`
	Amount      uint64    `json:"amount"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Data        string    `json:"data,omitempty"`
}

// ToForwardRequest decodes the opaque payload.
func (r *PacketRequest) ToForwardRequest() (usecase.ForwardRequest, error) {
	data, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return usecase.ForwardRequest{}, err
	}
	return usecase.ForwardRequest{
		DestinationAddress: r.Destination,
		Amount:             r.Amount,
		ExpiresAt:          r.ExpiresAt,
		Data:               data,
	}, nil
}

// PacketResponse is the forwarding outcome.
type PacketResponse struct {
	Fulfilled bool   `json:"fulfilled"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      string `json:"data,omitempty"`
}

// PacketResponseFromResult encodes the outcome.
func PacketResponseFromResult(res usecase.ForwardResult) PacketResponse {
	return PacketResponse{
		Fulfilled: res.Fulfilled,
		Code:      res.Code,
		Message:   res.Message,
		Data:      base64.StdEncoding.EncodeToString(res.Data),
	}
}
