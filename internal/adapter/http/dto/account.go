package dto

import (
	"time"

	"github.com/iho/ilpnode/internal/domain"
)

// AccountRequest is the administrative insert/update payload. Field names
// follow the connector API convention (snake_case, token fields named after
// the transport they authenticate).
type AccountRequest struct {
	Username   string `json:"username"`
	ILPAddress string `json:"ilp_address,omitempty"`
	AssetCode  string `json:"asset_code"`
	AssetScale uint8  `json:"asset_scale"`

	HTTPEndpoint      string `json:"http_endpoint,omitempty"`
	HTTPIncomingToken string `json:"http_incoming_token,omitempty"`
	HTTPOutgoingToken string `json:"http_outgoing_token,omitempty"`
	BTPURI            string `json:"btp_uri,omitempty"`
	BTPIncomingToken  string `json:"btp_incoming_token,omitempty"`
	BTPOutgoingToken  string `json:"btp_outgoing_token,omitempty"`

	MaxPacketAmount       uint64  `json:"max_packet_amount,omitempty"`
	MinBalance            *int64  `json:"min_balance,omitempty"`
	AmountPerMinuteLimit  *uint64 `json:"amount_per_minute_limit,omitempty"`
	PacketsPerMinuteLimit *uint32 `json:"packets_per_minute_limit,omitempty"`

	SettleThreshold     *int64  `json:"settle_threshold,omitempty"`
	SettleTo            *uint64 `json:"settle_to,omitempty"`
	SettlementEngineURL string  `json:"settlement_engine_url,omitempty"`

	RoutingRelation string `json:"routing_relation,omitempty"`
	RoundTripTime   uint32 `json:"round_trip_time,omitempty"`
}

// ToDetails converts the request to the domain payload.
func (r *AccountRequest) ToDetails() domain.AccountDetails {
	return domain.AccountDetails{
		Username:              r.Username,
		ILPAddress:            r.ILPAddress,
		AssetCode:             r.AssetCode,
		AssetScale:            r.AssetScale,
		HTTPEndpoint:          r.HTTPEndpoint,
		HTTPIncomingToken:     r.HTTPIncomingToken,
		HTTPOutgoingToken:     r.HTTPOutgoingToken,
		BTPURI:                r.BTPURI,
		BTPIncomingToken:      r.BTPIncomingToken,
		BTPOutgoingToken:      r.BTPOutgoingToken,
		MaxPacketAmount:       r.MaxPacketAmount,
		MinBalance:            r.MinBalance,
		AmountPerMinuteLimit:  r.AmountPerMinuteLimit,
		PacketsPerMinuteLimit: r.PacketsPerMinuteLimit,
		SettleThreshold:       r.SettleThreshold,
		SettleTo:              r.SettleTo,
		SettlementEngineURL:   r.SettlementEngineURL,
		RoutingRelation:       domain.RoutingRelation(r.RoutingRelation),
		RoundTripTime:         r.RoundTripTime,
	}
}

// SettingsRequest is the self-service patch payload; absent fields stay
// unchanged.
type SettingsRequest struct {
	HTTPIncomingToken   *string `json:"http_incoming_token,omitempty"`
	HTTPOutgoingToken   *string `json:"http_outgoing_token,omitempty"`
	BTPIncomingToken    *string `json:"btp_incoming_token,omitempty"`
	BTPOutgoingToken    *string `json:"btp_outgoing_token,omitempty"`
	HTTPEndpoint        *string `json:"http_endpoint,omitempty"`
	BTPURI              *string `json:"btp_uri,omitempty"`
	SettleThreshold     *int64  `json:"settle_threshold,omitempty"`
	SettleTo            *uint64 `json:"settle_to,omitempty"`
	SettlementEngineURL *string `json:"settlement_engine_url,omitempty"`
}

// ToSettings converts the request to the domain payload.
func (r *SettingsRequest) ToSettings() domain.AccountSettings {
	return domain.AccountSettings{
		HTTPIncomingToken:   r.HTTPIncomingToken,
		HTTPOutgoingToken:   r.HTTPOutgoingToken,
		BTPIncomingToken:    r.BTPIncomingToken,
		BTPOutgoingToken:    r.BTPOutgoingToken,
		HTTPEndpoint:        r.HTTPEndpoint,
		BTPURI:              r.BTPURI,
		SettleThreshold:     r.SettleThreshold,
		SettleTo:            r.SettleTo,
		SettlementEngineURL: r.SettlementEngineURL,
	}
}

// AccountResponse mirrors the stored account. Incoming tokens are redacted;
// they act as passwords.
type AccountResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ILPAddress string `json:"ilp_address,omitempty"`
	AssetCode  string `json:"asset_code"`
	AssetScale uint8  `json:"asset_scale"`

	HTTPEndpoint string `json:"http_endpoint,omitempty"`
	BTPURI       string `json:"btp_uri,omitempty"`

	MaxPacketAmount       uint64  `json:"max_packet_amount,omitempty"`
	MinBalance            *int64  `json:"min_balance,omitempty"`
	AmountPerMinuteLimit  *uint64 `json:"amount_per_minute_limit,omitempty"`
	PacketsPerMinuteLimit *uint32 `json:"packets_per_minute_limit,omitempty"`

	SettleThreshold     *int64  `json:"settle_threshold,omitempty"`
	SettleTo            *uint64 `json:"settle_to,omitempty"`
	SettlementEngineURL string  `json:"settlement_engine_url,omitempty"`

	RoutingRelation string `json:"routing_relation"`
	RoundTripTime   uint32 `json:"round_trip_time,omitempty"`
	SettlementAlert string `json:"settlement_alert,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account to its API shape.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:                    a.ID,
		Username:              a.Username,
		ILPAddress:            a.ILPAddress,
		AssetCode:             a.AssetCode,
		AssetScale:            a.AssetScale,
		HTTPEndpoint:          a.HTTPEndpoint,
		BTPURI:                a.BTPURI,
		MaxPacketAmount:       a.MaxPacketAmount,
		MinBalance:            a.MinBalance,
		AmountPerMinuteLimit:  a.AmountPerMinuteLimit,
		PacketsPerMinuteLimit: a.PacketsPerMinuteLimit,
		SettleThreshold:       a.SettleThreshold,
		SettleTo:              a.SettleTo,
		SettlementEngineURL:   a.SettlementEngineURL,
		RoutingRelation:       string(a.RoutingRelation),
		RoundTripTime:         a.RoundTripTime,
		SettlementAlert:       a.SettlementAlert,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

// AccountsFromDomain converts a list.
func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountFromDomain(a))
	}
	return out
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// BalanceResponse is the display read of an account balance.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
	AssetCode string `json:"asset_code"`
}
