package domain

import "time"

// SettlementTrigger is the durable outbox event emitted when a balance
// crosses the account's settle threshold. Amount is advisory: the
// coordinator re-derives it from current state before calling the engine.
type SettlementTrigger struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Balance   int64  `json:"balance"`
	EmittedAt int64  `json:"emitted_at"` // unix millis, set by the store
}

// SettlementDirection distinguishes archived settlement rows.
type SettlementDirection string

const (
	SettlementOutgoing SettlementDirection = "outgoing"
	SettlementIncoming SettlementDirection = "incoming"
)

// SettlementRecord is an archived, confirmed settlement.
type SettlementRecord struct {
	ID             string
	AccountID      string
	Direction      SettlementDirection
	Amount         uint64
	AssetCode      string
	AssetScale     uint8
	IdempotencyKey string
	EngineURL      string
	ConfirmedAt    time.Time
}
