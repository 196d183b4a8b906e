package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ilpnode/internal/domain"
)

// The store is split into narrow capability interfaces so each use case
// depends only on the operations it needs. A single Redis-backed adapter
// satisfies all of them.

// AccountRepository defines data access for account records and the derived
// username index.
type AccountRepository interface {
	// Insert stores a new account; fails with domain.ErrDuplicateUsername if
	// the username index already holds an entry, atomically with the write.
	Insert(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	// Delete removes the account, its balance key and its username index
	// entry, returning the removed record.
	Delete(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	SetSettlementAlert(ctx context.Context, id, message string) error
}

// BalanceStore defines atomic balance mutation. Implementations must commit
// the floor check, the adjustment and the settlement-trigger emission as one
// atomic operation.
type BalanceStore interface {
	// AdjustBalance adds delta to the stored balance, failing with
	// domain.ErrBalanceLimitExceeded (balance unchanged) if the result would
	// drop below the account's min_balance. When the adjustment crosses the
	// settle threshold from below, a domain.SettlementTrigger is appended to
	// the durable outbox in the same atomic step. Returns the new balance.
	AdjustBalance(ctx context.Context, account *domain.Account, delta int64) (int64, error)
	// GetBalance is a point-in-time read; it may lag in-flight adjustments.
	GetBalance(ctx context.Context, accountID string) (int64, error)
}

// SettlementStore defines the idempotency and in-flight primitives for the
// settlement coordinator.
type SettlementStore interface {
	// AcquireInFlight sets the per-account in-flight flag. Returns false if
	// another settlement attempt already holds it.
	AcquireInFlight(ctx context.Context, accountID, token string, ttl time.Duration) (bool, error)
	// ReleaseInFlight clears the flag, but only if token still owns it.
	ReleaseInFlight(ctx context.Context, accountID, token string) error
	// CreditIncoming applies an incoming settlement credit exactly once per
	// idempotency key: the key check and the balance credit happen in one
	// atomic scripted operation. Returns the new balance and whether the
	// credit was applied (false means the key was seen before).
	CreditIncoming(ctx context.Context, accountID string, amount uint64, idempotencyKey string) (int64, bool, error)
}

// OutboxRepository is the durable queue of settlement triggers.
type OutboxRepository interface {
	Enqueue(ctx context.Context, trigger *domain.SettlementTrigger) error
	// Dequeue blocks up to timeout and returns nil when the outbox is empty.
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.SettlementTrigger, error)
}

// RouteStore defines data access for the routing table. Replacements are
// atomic: concurrent readers observe either the old or the new set.
type RouteStore interface {
	ReplaceStaticRoutes(ctx context.Context, routes map[string]string) error
	UpsertStaticRoute(ctx context.Context, prefix, accountID string) error
	ReplaceLearnedRoutes(ctx context.Context, routes map[string]string) error
	GetAllRoutes(ctx context.Context) (static, learned map[string]string, err error)
	// RemoveRoutesForAccount prunes entries left dangling by account deletion.
	RemoveRoutesForAccount(ctx context.Context, accountID string) error
}

// RateStore defines data access for the exchange rate table.
type RateStore interface {
	ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal) error
	GetAllRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// SettlementEngineClient talks to an account's external settlement engine.
type SettlementEngineClient interface {
	// SendSettlement asks the engine to move amount (in the given asset
	// scale) to the counterparty. Implementations retry transient failures
	// with bounded backoff and return domain.ErrEngineUnreachable once
	// exhausted.
	SendSettlement(ctx context.Context, engineURL, accountID string, amount uint64, scale uint8, idempotencyKey string) error
}

// SettlementArchive persists confirmed settlements for audit.
type SettlementArchive interface {
	Record(ctx context.Context, rec *domain.SettlementRecord) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.SettlementRecord, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ForwardRequest is a decoded forwarding decision handed to the core by the
// packet pipeline. The core never parses packet payloads; Data is opaque.
type ForwardRequest struct {
	DestinationAddress string
	Amount             uint64
	ExpiresAt          time.Time
	Data               []byte
}

// ForwardResult is the outcome of relaying a packet to the next hop.
type ForwardResult struct {
	Fulfilled bool
	// Code is an ILP rejection code ("F02", "T04", ...) when not fulfilled.
	Code    string
	Message string
	Data    []byte
}

// OutgoingService relays a prepared packet to the next-hop account. The
// actual transport (HTTP, BTP) lives outside the core.
type OutgoingService interface {
	SendPacket(ctx context.Context, to *domain.Account, req ForwardRequest) (ForwardResult, error)
}

// IncomingService is the boundary the protocol adapters call with inbound
// packets. ForwardingUseCase implements it.
type IncomingService interface {
	HandlePacket(ctx context.Context, from *domain.Account, req ForwardRequest) (ForwardResult, error)
}
