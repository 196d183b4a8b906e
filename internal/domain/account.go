package domain

import (
	"time"
)

// RoutingRelation describes how a counterparty relates to this node in the
// ILP routing hierarchy.
type RoutingRelation string

const (
	RelationPeer     RoutingRelation = "peer"
	RelationParent   RoutingRelation = "parent"
	RelationChild    RoutingRelation = "child"
	RelationInternal RoutingRelation = "internal"
)

// Valid reports whether the relation is one of the known values.
func (r RoutingRelation) Valid() bool {
	switch r {
	case RelationPeer, RelationParent, RelationChild, RelationInternal:
		return true
	}
	return false
}

// Account is the trust relationship with one counterparty. Balances are
// signed integers denominated in the account's asset scale: a positive
// balance is what this node owes the counterparty, a negative balance is
// what the counterparty owes the node.
type Account struct {
	ID         string
	Username   string
	ILPAddress string // optional override of the derived address

	AssetCode  string
	AssetScale uint8

	// Credentials for authenticating counterparty traffic (incoming) and
	// for presenting ourselves to the counterparty (outgoing).
	HTTPEndpoint      string
	HTTPIncomingToken string
	HTTPOutgoingToken string
	BTPURI            string
	BTPIncomingToken  string
	BTPOutgoingToken  string

	MaxPacketAmount       uint64 // zero means unlimited
	MinBalance            *int64
	AmountPerMinuteLimit  *uint64
	PacketsPerMinuteLimit *uint32

	SettleThreshold     *int64
	SettleTo            *uint64
	SettlementEngineURL string

	RoutingRelation RoutingRelation
	RoundTripTime   uint32

	// SettlementAlert is set when outgoing settlement attempts have been
	// exhausted and the account needs operator attention.
	SettlementAlert string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SettlementConfigured reports whether the account can trigger outgoing
// settlements at all.
func (a *Account) SettlementConfigured() bool {
	return a.SettleThreshold != nil && a.SettlementEngineURL != ""
}

// SettleTarget is the balance settlement aims to restore. Defaults to zero
// and is never negative: the node must not pre-fund a counterparty.
func (a *Account) SettleTarget() int64 {
	if a.SettleTo == nil {
		return 0
	}
	return int64(*a.SettleTo)
}

// AccountDetails is the administrative insert/update payload. Identity and
// asset fields are immutable after creation; update ignores them.
type AccountDetails struct {
	Username   string
	ILPAddress string
	AssetCode  string
	AssetScale uint8

	HTTPEndpoint      string
	HTTPIncomingToken string
	HTTPOutgoingToken string
	BTPURI            string
	BTPIncomingToken  string
	BTPOutgoingToken  string

	MaxPacketAmount       uint64
	MinBalance            *int64
	AmountPerMinuteLimit  *uint64
	PacketsPerMinuteLimit *uint32

	SettleThreshold     *int64
	SettleTo            *uint64
	SettlementEngineURL string

	RoutingRelation RoutingRelation
	RoundTripTime   uint32
}

// AccountSettings is the self-service subset of AccountDetails: the fields a
// counterparty may re-configure about itself (tokens act as passwords, the
// endpoints may move, settlement preferences may change). Nil leaves the
// field untouched.
type AccountSettings struct {
	HTTPIncomingToken *string
	HTTPOutgoingToken *string
	BTPIncomingToken  *string
	BTPOutgoingToken  *string
	HTTPEndpoint      *string
	BTPURI            *string
	SettleThreshold   *int64
	// Unsigned on purpose: a user must never set settle_to negative, which
	// would make the node pre-fund them.
	SettleTo            *uint64
	SettlementEngineURL *string
}

// StaticRoute binds an ILP address prefix to an account.
type StaticRoute struct {
	Prefix    string
	AccountID string
}
