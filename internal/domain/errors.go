package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidField      = errors.New("invalid account field")

	// Balance errors
	ErrBalanceLimitExceeded = errors.New("adjustment would breach the account balance floor")

	// Settlement errors
	ErrSettlementInFlight = errors.New("settlement already in flight for account")
	ErrEngineUnreachable  = errors.New("settlement engine unreachable")
	ErrNoSettlementEngine = errors.New("account has no settlement engine configured")

	// Routing errors
	ErrNoRoute       = errors.New("no route for destination address")
	ErrInvalidPrefix = errors.New("invalid route prefix")

	// Exchange rate errors
	ErrRateUnknown = errors.New("no exchange rate for asset code")

	// Forwarding errors
	ErrAmountTooLarge = errors.New("amount too large for the ledger")
)
