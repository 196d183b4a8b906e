package usecase

import "time"

const (
	// SettlementInFlightTTL bounds how long the per-account in-flight flag
	// can linger after a crash before reconciliation may re-trigger.
	SettlementInFlightTTL = 5 * time.Minute

	// MaxEngineAttempts bounds settlement engine retries before the account
	// is flagged for operator attention.
	MaxEngineAttempts = 5
)
