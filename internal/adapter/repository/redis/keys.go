package redis

// Key layout of the connector's ledger store. Balances live outside the
// account record so the Lua scripts can mutate them without touching the
// JSON blob.
const (
	accountKeyPrefix    = "accounts:"
	accountIndexKey     = "accounts:ids"
	usernameIndexKey    = "usernames"
	balanceKeyPrefix    = "balances:"
	alertKeyPrefix      = "settlement:alert:"
	inFlightKeyPrefix   = "settlement:inflight:"
	idempotencyPrefix   = "settlement:idempotency:"
	settlementOutboxKey = "settlement:outbox"
	staticRoutesKey     = "routes:static"
	learnedRoutesKey    = "routes:learned"
	ratesKey            = "rates:current"
)

func accountKey(id string) string    { return accountKeyPrefix + id }
func balanceKey(id string) string    { return balanceKeyPrefix + id }
func alertKey(id string) string      { return alertKeyPrefix + id }
func inFlightKey(id string) string   { return inFlightKeyPrefix + id }
func idempotencyKey(k string) string { return idempotencyPrefix + k }
