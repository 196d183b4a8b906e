package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SettlementStore implements usecase.SettlementStore: the per-account
// in-flight flag and the idempotency-guarded incoming credit.
type SettlementStore struct {
	client         *redis.Client
	idempotencyTTL time.Duration
}

// NewSettlementStore creates a new SettlementStore.
func NewSettlementStore(client *redis.Client, idempotencyTTL time.Duration) *SettlementStore {
	return &SettlementStore{client: client, idempotencyTTL: idempotencyTTL}
}

// AcquireInFlight claims the account's settlement slot. SET NX EX makes the
// claim atomic; the TTL bounds how long a crashed attempt can block the
// account.
func (s *SettlementStore) AcquireInFlight(ctx context.Context, accountID, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, inFlightKey(accountID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire in-flight flag: %w", err)
	}
	return ok, nil
}

// releaseScript deletes the flag only while token still owns it, so a slow
// attempt cannot release a successor's claim after its own TTL expired.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// ReleaseInFlight clears the flag if token owns it.
func (s *SettlementStore) ReleaseInFlight(ctx context.Context, accountID, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{inFlightKey(accountID)}, token).Err(); err != nil {
		return fmt.Errorf("release in-flight flag: %w", err)
	}
	return nil
}

// creditScript checks the idempotency key and applies the credit in one
// atomic step, closing the race between two concurrent deliveries of the
// same notification.
//
//	KEYS[1] idempotency key  KEYS[2] balance key
//	ARGV[1] amount           ARGV[2] key TTL seconds
//
// Returns {0, balance} on replay, {1, newBalance} when applied.
var creditScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return {0, tonumber(redis.call('GET', KEYS[2]) or '0')}
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
local new = redis.call('INCRBY', KEYS[2], ARGV[1])
return {1, new}
`)

// CreditIncoming applies an incoming settlement exactly once per key.
func (s *SettlementStore) CreditIncoming(ctx context.Context, accountID string, amount uint64, key string) (int64, bool, error) {
	res, err := creditScript.Run(ctx, s.client,
		[]string{idempotencyKey(key), balanceKey(accountID)},
		amount, int(s.idempotencyTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("credit incoming settlement: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("credit incoming settlement: unexpected script reply %v", res)
	}
	return res[1], res[0] == 1, nil
}
