package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/ilpnode/internal/domain"
)

// BalanceStore implements usecase.BalanceStore. All mutation goes through
// one Lua script, which is the serialization point for concurrent packet
// flows: the floor check, the write and the settlement-trigger emission
// commit together or not at all.
type BalanceStore struct {
	client *redis.Client
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(client *redis.Client) *BalanceStore {
	return &BalanceStore{client: client}
}

// adjustScript applies the delta with a floor check and pushes a settlement
// trigger when the balance crosses the threshold from below.
//
//	KEYS[1] balance key     KEYS[2] outbox key
//	ARGV[1] delta           ARGV[2] min_balance or ''
//	ARGV[3] threshold or '' ARGV[4] settle_to
//	ARGV[5] account id      ARGV[6] now (unix millis)
//
// Returns {0, balance} on a floor breach, {1, newBalance} on commit.
var adjustScript = redis.NewScript(`
local balance = tonumber(redis.call('GET', KEYS[1]) or '0')
local delta = tonumber(ARGV[1])
local new = balance + delta
if ARGV[2] ~= '' and new < tonumber(ARGV[2]) then
	return {0, balance}
end
redis.call('SET', KEYS[1], new)
if ARGV[3] ~= '' and delta > 0 then
	local threshold = tonumber(ARGV[3])
	if balance < threshold and new >= threshold then
		local trigger = cjson.encode({
			account_id = ARGV[5],
			amount = new - tonumber(ARGV[4]),
			balance = new,
			emitted_at = tonumber(ARGV[6]),
		})
		redis.call('LPUSH', KEYS[2], trigger)
	end
end
return {1, new}
`)

// AdjustBalance atomically adds delta to the account's balance.
func (s *BalanceStore) AdjustBalance(ctx context.Context, account *domain.Account, delta int64) (int64, error) {
	minBalance := ""
	if account.MinBalance != nil {
		minBalance = fmt.Sprintf("%d", *account.MinBalance)
	}
	threshold := ""
	if account.SettlementConfigured() {
		threshold = fmt.Sprintf("%d", *account.SettleThreshold)
	}

	res, err := adjustScript.Run(ctx, s.client,
		[]string{balanceKey(account.ID), settlementOutboxKey},
		delta, minBalance, threshold, account.SettleTarget(), account.ID, time.Now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("adjust balance: unexpected script reply %v", res)
	}
	if res[0] == 0 {
		return res[1], domain.ErrBalanceLimitExceeded
	}
	return res[1], nil
}

// GetBalance reads the stored balance; missing keys read as zero so that
// accounts created before the balance key existed still resolve.
func (s *BalanceStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	balance, err := s.client.Get(ctx, balanceKey(accountID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}
