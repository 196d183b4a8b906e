package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/ilpnode/internal/domain"
)

// AccountRepository implements usecase.AccountRepository on Redis. The
// account record is a JSON blob under accounts:<id>; the username index and
// the balance key are maintained atomically with it via Lua scripts and
// MULTI pipelines.
type AccountRepository struct {
	client *redis.Client
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(client *redis.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

// insertScript claims the username, writes the record, registers the id and
// initializes the balance in one atomic step. Returns 0 when the username is
// already taken.
var insertScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[3])
redis.call('ZADD', KEYS[3], ARGV[4], ARGV[2])
redis.call('SETNX', KEYS[4], '0')
return 1
`)

// Insert stores a new account, failing with domain.ErrDuplicateUsername if
// the username index already holds an entry.
func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}

	ok, err := insertScript.Run(ctx, r.client,
		[]string{usernameIndexKey, accountKey(account.ID), accountIndexKey, balanceKey(account.ID)},
		account.Username, account.ID, payload, account.CreatedAt.UnixMilli(),
	).Int()
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateUsername, account.Username)
	}
	return nil
}

// GetByID loads the account record plus its settlement alert flag.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	vals, err := r.client.MGet(ctx, accountKey(id), alertKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	var account domain.Account
	if err := json.Unmarshal([]byte(raw), &account); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}
	if alert, ok := vals[1].(string); ok {
		account.SettlementAlert = alert
	}
	return &account, nil
}

// GetByUsername resolves the username index, then loads by id.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	id, err := r.client.HGet(ctx, usernameIndexKey, username).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve username: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update replaces the stored record. Username and id are immutable by the
// use-case contract, so the index needs no maintenance here.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// SET XX: never resurrect a concurrently deleted account.
	set, err := r.client.SetXX(ctx, accountKey(account.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if !set {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes the record and every derived key in one MULTI transaction.
func (r *AccountRepository) Delete(ctx context.Context, id string) (*domain.Account, error) {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, accountKey(id), balanceKey(id), alertKey(id), inFlightKey(id))
		pipe.ZRem(ctx, accountIndexKey, id)
		pipe.HDel(ctx, usernameIndexKey, account.Username)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete account: %w", err)
	}
	return account, nil
}

// List pages through accounts in insertion order.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	ids, err := r.client.ZRange(ctx, accountIndexKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Account{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = accountKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]*domain.Account, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Deleted between ZRANGE and MGET.
			continue
		}
		var account domain.Account
		if err := json.Unmarshal([]byte(raw), &account); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, &account)
	}
	return accounts, nil
}

// SetSettlementAlert records a persistent alert for operator attention. The
// flag lives in its own key so setting it never races admin updates of the
// record itself.
func (r *AccountRepository) SetSettlementAlert(ctx context.Context, id, message string) error {
	exists, err := r.client.Exists(ctx, accountKey(id)).Result()
	if err != nil {
		return fmt.Errorf("set settlement alert: %w", err)
	}
	if exists == 0 {
		return domain.ErrAccountNotFound
	}
	if message == "" {
		return r.client.Del(ctx, alertKey(id)).Err()
	}
	return r.client.Set(ctx, alertKey(id), message, 0).Err()
}
