package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RateStore implements usecase.RateStore on one hash. Replacement runs in
// MULTI; HGETALL is atomic, so readers always get one consistent rate set.
type RateStore struct {
	client *redis.Client
}

// NewRateStore creates a new RateStore.
func NewRateStore(client *redis.Client) *RateStore {
	return &RateStore{client: client}
}

// ReplaceRates swaps the whole table.
func (s *RateStore) ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ratesKey)
		if len(rates) > 0 {
			flat := make([]interface{}, 0, len(rates)*2)
			for code, rate := range rates {
				flat = append(flat, code, rate.String())
			}
			pipe.HSet(ctx, ratesKey, flat...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace rates: %w", err)
	}
	return nil
}

// GetAllRates reads the current table.
func (s *RateStore) GetAllRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	raw, err := s.client.HGetAll(ctx, ratesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get rates: %w", err)
	}
	rates := make(map[string]decimal.Decimal, len(raw))
	for code, val := range raw {
		rate, err := decimal.NewFromString(val)
		if err != nil {
			return nil, fmt.Errorf("decode rate for %s: %w", code, err)
		}
		rates[code] = rate
	}
	return rates, nil
}
