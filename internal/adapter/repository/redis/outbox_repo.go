package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/ilpnode/internal/domain"
)

// OutboxRepository implements usecase.OutboxRepository on a Redis list. The
// balance script pushes to the same list, so triggers survive restarts; the
// reconciliation pass covers entries lost between pop and processing.
type OutboxRepository struct {
	client *redis.Client
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(client *redis.Client) *OutboxRepository {
	return &OutboxRepository{client: client}
}

// Enqueue appends a trigger to the outbox.
func (r *OutboxRepository) Enqueue(ctx context.Context, trigger *domain.SettlementTrigger) error {
	if trigger.EmittedAt == 0 {
		trigger.EmittedAt = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(trigger)
	if err != nil {
		return err
	}
	if err := r.client.LPush(ctx, settlementOutboxKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue settlement trigger: %w", err)
	}
	return nil
}

// Dequeue pops the oldest trigger, blocking up to timeout. Returns nil when
// the outbox stayed empty.
func (r *OutboxRepository) Dequeue(ctx context.Context, timeout time.Duration) (*domain.SettlementTrigger, error) {
	res, err := r.client.BRPop(ctx, timeout, settlementOutboxKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue settlement trigger: %w", err)
	}
	// BRPOP replies [key, value].
	var trigger domain.SettlementTrigger
	if err := json.Unmarshal([]byte(res[1]), &trigger); err != nil {
		return nil, fmt.Errorf("decode settlement trigger: %w", err)
	}
	return &trigger, nil
}
