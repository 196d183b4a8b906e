package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// connectWindow bounds how long startup waits for the ledger store. Long
// enough to ride out a store restart during a rolling deploy, short enough
// that a misconfigured URL fails visibly.
const connectWindow = 15 * time.Second

// NewClient connects to the Redis ledger store. The node cannot serve a
// single packet without it, so connectivity is verified up front, retrying
// transient failures inside the connect window.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectWindow
	err = backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ledger store unreachable: %w", err)
	}

	return client, nil
}
