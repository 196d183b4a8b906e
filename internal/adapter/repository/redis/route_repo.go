package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RouteStore implements usecase.RouteStore. Static and learned routes live
// in separate hashes so the routing table can give static entries priority;
// whole-set replacement runs inside MULTI so concurrent readers see either
// the old or the new set, never a mix.
type RouteStore struct {
	client *redis.Client
}

// NewRouteStore creates a new RouteStore.
func NewRouteStore(client *redis.Client) *RouteStore {
	return &RouteStore{client: client}
}

func (s *RouteStore) replace(ctx context.Context, key string, routes map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(routes) > 0 {
			flat := make([]interface{}, 0, len(routes)*2)
			for prefix, id := range routes {
				flat = append(flat, prefix, id)
			}
			pipe.HSet(ctx, key, flat...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace routes %s: %w", key, err)
	}
	return nil
}

// ReplaceStaticRoutes swaps the whole static route set.
func (s *RouteStore) ReplaceStaticRoutes(ctx context.Context, routes map[string]string) error {
	return s.replace(ctx, staticRoutesKey, routes)
}

// ReplaceLearnedRoutes swaps the whole learned route set.
func (s *RouteStore) ReplaceLearnedRoutes(ctx context.Context, routes map[string]string) error {
	return s.replace(ctx, learnedRoutesKey, routes)
}

// UpsertStaticRoute sets one static entry.
func (s *RouteStore) UpsertStaticRoute(ctx context.Context, prefix, accountID string) error {
	if err := s.client.HSet(ctx, staticRoutesKey, prefix, accountID).Err(); err != nil {
		return fmt.Errorf("upsert static route: %w", err)
	}
	return nil
}

// GetAllRoutes returns both route sets.
func (s *RouteStore) GetAllRoutes(ctx context.Context) (map[string]string, map[string]string, error) {
	static, err := s.client.HGetAll(ctx, staticRoutesKey).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("get static routes: %w", err)
	}
	learned, err := s.client.HGetAll(ctx, learnedRoutesKey).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("get learned routes: %w", err)
	}
	return static, learned, nil
}

// pruneScript drops every entry pointing at the deleted account, from both
// hashes, atomically.
var pruneScript = redis.NewScript(`
local removed = 0
for _, key in ipairs(KEYS) do
	local all = redis.call('HGETALL', key)
	for i = 1, #all, 2 do
		if all[i + 1] == ARGV[1] then
			redis.call('HDEL', key, all[i])
			removed = removed + 1
		end
	end
end
return removed
`)

// RemoveRoutesForAccount prunes routes left dangling by account deletion.
func (s *RouteStore) RemoveRoutesForAccount(ctx context.Context, accountID string) error {
	if err := pruneScript.Run(ctx, s.client, []string{staticRoutesKey, learnedRoutesKey}, accountID).Err(); err != nil {
		return fmt.Errorf("prune routes for account %s: %w", accountID, err)
	}
	return nil
}
