package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"trip-planner-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

// RedisTravelTimeCache shares travel times between service instances.
// Each pair is one string key holding whole minutes.
type RedisTravelTimeCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisTravelTimeCache returns a cache storing keys under prefix. A zero
// ttl keeps entries until evicted.
func NewRedisTravelTimeCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTravelTimeCache {
	if prefix == "" {
		prefix = "traveltime"
	}
	return &RedisTravelTimeCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisTravelTimeCache) key(origin, dest string) string {
	return r.prefix + ":" + origin + ":" + dest
}

func (r *RedisTravelTimeCache) GetMany(ctx context.Context, origin string, destinations []string) (_ map[string]int, err error) {
	defer obs.Time(ctx, "traveltime.cache.redis.GetMany")(&err)

	if origin == "" {
		return nil, errors.New("get travel time cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]int{}, nil
	}

	keys := make([]string, len(uniq))
	for i, d := range uniq {
		keys[i] = r.key(origin, d)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get travel time cache: redis mget: %w", err)
	}

	out := make(map[string]int, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// nil for a missing key
			continue
		}
		minutes, err := strconv.Atoi(s)
		if err != nil {
			obs.Logger(ctx).WithField("key", keys[i]).Warn("travel time cache: dropping unparsable redis value")
			continue
		}
		out[uniq[i]] = minutes
	}

	return out, nil
}

func (r *RedisTravelTimeCache) PutMany(ctx context.Context, origin string, durations map[string]int) (err error) {
	defer obs.Time(ctx, "traveltime.cache.redis.PutMany")(&err)

	if origin == "" {
		return errors.New("insert travel time cache: origin must not be empty")
	}
	if len(durations) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for dest, minutes := range durations {
		if dest == "" {
			return errors.New("insert travel time cache: empty destination key")
		}
		pipe.Set(ctx, r.key(origin, dest), minutes, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert travel time cache: redis pipeline: %w", err)
	}

	return nil
}
