package cache

import (
	"context"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"

	"github.com/samber/lo"
)

// TieredTravelTimeCache reads through its tiers in order, backfilling
// faster tiers with what slower ones had, and writes to every tier.
type TieredTravelTimeCache struct {
	tiers []ports.TravelTimeCache
}

func NewTieredTravelTimeCache(tiers ...ports.TravelTimeCache) *TieredTravelTimeCache {
	return &TieredTravelTimeCache{tiers: lo.Filter(tiers, func(c ports.TravelTimeCache, _ int) bool { return c != nil })}
}

func (t *TieredTravelTimeCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]int, error) {
	out := make(map[string]int, len(destinations))
	missing := uniqueKeys(destinations)

	for i, tier := range t.tiers {
		if len(missing) == 0 {
			break
		}
		hits, err := tier.GetMany(ctx, origin, missing)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			continue
		}

		for k, v := range hits {
			out[k] = v
		}
		for _, faster := range t.tiers[:i] {
			if err := faster.PutMany(ctx, origin, hits); err != nil {
				obs.Logger(ctx).WithError(err).Warn("travel time cache: backfill failed")
			}
		}
		missing = lo.Filter(missing, func(d string, _ int) bool {
			_, ok := hits[d]
			return !ok
		})
	}

	return out, nil
}

func (t *TieredTravelTimeCache) PutMany(ctx context.Context, origin string, durations map[string]int) error {
	for _, tier := range t.tiers {
		if err := tier.PutMany(ctx, origin, durations); err != nil {
			return err
		}
	}
	return nil
}
