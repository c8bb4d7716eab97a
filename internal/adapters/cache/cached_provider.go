package cache

import (
	"context"
	"fmt"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"
)

// CachedTravelTimeProvider answers travel-time lookups from a cache and
// only asks the wrapped provider for misses. Cache failures are logged
// and never fail a lookup.
//
// It always implements ports.TravelTimeMatrixProvider; misses are batched
// when the wrapped provider supports it.
type CachedTravelTimeProvider struct {
	inner ports.TravelTimeProvider
	cache ports.TravelTimeCache
}

func NewCachedTravelTimeProvider(inner ports.TravelTimeProvider, cache ports.TravelTimeCache) *CachedTravelTimeProvider {
	return &CachedTravelTimeProvider{inner: inner, cache: cache}
}

func (c *CachedTravelTimeProvider) GetTravelDuration(ctx context.Context, originID, destinationID string) (int, error) {
	got, err := c.GetTravelDurations(ctx, originID, []string{destinationID})
	if err != nil {
		return 0, err
	}
	d, ok := got[destinationID]
	if !ok {
		return 0, fmt.Errorf("no duration for %q -> %q: %w", originID, destinationID, domain.ErrNotFound)
	}
	return d, nil
}

func (c *CachedTravelTimeProvider) GetTravelDurations(ctx context.Context, originID string, destinationIDs []string) (map[string]int, error) {
	dests := uniqueKeys(destinationIDs)
	out := make(map[string]int, len(dests))

	// Check the cache before issuing external calls.
	hits, err := c.cache.GetMany(ctx, originID, dests)
	if err != nil {
		obs.Logger(ctx).WithError(err).Warn("travel time cache read failed")
		hits = nil
	}
	for k, v := range hits {
		out[k] = v
	}

	misses := make([]string, 0, len(dests))
	for _, d := range dests {
		if _, ok := out[d]; !ok {
			misses = append(misses, d)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched := make(map[string]int, len(misses))
	if mp, ok := c.inner.(ports.TravelTimeMatrixProvider); ok {
		fetched, err = mp.GetTravelDurations(ctx, originID, misses)
		if err != nil {
			return nil, err
		}
	} else {
		for _, d := range misses {
			m, err := c.inner.GetTravelDuration(ctx, originID, d)
			if err != nil {
				return nil, err
			}
			fetched[d] = m
		}
	}

	if err := c.cache.PutMany(ctx, originID, fetched); err != nil {
		obs.Logger(ctx).WithError(err).Warn("travel time cache write failed")
	}

	for k, v := range fetched {
		out[k] = v
	}
	return out, nil
}
