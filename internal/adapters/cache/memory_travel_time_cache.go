package cache

import (
	"context"
	"errors"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryTravelTimeCache keeps travel times for the life of the process.
// It is the first tier in front of Redis or SQL.
type MemoryTravelTimeCache struct {
	m *xsync.MapOf[string, int]
}

func NewMemoryTravelTimeCache() *MemoryTravelTimeCache {
	return &MemoryTravelTimeCache{m: xsync.NewMapOf[string, int]()}
}

func (c *MemoryTravelTimeCache) GetMany(_ context.Context, origin string, destinations []string) (map[string]int, error) {
	if origin == "" {
		return nil, errors.New("get travel time cache: origin must not be empty")
	}
	out := make(map[string]int, len(destinations))
	for _, d := range uniqueKeys(destinations) {
		if v, ok := c.m.Load(origin + "|" + d); ok {
			out[d] = v
		}
	}
	return out, nil
}

func (c *MemoryTravelTimeCache) PutMany(_ context.Context, origin string, durations map[string]int) error {
	if origin == "" {
		return errors.New("insert travel time cache: origin must not be empty")
	}
	for d, v := range durations {
		c.m.Store(origin+"|"+d, v)
	}
	return nil
}

func (c *MemoryTravelTimeCache) Len() int { return c.m.Size() }
