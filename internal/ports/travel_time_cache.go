package ports

import "context"

// Cache of origin->destination travel durations in minutes.
// Keys are place ids and are expected to be consistent by the caller.
type TravelTimeCache interface {
	GetMany(ctx context.Context, originID string, destinationIDs []string) (map[string]int, error)
	PutMany(ctx context.Context, originID string, durations map[string]int) error
}
