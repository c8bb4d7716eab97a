package ports

import "context"

// Contract for retrieving directed travel durations between places.
type TravelTimeProvider interface {
	// Return travel duration in whole minutes from origin to destination.
	GetTravelDuration(ctx context.Context, originID string, destinationID string) (int, error)
}

// Optional extension of TravelTimeProvider that supports batched lookups.
type TravelTimeMatrixProvider interface {
	TravelTimeProvider
	// Return durations in minutes from one origin to many destinations.
	GetTravelDurations(ctx context.Context, originID string, destinationIDs []string) (map[string]int, error)
}
