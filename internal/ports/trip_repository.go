package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Port: a boundary for storing computed trips.
type TripRepository interface {
	// Store the trip with its days and events, returning an opaque key.
	Persist(ctx context.Context, trip *domain.Trip) (string, error)
	// Load a stored trip by key. Returns domain.ErrNotFound for unknown keys.
	Load(ctx context.Context, key string) (*domain.Trip, error)
	// List every stored trip, oldest first. Days are not loaded.
	List(ctx context.Context) ([]*domain.Trip, error)
}
