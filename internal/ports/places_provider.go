package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Resolves a free-text query ("Golden Gate Park") to a place id.
// Returns an error matching domain.ErrNotFound when nothing matches.
type PlaceResolver interface {
	ResolvePlace(ctx context.Context, query string) (string, error)
}

// Returns name, address and opening windows for a place id.
type PlaceDetailsProvider interface {
	GetPlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error)
}

// Both place lookups, as served by a single places backend.
type PlacesProvider interface {
	PlaceResolver
	PlaceDetailsProvider
}
