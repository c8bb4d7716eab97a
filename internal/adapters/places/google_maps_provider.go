package places

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"

	"googlemaps.github.io/maps"
)

// The Distance Matrix API accepts at most 25 destinations per request.
const maxMatrixDestinations = 25

// mapsClient is the subset of *maps.Client the provider uses.
type mapsClient interface {
	FindPlaceFromText(ctx context.Context, r *maps.FindPlaceFromTextRequest) (maps.FindPlaceFromTextResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// GoogleMapsProvider implements ports.PlacesProvider and
// ports.TravelTimeMatrixProvider on the Google Maps web services.
//
// Retries live in the services layer; this type makes exactly one call per
// request and reports missing places as domain.ErrNotFound.
type GoogleMapsProvider struct {
	client mapsClient
	mode   maps.Mode
}

type GoogleMapsOptions struct {
	APIKey string
	// driving, walking, bicycling or transit. Empty means driving.
	TravelMode string
	// Requests per second; zero keeps the client default.
	RateLimit int
}

func NewGoogleMapsProvider(opts GoogleMapsOptions) (*GoogleMapsProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("google maps api key is empty")
	}

	mode, err := parseMode(opts.TravelMode)
	if err != nil {
		return nil, err
	}

	clientOpts := []maps.ClientOption{maps.WithAPIKey(opts.APIKey)}
	if opts.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(opts.RateLimit))
	}
	c, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google maps client: %w", err)
	}

	return &GoogleMapsProvider{client: c, mode: mode}, nil
}

func parseMode(s string) (maps.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "driving":
		return maps.TravelModeDriving, nil
	case "walking":
		return maps.TravelModeWalking, nil
	case "bicycling":
		return maps.TravelModeBicycling, nil
	case "transit":
		return maps.TravelModeTransit, nil
	}
	return "", domain.NewValidationError("GOOGLE_TRAVEL_MODE", "unknown travel mode %q", s)
}

func (g *GoogleMapsProvider) ResolvePlace(ctx context.Context, query string) (_ string, err error) {
	defer obs.Time(ctx, "google.ResolvePlace")(&err)

	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return "", domain.NewValidationError("query", "must not be empty")
	}

	resp, err := g.client.FindPlaceFromText(ctx, &maps.FindPlaceFromTextRequest{
		Input:     query,
		InputType: maps.FindPlaceFromTextInputTypeTextQuery,
		Fields:    []maps.PlaceSearchFieldMask{maps.PlaceSearchFieldMaskPlaceID},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].PlaceID == "" {
		return "", fmt.Errorf("no place matches %q: %w", query, domain.ErrNotFound)
	}

	return resp.Candidates[0].PlaceID, nil
}

func (g *GoogleMapsProvider) GetPlaceDetails(ctx context.Context, placeID string) (_ domain.PlaceDetails, err error) {
	defer obs.Time(ctx, "google.GetPlaceDetails")(&err)

	res, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskPlaceID,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskOpeningHours,
		},
	})
	if err != nil {
		return domain.PlaceDetails{}, classify(err)
	}

	d := domain.PlaceDetails{
		PlaceID: res.PlaceID,
		Name:    res.Name,
		Address: res.FormattedAddress,
	}
	if d.PlaceID == "" {
		d.PlaceID = placeID
	}
	if res.OpeningHours != nil {
		d.OpeningWindows, err = WindowsFromPeriods(res.OpeningHours.Periods)
		if err != nil {
			return domain.PlaceDetails{}, fmt.Errorf("place %q opening hours: %w", placeID, err)
		}
	}

	return d, nil
}

func (g *GoogleMapsProvider) GetTravelDuration(ctx context.Context, originID, destinationID string) (int, error) {
	got, err := g.GetTravelDurations(ctx, originID, []string{destinationID})
	if err != nil {
		return 0, err
	}
	d, ok := got[destinationID]
	if !ok {
		return 0, fmt.Errorf("no duration for %q -> %q: %w", originID, destinationID, domain.ErrNotFound)
	}
	return d, nil
}

// GetTravelDurations returns whole minutes, rounded up, from one origin to
// many destinations. Destinations are chunked to the API limit.
func (g *GoogleMapsProvider) GetTravelDurations(ctx context.Context, originID string, destinationIDs []string) (_ map[string]int, err error) {
	defer obs.Time(ctx, "google.GetTravelDurations")(&err)

	out := make(map[string]int, len(destinationIDs))
	for start := 0; start < len(destinationIDs); start += maxMatrixDestinations {
		chunk := destinationIDs[start:min(start+maxMatrixDestinations, len(destinationIDs))]

		dests := make([]string, len(chunk))
		for i, id := range chunk {
			dests[i] = "place_id:" + id
		}

		resp, err := g.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
			Origins:      []string{"place_id:" + originID},
			Destinations: dests,
			Mode:         g.mode,
		})
		if err != nil {
			return nil, classify(err)
		}
		if len(resp.Rows) != 1 || len(resp.Rows[0].Elements) != len(chunk) {
			return nil, fmt.Errorf("distance matrix: unexpected response shape for origin %q", originID)
		}

		for i, el := range resp.Rows[0].Elements {
			if el == nil || el.Status != "OK" {
				status := "missing"
				if el != nil {
					status = el.Status
				}
				return nil, fmt.Errorf("distance matrix %q -> %q: status %s: %w", originID, chunk[i], status, domain.ErrNotFound)
			}
			out[chunk[i]] = int(math.Ceil(el.Duration.Minutes()))
		}
	}

	return out, nil
}

// classify marks permanent API answers as not found so they are not retried.
// The client reports API status codes in the error text.
func classify(err error) error {
	msg := err.Error()
	for _, permanent := range []string{"NOT_FOUND", "ZERO_RESULTS", "INVALID_REQUEST"} {
		if strings.Contains(msg, permanent) {
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
	}
	return err
}
