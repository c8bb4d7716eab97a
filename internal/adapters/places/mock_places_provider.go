package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"trip-planner-service/internal/domain"
)

// ErrMockUnavailable is what injected failures return. It is retryable.
var ErrMockUnavailable = errors.New("mock provider unavailable")

type MockPlace struct {
	ID      string                 `json:"id"`
	Query   string                 `json:"query"`
	Name    string                 `json:"name"`
	Address string                 `json:"address"`
	Windows []domain.OpeningWindow `json:"windows"`
}

type MockPair struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Minutes int    `json:"minutes"`
}

// MockProvider serves places and travel times from memory. It implements
// ports.PlacesProvider and ports.TravelTimeProvider but deliberately not
// the batched matrix port; wrap it in MockMatrixProvider for that.
type MockProvider struct {
	places  map[string]MockPlace
	byQuery map[string]string
	pairs   map[string]int

	mu       sync.Mutex
	failures map[string]int

	calls atomic.Int64
}

func NewMockProvider(places []MockPlace, pairs []MockPair) *MockProvider {
	p := &MockProvider{
		places:   make(map[string]MockPlace, len(places)),
		byQuery:  make(map[string]string, len(places)),
		pairs:    make(map[string]int, len(pairs)),
		failures: make(map[string]int),
	}
	for _, pl := range places {
		p.places[pl.ID] = pl
		if pl.Query != "" {
			p.byQuery[normalizeQuery(pl.Query)] = pl.ID
		}
	}
	for _, pr := range pairs {
		p.pairs[pairKey(pr.From, pr.To)] = pr.Minutes
	}
	return p
}

type mockFixture struct {
	Places []MockPlace `json:"places"`
	Pairs  []MockPair  `json:"pairs"`
}

// LoadMockProvider reads a JSON fixture with "places" and "pairs" arrays.
func LoadMockProvider(path string) (*MockProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load mock places: read %s: %w", path, err)
	}
	var f mockFixture
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("load mock places: decode %s: %w", path, err)
	}
	return NewMockProvider(f.Places, f.Pairs), nil
}

// FailNext makes the next `times` calls for key return ErrMockUnavailable.
// Keys are a place id, a query, or "from|to" for travel lookups.
func (p *MockProvider) FailNext(key string, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[key] += times
}

// Calls counts every lookup, failed or not.
func (p *MockProvider) Calls() int64 { return p.calls.Load() }

func (p *MockProvider) injected(key string) error {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures[key] > 0 {
		p.failures[key]--
		return ErrMockUnavailable
	}
	return nil
}

func (p *MockProvider) ResolvePlace(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := p.injected(query); err != nil {
		return "", err
	}
	id, ok := p.byQuery[normalizeQuery(query)]
	if !ok {
		return "", fmt.Errorf("no place matches %q: %w", query, domain.ErrNotFound)
	}
	return id, nil
}

func (p *MockProvider) GetPlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlaceDetails{}, err
	}
	if err := p.injected(placeID); err != nil {
		return domain.PlaceDetails{}, err
	}
	pl, ok := p.places[placeID]
	if !ok {
		return domain.PlaceDetails{}, fmt.Errorf("place %q: %w", placeID, domain.ErrNotFound)
	}
	return domain.PlaceDetails{
		PlaceID:        pl.ID,
		Name:           pl.Name,
		Address:        pl.Address,
		OpeningWindows: append([]domain.OpeningWindow{}, pl.Windows...),
	}, nil
}

func (p *MockProvider) GetTravelDuration(ctx context.Context, originID, destinationID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := pairKey(originID, destinationID)
	if err := p.injected(key); err != nil {
		return 0, err
	}
	m, ok := p.pairs[key]
	if !ok {
		return 0, fmt.Errorf("missing pair %q -> %q: %w", originID, destinationID, domain.ErrNotFound)
	}
	return m, nil
}

// MockMatrixProvider adds batched lookups on top of MockProvider.
type MockMatrixProvider struct {
	*MockProvider
}

func (p MockMatrixProvider) GetTravelDurations(ctx context.Context, originID string, destinationIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(destinationIDs))
	for _, d := range destinationIDs {
		m, err := p.GetTravelDuration(ctx, originID, d)
		if err != nil {
			return nil, err
		}
		out[d] = m
	}
	return out, nil
}

func pairKey(from, to string) string { return from + "|" + to }

func normalizeQuery(q string) string { return strings.ToLower(strings.TrimSpace(q)) }
