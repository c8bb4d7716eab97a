package places

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type fakeMapsClient struct {
	findResp   maps.FindPlaceFromTextResponse
	findErr    error
	details    map[string]maps.PlaceDetailsResult
	durations  map[string]time.Duration
	matrixReqs []*maps.DistanceMatrixRequest
}

func (f *fakeMapsClient) FindPlaceFromText(_ context.Context, r *maps.FindPlaceFromTextRequest) (maps.FindPlaceFromTextResponse, error) {
	return f.findResp, f.findErr
}

func (f *fakeMapsClient) PlaceDetails(_ context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error) {
	res, ok := f.details[r.PlaceID]
	if !ok {
		return maps.PlaceDetailsResult{}, errors.New("maps: NOT_FOUND - ")
	}
	return res, nil
}

func (f *fakeMapsClient) DistanceMatrix(_ context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	f.matrixReqs = append(f.matrixReqs, r)

	row := maps.DistanceMatrixElementsRow{}
	for _, d := range r.Destinations {
		dur, ok := f.durations[strings.TrimPrefix(d, "place_id:")]
		if !ok {
			row.Elements = append(row.Elements, &maps.DistanceMatrixElement{Status: "ZERO_RESULTS"})
			continue
		}
		row.Elements = append(row.Elements, &maps.DistanceMatrixElement{Status: "OK", Duration: dur})
	}
	return &maps.DistanceMatrixResponse{Rows: []maps.DistanceMatrixElementsRow{row}}, nil
}

func TestGoogleMapsProvider_ResolvePlace(t *testing.T) {
	fake := &fakeMapsClient{findResp: maps.FindPlaceFromTextResponse{
		Candidates: []maps.PlacesSearchResult{{PlaceID: "ChIJ-museum"}},
	}}
	g := &GoogleMapsProvider{client: fake, mode: maps.TravelModeDriving}

	id, err := g.ResolvePlace(context.Background(), "  City   Museum ")
	require.NoError(t, err)
	assert.Equal(t, "ChIJ-museum", id)

	fake.findResp = maps.FindPlaceFromTextResponse{}
	_, err = g.ResolvePlace(context.Background(), "nowhere")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = g.ResolvePlace(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGoogleMapsProvider_GetPlaceDetails(t *testing.T) {
	fake := &fakeMapsClient{details: map[string]maps.PlaceDetailsResult{
		"m": {
			PlaceID:          "m",
			Name:             "City Museum",
			FormattedAddress: "15 Line St",
			OpeningHours: &maps.OpeningHours{Periods: []maps.OpeningHoursPeriod{{
				Open:  maps.OpeningHoursOpenClose{Day: time.Monday, Time: "1000"},
				Close: maps.OpeningHoursOpenClose{Day: time.Monday, Time: "1700"},
			}}},
		},
	}}
	g := &GoogleMapsProvider{client: fake, mode: maps.TravelModeDriving}

	d, err := g.GetPlaceDetails(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, "City Museum", d.Name)
	assert.Equal(t, "15 Line St", d.Address)
	assert.Equal(t, []domain.OpeningWindow{{Day: time.Monday, Start: 600, End: 1019}}, d.OpeningWindows)

	_, err = g.GetPlaceDetails(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGoogleMapsProvider_GetTravelDurationsChunksAndRoundsUp(t *testing.T) {
	durations := map[string]time.Duration{}
	dests := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26))
		if i >= 26 {
			id += "2"
		}
		dests = append(dests, id)
		durations[id] = time.Duration(i)*time.Minute + 10*time.Second
	}
	fake := &fakeMapsClient{durations: durations}
	g := &GoogleMapsProvider{client: fake, mode: maps.TravelModeWalking}

	got, err := g.GetTravelDurations(context.Background(), "o", dests)
	require.NoError(t, err)

	require.Len(t, fake.matrixReqs, 2)
	assert.Len(t, fake.matrixReqs[0].Destinations, 25)
	assert.Equal(t, []string{"place_id:o"}, fake.matrixReqs[0].Origins)
	assert.Equal(t, maps.TravelModeWalking, fake.matrixReqs[1].Mode)
	assert.Equal(t, 1, got["a"])
	assert.Equal(t, 30, got["d2"])

	one, err := g.GetTravelDuration(context.Background(), "o", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, one)

	_, err = g.GetTravelDuration(context.Background(), "o", "unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseMode(t *testing.T) {
	m, err := parseMode("")
	require.NoError(t, err)
	assert.Equal(t, maps.TravelModeDriving, m)

	m, err = parseMode("Transit")
	require.NoError(t, err)
	assert.Equal(t, maps.TravelModeTransit, m)

	_, err = parseMode("teleport")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestWindowsFromPeriods(t *testing.T) {
	oc := func(d time.Weekday, hhmm string) maps.OpeningHoursOpenClose {
		return maps.OpeningHoursOpenClose{Day: d, Time: hhmm}
	}

	t.Run("always open", func(t *testing.T) {
		w, err := WindowsFromPeriods([]maps.OpeningHoursPeriod{{Open: oc(time.Sunday, "0000")}})
		require.NoError(t, err)
		assert.Nil(t, w)
	})

	t.Run("split day", func(t *testing.T) {
		w, err := WindowsFromPeriods([]maps.OpeningHoursPeriod{
			{Open: oc(time.Tuesday, "0900"), Close: oc(time.Tuesday, "1200")},
			{Open: oc(time.Tuesday, "1400"), Close: oc(time.Tuesday, "1830")},
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.OpeningWindow{
			{Day: time.Tuesday, Start: 540, End: 719},
			{Day: time.Tuesday, Start: 840, End: 1109},
		}, w)
	})

	t.Run("overnight", func(t *testing.T) {
		w, err := WindowsFromPeriods([]maps.OpeningHoursPeriod{
			{Open: oc(time.Saturday, "2200"), Close: oc(time.Sunday, "0200")},
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.OpeningWindow{
			{Day: time.Saturday, Start: 1320, End: 1439},
			{Day: time.Sunday, Start: 0, End: 119},
		}, w)
	})

	t.Run("closes at midnight", func(t *testing.T) {
		w, err := WindowsFromPeriods([]maps.OpeningHoursPeriod{
			{Open: oc(time.Friday, "1800"), Close: oc(time.Saturday, "0000")},
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.OpeningWindow{{Day: time.Friday, Start: 1080, End: 1439}}, w)
	})

	t.Run("spans several days", func(t *testing.T) {
		w, err := WindowsFromPeriods([]maps.OpeningHoursPeriod{
			{Open: oc(time.Friday, "2000"), Close: oc(time.Sunday, "0300")},
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.OpeningWindow{
			{Day: time.Friday, Start: 1200, End: 1439},
			{Day: time.Saturday, Start: 0, End: 1439},
			{Day: time.Sunday, Start: 0, End: 179},
		}, w)
	})

	t.Run("bad time", func(t *testing.T) {
		_, err := WindowsFromPeriods([]maps.OpeningHoursPeriod{
			{Open: oc(time.Friday, "25:00"), Close: oc(time.Friday, "2300")},
		})
		require.Error(t, err)
	})
}
