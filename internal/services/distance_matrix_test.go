package services

import (
	"context"
	"testing"
	"time"
	"trip-planner-service/internal/adapters/places"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() []places.MockPair {
	return []places.MockPair{
		{From: "O", To: "A", Minutes: 10},
		{From: "O", To: "B", Minutes: 20},
		{From: "A", To: "O", Minutes: 11},
		{From: "A", To: "B", Minutes: 5},
		{From: "B", To: "O", Minutes: 21},
		{From: "B", To: "A", Minutes: 6},
	}
}

func fastLookups() LookupOptions {
	return LookupOptions{Concurrency: 3, MaxAttempts: 3, Backoff: time.Millisecond}
}

func TestBuildDistanceMatrix_PairwiseProvider(t *testing.T) {
	provider := places.NewMockProvider(nil, triangle())

	m, err := BuildDistanceMatrix(context.Background(), []string{"O", "A", "B"}, provider, fastLookups())
	require.NoError(t, err)

	assert.Equal(t, 3, m.Size())
	assert.Equal(t, 10, m.At(0, 1))
	assert.Equal(t, 11, m.At(1, 0))
	assert.Equal(t, 5, m.At(1, 2))
	assert.Equal(t, 6, m.At(2, 1))
	assert.Equal(t, 0, m.At(2, 2))
	assert.EqualValues(t, 6, provider.Calls())
}

func TestBuildDistanceMatrix_BatchedProvider(t *testing.T) {
	mock := places.NewMockProvider(nil, triangle())

	m, err := BuildDistanceMatrix(context.Background(), []string{"O", "A", "B"}, places.MockMatrixProvider{MockProvider: mock}, fastLookups())
	require.NoError(t, err)
	assert.Equal(t, 21, m.At(2, 0))
}

func TestBuildDistanceMatrix_RetriesTransientFailures(t *testing.T) {
	provider := places.NewMockProvider(nil, triangle())
	provider.FailNext("A|B", 2)

	m, err := BuildDistanceMatrix(context.Background(), []string{"O", "A", "B"}, provider, fastLookups())
	require.NoError(t, err)
	assert.Equal(t, 5, m.At(1, 2))
	assert.EqualValues(t, 8, provider.Calls())
}

func TestBuildDistanceMatrix_ExhaustedRetriesFailWholeBuild(t *testing.T) {
	provider := places.NewMockProvider(nil, triangle())
	provider.FailNext("B|A", 10)

	m, err := BuildDistanceMatrix(context.Background(), []string{"O", "A", "B"}, provider, fastLookups())
	require.Nil(t, m)
	require.ErrorIs(t, err, domain.ErrLookup)
	require.ErrorIs(t, err, places.ErrMockUnavailable)
}

func TestBuildDistanceMatrix_MissingPairIsNotRetried(t *testing.T) {
	pairs := triangle()[:5]
	provider := places.NewMockProvider(nil, pairs)

	m, err := BuildDistanceMatrix(context.Background(), []string{"O", "A", "B"}, provider, LookupOptions{Concurrency: 1, MaxAttempts: 5})
	require.Nil(t, m)
	require.ErrorIs(t, err, domain.ErrLookup)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildDistanceMatrix_RejectsDuplicateIDs(t *testing.T) {
	provider := places.NewMockProvider(nil, triangle())

	_, err := BuildDistanceMatrix(context.Background(), []string{"O", "A", "A"}, provider, fastLookups())
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, provider.Calls())
}

func TestDurationsFrom(t *testing.T) {
	mock := places.NewMockProvider(nil, triangle())

	got, err := DurationsFrom(context.Background(), "O", []string{"A", "B"}, mock, fastLookups())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 10, "B": 20}, got)

	got, err = DurationsFrom(context.Background(), "O", []string{"B"}, places.MockMatrixProvider{MockProvider: mock}, fastLookups())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"B": 20}, got)
}
