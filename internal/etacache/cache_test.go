package etacache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEstimator struct {
	eta   time.Duration
	err   error
	calls int
}

func (e *stubEstimator) TravelTime(ctx context.Context, originLat, originLng, destLat, destLng float64) (time.Duration, error) {
	e.calls++
	return e.eta, e.err
}

func TestTileFor(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		size     float64
		want     Tile
	}{
		{"origin", 0, 0, 0.01, Tile{X: 0, Y: 0}},
		{"bengaluru", 12.9716, 77.5946, 0.01, Tile{X: 7759, Y: 1297}},
		{"negative floors down", -0.001, -0.001, 0.01, Tile{X: -1, Y: -1}},
		{"tile boundary", 12.98, 77.59, 0.01, Tile{X: 7759, Y: 1298}},
		{"coarse tiles", 12.9716, 77.5946, 0.5, Tile{X: 155, Y: 25}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TileFor(tc.lat, tc.lng, tc.size))
		})
	}
}

func TestTileFor_NearbyPointsShareTile(t *testing.T) {
	a := TileFor(12.9716, 77.5946, 0.01)
	b := TileFor(12.9719, 77.5941, 0.01)
	assert.Equal(t, a, b)

	far := TileFor(13.0827, 80.2707, 0.01)
	assert.NotEqual(t, a, far)
}

func TestTileString(t *testing.T) {
	assert.Equal(t, "7759:1297", Tile{X: 7759, Y: 1297}.String())
	assert.Equal(t, "-1:-1", Tile{X: -1, Y: -1}.String())
}

func TestServiceETA_CacheAside(t *testing.T) {
	ctx := context.Background()
	est := &stubEstimator{eta: 18 * time.Minute}
	svc := NewService(NewMemoryCache(time.Hour), est, 0.01, 50)

	eta, err := svc.ETA(ctx, 12.9716, 77.5946, 12.9352, 77.6245)
	require.NoError(t, err)
	assert.Equal(t, 18*time.Minute, eta)
	assert.Equal(t, 1, est.calls)

	// A second lookup from the same tile pair is served from cache.
	eta, err = svc.ETA(ctx, 12.9719, 77.5941, 12.9355, 77.6248)
	require.NoError(t, err)
	assert.Equal(t, 18*time.Minute, eta)
	assert.Equal(t, 1, est.calls, "cache hit must not re-estimate")

	// A different destination tile misses.
	_, err = svc.ETA(ctx, 12.9716, 77.5946, 13.0827, 80.2707)
	require.NoError(t, err)
	assert.Equal(t, 2, est.calls)
}

func TestServiceETA_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10 * time.Minute)

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	est := &stubEstimator{eta: 18 * time.Minute}
	svc := NewService(cache, est, 0.01, 50)

	_, err := svc.ETA(ctx, 12.9716, 77.5946, 12.9352, 77.6245)
	require.NoError(t, err)
	require.Equal(t, 1, est.calls)

	now = now.Add(9 * time.Minute)
	_, err = svc.ETA(ctx, 12.9716, 77.5946, 12.9352, 77.6245)
	require.NoError(t, err)
	assert.Equal(t, 1, est.calls, "entry still fresh")

	now = now.Add(2 * time.Minute)
	_, err = svc.ETA(ctx, 12.9716, 77.5946, 12.9352, 77.6245)
	require.NoError(t, err)
	assert.Equal(t, 2, est.calls, "expired entry re-estimates")
}

func TestServiceETA_EstimatorError(t *testing.T) {
	ctx := context.Background()
	est := &stubEstimator{err: errors.New("provider timeout")}
	svc := NewService(NewMemoryCache(time.Hour), est, 0.01, 50)

	_, err := svc.ETA(ctx, 12.9716, 77.5946, 12.9352, 77.6245)
	assert.ErrorContains(t, err, "provider timeout")
}

func TestServiceHotspot(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryCache(time.Hour), &stubEstimator{}, 0.01, 3)

	lat, lng := 12.9716, 77.5946

	hot, err := svc.IsHotspot(ctx, lat, lng)
	require.NoError(t, err)
	assert.False(t, hot)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.RecordBooking(ctx, lat, lng))
	}

	hot, err = svc.IsHotspot(ctx, lat, lng)
	require.NoError(t, err)
	assert.False(t, hot, "below threshold")

	require.NoError(t, svc.RecordBooking(ctx, lat, lng))

	hot, err = svc.IsHotspot(ctx, lat, lng)
	require.NoError(t, err)
	assert.True(t, hot, "threshold reached")

	// A different tile keeps its own counter.
	hot, err = svc.IsHotspot(ctx, 13.0827, 80.2707)
	require.NoError(t, err)
	assert.False(t, hot)
}
