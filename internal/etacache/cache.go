package etacache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Estimator is the external mapping provider.
type Estimator interface {
	TravelTime(ctx context.Context, originLat, originLng, destLat, destLng float64) (time.Duration, error)
}

// Cache stores estimates between tile pairs and counts bookings per tile.
type Cache interface {
	Get(ctx context.Context, origin, dest Tile) (time.Duration, bool, error)
	Put(ctx context.Context, origin, dest Tile, eta time.Duration) error

	// RecordBooking bumps the tile's booking counter and returns the new
	// count.
	RecordBooking(ctx context.Context, t Tile) (int64, error)
	BookingCount(ctx context.Context, t Tile) (int64, error)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

var _ Cache = (*RedisCache)(nil)

func etaKey(origin, dest Tile) string {
	return fmt.Sprintf("eta:%s:%s", origin, dest)
}

func hotspotKey(t Tile) string {
	return fmt.Sprintf("eta:bookings:%s", t)
}

func (c *RedisCache) Get(ctx context.Context, origin, dest Tile) (time.Duration, bool, error) {
	val, err := c.client.Get(ctx, etaKey(origin, dest)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get eta: %w", err)
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode eta %q: %w", val, err)
	}
	return time.Duration(millis) * time.Millisecond, true, nil
}

func (c *RedisCache) Put(ctx context.Context, origin, dest Tile, eta time.Duration) error {
	err := c.client.Set(ctx, etaKey(origin, dest), eta.Milliseconds(), c.ttl).Err()
	if err != nil {
		return fmt.Errorf("put eta: %w", err)
	}
	return nil
}

func (c *RedisCache) RecordBooking(ctx context.Context, t Tile) (int64, error) {
	count, err := c.client.Incr(ctx, hotspotKey(t)).Result()
	if err != nil {
		return 0, fmt.Errorf("record booking: %w", err)
	}
	return count, nil
}

func (c *RedisCache) BookingCount(ctx context.Context, t Tile) (int64, error) {
	val, err := c.client.Get(ctx, hotspotKey(t)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read booking count: %w", err)
	}
	return val, nil
}

// Service layers the cache over the estimator and answers hotspot queries.
type Service struct {
	cache            Cache
	estimator        Estimator
	tileSize         float64
	hotspotThreshold int64
}

func NewService(cache Cache, estimator Estimator, tileSize float64, hotspotThreshold int64) *Service {
	return &Service{
		cache:            cache,
		estimator:        estimator,
		tileSize:         tileSize,
		hotspotThreshold: hotspotThreshold,
	}
}

// ETA returns the travel time between two coordinates, served from the tile
// cache when possible.
func (s *Service) ETA(ctx context.Context, originLat, originLng, destLat, destLng float64) (time.Duration, error) {
	origin := TileFor(originLat, originLng, s.tileSize)
	dest := TileFor(destLat, destLng, s.tileSize)

	if eta, ok, err := s.cache.Get(ctx, origin, dest); err != nil {
		return 0, err
	} else if ok {
		return eta, nil
	}

	eta, err := s.estimator.TravelTime(ctx, originLat, originLng, destLat, destLng)
	if err != nil {
		return 0, fmt.Errorf("estimate travel time: %w", err)
	}

	if err := s.cache.Put(ctx, origin, dest, eta); err != nil {
		return 0, err
	}
	return eta, nil
}

// RecordBooking attributes a booking to the tile containing the coordinate.
func (s *Service) RecordBooking(ctx context.Context, lat, lng float64) error {
	_, err := s.cache.RecordBooking(ctx, TileFor(lat, lng, s.tileSize))
	return err
}

// IsHotspot reports whether the tile containing the coordinate has served at
// least the configured booking threshold.
func (s *Service) IsHotspot(ctx context.Context, lat, lng float64) (bool, error) {
	count, err := s.cache.BookingCount(ctx, TileFor(lat, lng, s.tileSize))
	if err != nil {
		return false, err
	}
	return count >= s.hotspotThreshold, nil
}
