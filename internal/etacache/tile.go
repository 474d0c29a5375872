// Package etacache caches travel-time estimates per geographic tile. Keying
// by a coarse tile instead of exact coordinates trades precision for cache
// hit rate. Tiles that serve enough bookings become hotspots, eligible for
// pre-warming.
//
// The travel-time computation itself comes from an external mapping
// provider behind the Estimator interface; this package only does the
// tiling, caching and hotspot bookkeeping.
package etacache

import (
	"fmt"
	"math"
)

// Tile is a square geographic bucket of a configured edge length in degrees.
type Tile struct {
	X int // floor(lng / size)
	Y int // floor(lat / size)
}

func (t Tile) String() string {
	return fmt.Sprintf("%d:%d", t.X, t.Y)
}

// TileFor quantises a coordinate to its tile at the given edge size.
func TileFor(lat, lng, size float64) Tile {
	return Tile{
		X: int(math.Floor(lng / size)),
		Y: int(math.Floor(lat / size)),
	}
}
