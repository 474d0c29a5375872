// Package rollout implements percentage-based feature gating keyed by a
// stable hash of an identifier, so the same user lands on the same side of a
// rollout across requests and processes.
package rollout

import "github.com/cespare/xxhash/v2"

// Enabled reports whether identifier falls inside the rollout percentage.
// percentage <= 0 always gates off, >= 100 always gates on.
func Enabled(identifier string, percentage int) bool {
	if percentage <= 0 {
		return false
	}
	if percentage >= 100 {
		return true
	}
	return bucket(identifier) < uint64(percentage)
}

func bucket(identifier string) uint64 {
	return xxhash.Sum64String(identifier) % 100
}
