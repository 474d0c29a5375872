// Package slotlock grants short-lived exclusive holds on a
// (vendor, staff, date, time-range) tuple while a booking is being created.
// A hold only has to survive the checkout window; once the appointment row
// exists it is the durable reservation and the hold is released.
//
// Expiry is lazy: conflict checks ignore holds whose TTL has passed, so a
// crashed holder never wedges a slot.
package slotlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSlotBusy means an overlapping range is held by another party.
	// Callers retry with backoff or surface "slot unavailable".
	ErrSlotBusy = errors.New("slot range is locked by another holder")
)

// Key identifies the slot being locked. StaffID nil means the booking is for
// "any staff"; such holds live in their own bucket and only conflict with
// each other. Times are minutes from midnight, half-open [Start, End).
type Key struct {
	VendorID    uuid.UUID
	StaffID     *uuid.UUID
	Date        string // 2006-01-02
	StartMinute int
	EndMinute   int
}

func (k Key) staff() string {
	if k.StaffID == nil {
		return "any"
	}
	return k.StaffID.String()
}

// bucket is the storage key for all holds sharing (vendor, staff, date).
func (k Key) bucket() string {
	return fmt.Sprintf("slotlock:%s:%s:%s", k.VendorID, k.staff(), k.Date)
}

func (k Key) validate() error {
	if _, err := time.Parse("2006-01-02", k.Date); err != nil {
		return fmt.Errorf("invalid lock date %q: %w", k.Date, err)
	}
	if k.StartMinute < 0 || k.EndMinute > 24*60 || k.StartMinute >= k.EndMinute {
		return fmt.Errorf("invalid lock range [%d, %d)", k.StartMinute, k.EndMinute)
	}
	return nil
}

// Handle proves ownership of a hold. The token is unique per acquisition so
// releasing a handle can never drop somebody else's hold.
type Handle struct {
	Key       Key
	HolderID  uuid.UUID
	ExpiresAt time.Time
	token     string
}

// member is the stored representation of a hold within its bucket.
func (h *Handle) member() string {
	return fmt.Sprintf("%d|%d|%s|%s", h.Key.StartMinute, h.Key.EndMinute, h.HolderID, h.token)
}

// Locker is the slot lock manager contract.
type Locker interface {
	// Acquire atomically takes a hold on key for holderID, failing with
	// ErrSlotBusy when an unexpired overlapping hold by a different holder
	// exists.
	Acquire(ctx context.Context, key Key, holderID uuid.UUID) (*Handle, error)

	// Release drops the hold. Releasing an expired or already-released
	// handle is a no-op.
	Release(ctx context.Context, h *Handle) error

	// IsHeld reports whether any unexpired hold overlaps key's range.
	IsHeld(ctx context.Context, key Key) (bool, error)
}

// AcquireWithRetry retries Acquire on contention, up to attempts tries with
// delay between them. It never waits past ctx cancellation, so total wait is
// bounded by attempts × delay.
func AcquireWithRetry(ctx context.Context, l Locker, key Key, holderID uuid.UUID, attempts int, delay time.Duration) (*Handle, error) {
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		h, err := l.Acquire(ctx, key, holderID)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, ErrSlotBusy) || attempt >= attempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
