package slotlock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(vendor uuid.UUID, staff *uuid.UUID, start, end int) Key {
	return Key{
		VendorID:    vendor,
		StaffID:     staff,
		Date:        "2024-01-10",
		StartMinute: start,
		EndMinute:   end,
	}
}

func TestMemoryLocker_AcquireConflict(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker(15 * time.Minute)

	vendor := uuid.New()
	staff := uuid.New()
	h1 := uuid.New()
	h2 := uuid.New()

	handle, err := locker.Acquire(ctx, testKey(vendor, &staff, 600, 630), h1)
	require.NoError(t, err)
	require.NotNil(t, handle)

	t.Run("same range is busy", func(t *testing.T) {
		_, err := locker.Acquire(ctx, testKey(vendor, &staff, 600, 630), h2)
		assert.ErrorIs(t, err, ErrSlotBusy)
	})

	t.Run("overlapping range is busy", func(t *testing.T) {
		_, err := locker.Acquire(ctx, testKey(vendor, &staff, 615, 645), h2)
		assert.ErrorIs(t, err, ErrSlotBusy)

		_, err = locker.Acquire(ctx, testKey(vendor, &staff, 570, 615), h2)
		assert.ErrorIs(t, err, ErrSlotBusy)
	})

	t.Run("adjacent range is free", func(t *testing.T) {
		h, err := locker.Acquire(ctx, testKey(vendor, &staff, 630, 660), h2)
		assert.NoError(t, err)
		require.NoError(t, locker.Release(ctx, h))
	})

	t.Run("other staff is free", func(t *testing.T) {
		other := uuid.New()
		h, err := locker.Acquire(ctx, testKey(vendor, &other, 600, 630), h2)
		assert.NoError(t, err)
		require.NoError(t, locker.Release(ctx, h))
	})

	t.Run("other date is free", func(t *testing.T) {
		key := testKey(vendor, &staff, 600, 630)
		key.Date = "2024-01-11"
		h, err := locker.Acquire(ctx, key, h2)
		assert.NoError(t, err)
		require.NoError(t, locker.Release(ctx, h))
	})

	t.Run("same holder may re-acquire", func(t *testing.T) {
		h, err := locker.Acquire(ctx, testKey(vendor, &staff, 600, 630), h1)
		assert.NoError(t, err)
		require.NoError(t, locker.Release(ctx, h))
	})
}

func TestMemoryLocker_ReleaseFreesRange(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker(15 * time.Minute)

	vendor := uuid.New()
	key := testKey(vendor, nil, 600, 630)

	handle, err := locker.Acquire(ctx, key, uuid.New())
	require.NoError(t, err)

	require.NoError(t, locker.Release(ctx, handle))

	_, err = locker.Acquire(ctx, key, uuid.New())
	assert.NoError(t, err)
}

func TestMemoryLocker_ReleaseIdempotent(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker(15 * time.Minute)

	handle, err := locker.Acquire(ctx, testKey(uuid.New(), nil, 600, 630), uuid.New())
	require.NoError(t, err)

	require.NoError(t, locker.Release(ctx, handle))
	require.NoError(t, locker.Release(ctx, handle))
	require.NoError(t, locker.Release(ctx, nil))
}

func TestMemoryLocker_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker(15 * time.Minute)

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }

	vendor := uuid.New()
	staff := uuid.New()
	key := testKey(vendor, &staff, 600, 630)

	_, err := locker.Acquire(ctx, key, uuid.New())
	require.NoError(t, err)

	held, err := locker.IsHeld(ctx, key)
	require.NoError(t, err)
	assert.True(t, held)

	// One second before expiry the hold still blocks.
	now = now.Add(15*time.Minute - time.Second)
	_, err = locker.Acquire(ctx, key, uuid.New())
	assert.ErrorIs(t, err, ErrSlotBusy)

	// At exactly TTL the hold is gone for every conflict check.
	now = now.Add(time.Second)

	held, err = locker.IsHeld(ctx, key)
	require.NoError(t, err)
	assert.False(t, held)

	_, err = locker.Acquire(ctx, key, uuid.New())
	assert.NoError(t, err)
}

func TestMemoryLocker_ExpiredReleaseNoop(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker(time.Minute)

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }

	key := testKey(uuid.New(), nil, 600, 630)
	handle, err := locker.Acquire(ctx, key, uuid.New())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	// The hold expired and another party took the range; releasing the
	// stale handle must not touch the new hold.
	newHandle, err := locker.Acquire(ctx, key, uuid.New())
	require.NoError(t, err)

	require.NoError(t, locker.Release(ctx, handle))

	held, err := locker.IsHeld(ctx, key)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, locker.Release(ctx, newHandle))
}

func TestMemoryLocker_MutualExclusionConcurrent(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker(15 * time.Minute)

	vendor := uuid.New()
	staff := uuid.New()
	key := testKey(vendor, &staff, 600, 630)

	const goroutines = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners int

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := locker.Acquire(ctx, key, uuid.New()); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, winners, "exactly one concurrent acquire may win")
}

func TestAcquireWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after contender releases", func(t *testing.T) {
		locker := NewMemoryLocker(15 * time.Minute)
		key := testKey(uuid.New(), nil, 600, 630)

		blocker, err := locker.Acquire(ctx, key, uuid.New())
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := AcquireWithRetry(ctx, locker, key, uuid.New(), 5, 20*time.Millisecond)
			done <- err
		}()

		time.Sleep(30 * time.Millisecond)
		require.NoError(t, locker.Release(ctx, blocker))

		assert.NoError(t, <-done)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		locker := NewMemoryLocker(15 * time.Minute)
		key := testKey(uuid.New(), nil, 600, 630)

		_, err := locker.Acquire(ctx, key, uuid.New())
		require.NoError(t, err)

		start := time.Now()
		_, err = AcquireWithRetry(ctx, locker, key, uuid.New(), 3, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrSlotBusy)
		// Two waits between three attempts.
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		locker := NewMemoryLocker(15 * time.Minute)
		key := testKey(uuid.New(), nil, 600, 630)

		_, err := locker.Acquire(ctx, key, uuid.New())
		require.NoError(t, err)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err = AcquireWithRetry(cancelCtx, locker, key, uuid.New(), 5, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestKeyValidate(t *testing.T) {
	vendor := uuid.New()

	cases := []struct {
		name  string
		key   Key
		valid bool
	}{
		{"ok", testKey(vendor, nil, 0, 1440), true},
		{"bad date", Key{VendorID: vendor, Date: "10-01-2024", StartMinute: 600, EndMinute: 630}, false},
		{"negative start", testKey(vendor, nil, -10, 30), false},
		{"end past midnight", testKey(vendor, nil, 1430, 1441), false},
		{"empty range", testKey(vendor, nil, 600, 600), false},
		{"inverted range", testKey(vendor, nil, 630, 600), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.key.validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
