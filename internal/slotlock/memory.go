package slotlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker is an in-process Locker with the same semantics as
// RedisLocker. It backs tests and single-node deployments where Redis is not
// configured; it offers no cross-process exclusion.
type MemoryLocker struct {
	mu      sync.Mutex
	ttl     time.Duration
	buckets map[string][]memoryHold
	now     func() time.Time
}

type memoryHold struct {
	start     int
	end       int
	holder    uuid.UUID
	token     string
	expiresAt time.Time
}

func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	return &MemoryLocker{
		ttl:     ttl,
		buckets: make(map[string][]memoryHold),
		now:     time.Now,
	}
}

var _ Locker = (*MemoryLocker)(nil)

func (l *MemoryLocker) Acquire(ctx context.Context, key Key, holderID uuid.UUID) (*Handle, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket := key.bucket()
	live := l.pruneLocked(bucket, now)

	for _, h := range live {
		if h.start < key.EndMinute && key.StartMinute < h.end && h.holder != holderID {
			return nil, ErrSlotBusy
		}
	}

	handle := &Handle{
		Key:       key,
		HolderID:  holderID,
		ExpiresAt: now.Add(l.ttl),
		token:     uuid.NewString(),
	}
	l.buckets[bucket] = append(live, memoryHold{
		start:     key.StartMinute,
		end:       key.EndMinute,
		holder:    holderID,
		token:     handle.token,
		expiresAt: handle.ExpiresAt,
	})

	return handle, nil
}

func (l *MemoryLocker) Release(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := h.Key.bucket()
	holds := l.buckets[bucket]
	for i, held := range holds {
		if held.token == h.token {
			l.buckets[bucket] = append(holds[:i], holds[i+1:]...)
			return nil
		}
	}
	// Already expired or released.
	return nil
}

func (l *MemoryLocker) IsHeld(ctx context.Context, key Key) (bool, error) {
	if err := key.validate(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	live := l.pruneLocked(key.bucket(), l.now())
	for _, h := range live {
		if h.start < key.EndMinute && key.StartMinute < h.end {
			return true, nil
		}
	}
	return false, nil
}

// pruneLocked drops expired holds from bucket and returns the survivors.
// Callers must hold l.mu.
func (l *MemoryLocker) pruneLocked(bucket string, now time.Time) []memoryHold {
	holds := l.buckets[bucket]
	live := holds[:0]
	for _, h := range holds {
		if now.Before(h.expiresAt) {
			live = append(live, h)
		}
	}
	if len(live) == 0 {
		delete(l.buckets, bucket)
		return nil
	}
	l.buckets[bucket] = live
	return live
}
