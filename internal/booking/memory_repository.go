package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and by the
// simulator's offline mode. Semantics match PgRepository, including the
// status-conditioned UpdateStatus.
type MemoryRepository struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	events       []EventLog
	now          func() time.Time

	// FailUpdateFor forces UpdateStatus to fail for the listed ids, to
	// exercise partial-failure paths.
	FailUpdateFor map[uuid.UUID]error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		appointments: make(map[uuid.UUID]*Appointment),
		now:          time.Now,
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) FindOverlapping(ctx context.Context, vendorID uuid.UUID, staffID *uuid.UUID, date string, startMinute, endMinute int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.VendorID != vendorID || a.Date != date {
			continue
		}
		if !sameStaff(a.StaffID, staffID) {
			continue
		}
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		if Overlaps(a.StartMinute, a.EndMinute, startMinute, endMinute) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func sameStaff(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *MemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	cp := *appt
	r.appointments[appt.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, cancelReason *string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailUpdateFor[id]; ok {
		return nil, err
	}

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	if cancelReason != nil {
		a.CancelReason = cancelReason
	}
	a.UpdatedAt = r.now()

	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) FindExpiredScheduled(ctx context.Context, regularCutoff, weddingCutoff time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.Status != StatusScheduled {
			continue
		}
		cutoff := regularCutoff
		if a.WeddingTeam {
			cutoff = weddingCutoff
		}
		if a.CreatedAt.Before(cutoff) {
			result = append(result, *a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.ClientID == clientID {
			result = append(result, *a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].StartMinute > result[j].StartMinute
	})

	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, date string) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.VendorID == vendorID && a.Date == date {
			result = append(result, *a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartMinute < result[j].StartMinute
	})
	return result, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}

// SetCreatedAt backdates an appointment, for expiry tests.
func (r *MemoryRepository) SetCreatedAt(id uuid.UUID, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.appointments[id]; ok {
		a.CreatedAt = t
	}
}
