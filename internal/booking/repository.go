package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service and the
// auto-cancellation sweeper.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindOverlapping returns non-cancelled appointments for the same
	// (vendor, staff) pair whose range intersects [startMinute, endMinute)
	// on date. staffID nil queries the "any staff" bucket.
	FindOverlapping(ctx context.Context, vendorID uuid.UUID, staffID *uuid.UUID, date string, startMinute, endMinute int) ([]Appointment, error)

	Create(ctx context.Context, appt *Appointment) error

	// UpdateStatus applies a transition conditioned on the current status,
	// so stale transitions are rejected instead of silently overwriting.
	// Returns ErrAppointmentNotFound when no row matches (id, from).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, cancelReason *string) (*Appointment, error)

	// FindExpiredScheduled returns scheduled appointments created before
	// regularCutoff (ordinary vendors) or weddingCutoff (wedding teams).
	FindExpiredScheduled(ctx context.Context, regularCutoff, weddingCutoff time.Time) ([]Appointment, error)

	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, date string) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
