// Package sweeper cancels scheduled appointments whose confirmation grace
// period has elapsed, typically unpaid bookings past their payment window.
// It only exposes run-once and dry-run operations; scheduling is the
// caller's concern (cmd/sweeper, or an admin endpoint).
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/glamora/booking-core/internal/booking"
)

const cancelReason = "auto-cancelled: confirmation grace period elapsed"

type Options struct {
	GracePeriodMinutes int
	DryRun             bool
	NotifyClients      bool
	NotifyVendors      bool
}

type Failure struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Error         string    `json:"error"`
}

type Result struct {
	AppointmentsFound int                   `json:"appointments_found"`
	Cancelled         []uuid.UUID           `json:"cancelled"`
	Failed            []Failure             `json:"failed"`
	Appointments      []booking.Appointment `json:"-"`
}

type Stats struct {
	TotalExpired int                   `json:"total_expired"`
	Appointments []booking.Appointment `json:"appointments"`
}

type Sweeper struct {
	repo          booking.Repository
	svc           *booking.Service
	notifier      Notifier
	weddingWindow time.Duration
	now           func() time.Time
}

func New(repo booking.Repository, svc *booking.Service, notifier Notifier, weddingWindow time.Duration) *Sweeper {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Sweeper{
		repo:          repo,
		svc:           svc,
		notifier:      notifier,
		weddingWindow: weddingWindow,
		now:           time.Now,
	}
}

// candidates computes the expired set: scheduled appointments older than the
// grace period, with wedding-team vendors given their acceptance window
// instead.
func (s *Sweeper) candidates(ctx context.Context, gracePeriodMinutes int) ([]booking.Appointment, error) {
	now := s.now()
	regularCutoff := now.Add(-time.Duration(gracePeriodMinutes) * time.Minute)
	weddingCutoff := now.Add(-s.weddingWindow)

	return s.repo.FindExpiredScheduled(ctx, regularCutoff, weddingCutoff)
}

// GetStats is the read-only preview: the same candidate set a real run would
// cancel, with zero writes.
func (s *Sweeper) GetStats(ctx context.Context, gracePeriodMinutes int) (*Stats, error) {
	expired, err := s.candidates(ctx, gracePeriodMinutes)
	if err != nil {
		return nil, fmt.Errorf("find expired appointments: %w", err)
	}

	return &Stats{
		TotalExpired: len(expired),
		Appointments: expired,
	}, nil
}

// Run cancels every expired candidate. Each candidate is processed
// independently: one failure is recorded and the run continues. Cancellation
// goes through the status-conditioned transition, so re-running over the
// same window never double-cancels.
func (s *Sweeper) Run(ctx context.Context, opts Options) (*Result, error) {
	expired, err := s.candidates(ctx, opts.GracePeriodMinutes)
	if err != nil {
		return nil, fmt.Errorf("find expired appointments: %w", err)
	}

	result := &Result{
		AppointmentsFound: len(expired),
		Appointments:      expired,
	}

	if opts.DryRun {
		return result, nil
	}

	reason := cancelReason
	for _, appt := range expired {
		cancelled, err := s.svc.Cancel(ctx, appt.ID, &reason)
		if err != nil {
			if errors.Is(err, booking.ErrInvalidTransition) {
				// Confirmed or cancelled since we selected it; nothing to do.
				continue
			}
			result.Failed = append(result.Failed, Failure{
				AppointmentID: appt.ID,
				Error:         err.Error(),
			})
			continue
		}

		result.Cancelled = append(result.Cancelled, cancelled.ID)
		s.notify(ctx, *cancelled, opts)
	}

	return result, nil
}

// notify is best-effort: failures are logged and never affect the
// cancellation.
func (s *Sweeper) notify(ctx context.Context, appt booking.Appointment, opts Options) {
	if opts.NotifyClients {
		if err := s.notifier.NotifyClient(ctx, appt); err != nil {
			log.Printf("notify client for appointment %s: %v", appt.ID, err)
		}
	}
	if opts.NotifyVendors {
		if err := s.notifier.NotifyVendor(ctx, appt); err != nil {
			log.Printf("notify vendor for appointment %s: %v", appt.ID, err)
		}
	}
}
