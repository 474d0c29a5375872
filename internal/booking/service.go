package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/glamora/booking-core/internal/config"
	"github.com/glamora/booking-core/internal/rollout"
	"github.com/glamora/booking-core/internal/slotlock"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

var (
	// ErrSlotUnavailable covers both lock contention that outlasted the
	// retry budget and an existing overlapping appointment. Callers surface
	// "this time slot was just taken".
	ErrSlotUnavailable = errors.New("slot is unavailable")

	// ErrInvalidTransition is returned for any transition the lifecycle
	// does not permit, including anything out of a terminal state. The
	// appointment is never mutated.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	repo   Repository
	locker slotlock.Locker
	flags  config.Flags
}

func NewService(repo Repository, locker slotlock.Locker, flags config.Flags) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		flags:  flags,
	}
}

type CreateParams struct {
	VendorID     uuid.UUID
	StaffID      *uuid.UUID
	ClientID     uuid.UUID
	Date         string
	StartMinute  int
	EndMinute    int
	ServiceItems []ServiceItem
	Discount     int64
	Tax          int64
	WeddingTeam  bool
}

// Create reserves the requested range for the client. A slot lock guards the
// conflict-check-then-insert against concurrent checkouts for the same
// range; once the row exists the lock is released and the appointment itself
// is the reservation. The locking path rolls out per client id, so a partial
// rollout pins each client to one side across requests.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	var amount int64
	for _, item := range p.ServiceItems {
		amount += item.Price
	}

	appt := &Appointment{
		ID:              uuid.New(),
		VendorID:        p.VendorID,
		StaffID:         p.StaffID,
		ClientID:        p.ClientID,
		Date:            p.Date,
		StartMinute:     p.StartMinute,
		EndMinute:       p.EndMinute,
		DurationMinutes: p.EndMinute - p.StartMinute,
		ServiceItems:    p.ServiceItems,
		Amount:          amount,
		Discount:        p.Discount,
		Tax:             p.Tax,
		TotalAmount:     amount - p.Discount + p.Tax,
		Status:          StatusScheduled,
		WeddingTeam:     p.WeddingTeam,
	}

	if err := appt.validate(); err != nil {
		return nil, err
	}

	if s.flags.EnableOptimisticLocking && rollout.Enabled(p.ClientID.String(), s.flags.RolloutPercentage) {
		key := slotlock.Key{
			VendorID:    p.VendorID,
			StaffID:     p.StaffID,
			Date:        p.Date,
			StartMinute: p.StartMinute,
			EndMinute:   p.EndMinute,
		}

		handle, err := slotlock.AcquireWithRetry(ctx, s.locker, key, p.ClientID,
			s.flags.LockRetryAttempts, s.flags.LockRetryDelay)
		if err != nil {
			if errors.Is(err, slotlock.ErrSlotBusy) {
				return nil, ErrSlotUnavailable
			}
			return nil, fmt.Errorf("acquire slot lock: %w", err)
		}
		defer func() {
			if relErr := s.locker.Release(ctx, handle); relErr != nil {
				log.Printf("release slot lock for appointment %s: %v", appt.ID, relErr)
			}
		}()
	}

	// Inside the critical section re-check for a live overlapping
	// appointment.
	existing, err := s.repo.FindOverlapping(ctx, p.VendorID, p.StaffID, p.Date, p.StartMinute, p.EndMinute)
	if err != nil {
		return nil, fmt.Errorf("check overlapping appointments: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrSlotUnavailable
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCreated, map[string]any{
		"vendor_id":    p.VendorID.String(),
		"client_id":    p.ClientID.String(),
		"date":         p.Date,
		"start":        FormatClock(p.StartMinute),
		"end":          FormatClock(p.EndMinute),
		"total_amount": appt.TotalAmount,
	})

	return appt, nil
}

// Confirm moves a scheduled appointment to confirmed, on payment success or
// vendor/staff acceptance.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.transition(ctx, id, StatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventAppointmentConfirmed, map[string]any{})
	return updated, nil
}

// Complete marks service delivery. paid=false takes the degraded
// completed_without_payment path.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, paid bool) (*Appointment, error) {
	target := StatusCompleted
	if !paid {
		target = StatusCompletedWithoutPayment
	}

	updated, err := s.transition(ctx, id, target, nil)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{
		"paid": paid,
	})
	return updated, nil
}

// Cancel is legal from scheduled or confirmed and records a reason when
// supplied.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason *string) (*Appointment, error) {
	updated, err := s.transition(ctx, id, StatusCancelled, reason)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if reason != nil {
		payload["reason"] = *reason
	}
	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, payload)
	return updated, nil
}

// transition applies a status-conditioned update. Reading the current status
// first gives a clean ErrInvalidTransition for terminal states; the
// conditional write catches anyone who raced us in between.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, cancelReason *string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, to, cancelReason)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status changed under us; the transition is stale.
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := s.repo.ListByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by client: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListByVendor(ctx context.Context, vendorID uuid.UUID, date string) ([]Appointment, error) {
	appointments, err := s.repo.ListByVendor(ctx, vendorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments by vendor: %w", err)
	}
	return appointments, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
