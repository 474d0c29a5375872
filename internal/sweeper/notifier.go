package sweeper

import (
	"context"
	"log"

	"github.com/glamora/booking-core/internal/booking"
)

// Notifier dispatches cancellation notices. The real transport (email/SMS)
// lives outside this module.
type Notifier interface {
	NotifyClient(ctx context.Context, appt booking.Appointment) error
	NotifyVendor(ctx context.Context, appt booking.Appointment) error
}

// LogNotifier just logs. It is the default when no dispatcher is wired.
type LogNotifier struct{}

func (LogNotifier) NotifyClient(ctx context.Context, appt booking.Appointment) error {
	log.Printf("cancellation notice: client=%s appointment=%s date=%s %s-%s",
		appt.ClientID, appt.ID, appt.Date,
		booking.FormatClock(appt.StartMinute), booking.FormatClock(appt.EndMinute))
	return nil
}

func (LogNotifier) NotifyVendor(ctx context.Context, appt booking.Appointment) error {
	log.Printf("cancellation notice: vendor=%s appointment=%s date=%s %s-%s",
		appt.VendorID, appt.ID, appt.Date,
		booking.FormatClock(appt.StartMinute), booking.FormatClock(appt.EndMinute))
	return nil
}
