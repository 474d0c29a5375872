package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled               Status = "scheduled"
	StatusConfirmed               Status = "confirmed"
	StatusCompleted               Status = "completed"
	StatusCompletedWithoutPayment Status = "completed_without_payment"
	StatusCancelled               Status = "cancelled"
)

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithoutPayment, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCompletedWithoutPayment, StatusCancelled},
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ServiceItem is one line of a multi-service booking. StaffID overrides the
// appointment-level staff member for this item when set.
type ServiceItem struct {
	ServiceID uuid.UUID  `json:"service_id"`
	StaffID   *uuid.UUID `json:"staff_id,omitempty"`
	Price     int64      `json:"price"`
}

// Appointment times are a civil date plus minutes from midnight, half-open
// [StartMinute, EndMinute). Monetary fields are int64 minor units and always
// satisfy TotalAmount = Amount - Discount + Tax.
type Appointment struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	StaffID         *uuid.UUID // nil means any staff
	ClientID        uuid.UUID
	Date            string // 2006-01-02
	StartMinute     int
	EndMinute       int
	DurationMinutes int
	ServiceItems    []ServiceItem
	Amount          int64
	Discount        int64
	Tax             int64
	TotalAmount     int64
	Status          Status
	CancelReason    *string
	WeddingTeam     bool // vendor is a wedding team; affects the acceptance window
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

var (
	ErrInvalidDate      = errors.New("date must be formatted as 2006-01-02")
	ErrInvalidTimeRange = errors.New("time range is invalid")
	ErrInvalidAmount    = errors.New("monetary fields are invalid")
	ErrNoServiceItems   = errors.New("at least one service item is required")
)

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" to minutes from midnight. "24:00" is accepted
// as an end-of-day end time.
func ParseClock(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hh < 0 || mm < 0 || mm > 59 || hh > 24 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// validate enforces the structural invariants an appointment must satisfy
// before it is persisted.
func (a *Appointment) validate() error {
	if _, err := time.Parse("2006-01-02", a.Date); err != nil {
		return ErrInvalidDate
	}
	if a.StartMinute < 0 || a.EndMinute > minutesPerDay || a.StartMinute >= a.EndMinute {
		return ErrInvalidTimeRange
	}
	if a.EndMinute-a.StartMinute != a.DurationMinutes {
		return ErrInvalidTimeRange
	}
	if len(a.ServiceItems) == 0 {
		return ErrNoServiceItems
	}
	if a.Amount < 0 || a.Discount < 0 || a.Tax < 0 {
		return ErrInvalidAmount
	}
	if a.TotalAmount != a.Amount-a.Discount+a.Tax {
		return ErrInvalidAmount
	}
	return nil
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
