package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/glamora/booking-core/internal/booking"
)

type ServiceItemRequest struct {
	ServiceID string `json:"service_id" validate:"required,uuid"`
	StaffID   string `json:"staff_id" validate:"omitempty,uuid"`
	Price     int64  `json:"price" validate:"min=0"`
}

type CreateBookingRequest struct {
	VendorID     string               `json:"vendor_id" validate:"required,uuid"`
	StaffID      string               `json:"staff_id" validate:"omitempty,uuid"`
	ClientID     string               `json:"client_id" validate:"required,uuid"`
	Date         string               `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string               `json:"start_time" validate:"required"`
	EndTime      string               `json:"end_time" validate:"required"`
	ServiceItems []ServiceItemRequest `json:"service_items" validate:"required,min=1,dive"`
	Discount     int64                `json:"discount" validate:"min=0"`
	Tax          int64                `json:"tax" validate:"min=0"`
	WeddingTeam  bool                 `json:"wedding_team"`
}

type CompleteBookingRequest struct {
	Paid bool `json:"paid"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type BookingResponse struct {
	AppointmentID uuid.UUID  `json:"appointment_id"`
	VendorID      uuid.UUID  `json:"vendor_id"`
	StaffID       *uuid.UUID `json:"staff_id,omitempty"`
	ClientID      uuid.UUID  `json:"client_id"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Duration      int        `json:"duration_minutes"`
	Status        string     `json:"status"`
	TotalAmount   int64      `json:"total_amount"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toBookingResponse(a *booking.Appointment) BookingResponse {
	return BookingResponse{
		AppointmentID: a.ID,
		VendorID:      a.VendorID,
		StaffID:       a.StaffID,
		ClientID:      a.ClientID,
		Date:          a.Date,
		StartTime:     booking.FormatClock(a.StartMinute),
		EndTime:       booking.FormatClock(a.EndMinute),
		Duration:      a.DurationMinutes,
		Status:        string(a.Status),
		TotalAmount:   a.TotalAmount,
		CancelReason:  a.CancelReason,
		CreatedAt:     a.CreatedAt,
	}
}

type AutoCancellationRunRequest struct {
	GracePeriodMinutes int  `json:"grace_period_minutes" validate:"min=0"`
	DryRun             bool `json:"dry_run"`
	NotifyClients      bool `json:"notify_clients"`
	NotifyVendors      bool `json:"notify_vendors"`
}

type WalletMutationRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Reference string `json:"reference"`
}

type WalletTransactionResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Type          string    `json:"transaction_type"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
