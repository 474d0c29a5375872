package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

var _ Repository = (*PgRepository)(nil)

const appointmentColumns = `
	id, vendor_id, staff_id, client_id, date, start_minute, end_minute,
	duration_minutes, service_items, amount, discount, tax, total_amount,
	status, cancel_reason, wedding_team, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var staffID *uuid.UUID
	var cancelReason *string
	var items []byte
	var date time.Time

	err := row.Scan(
		&a.ID,
		&a.VendorID,
		&staffID,
		&a.ClientID,
		&date,
		&a.StartMinute,
		&a.EndMinute,
		&a.DurationMinutes,
		&items,
		&a.Amount,
		&a.Discount,
		&a.Tax,
		&a.TotalAmount,
		&a.Status,
		&cancelReason,
		&a.WeddingTeam,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = date.Format("2006-01-02")
	a.StaffID = staffID
	a.CancelReason = cancelReason

	if len(items) > 0 {
		if err := json.Unmarshal(items, &a.ServiceItems); err != nil {
			return nil, fmt.Errorf("decode service items: %w", err)
		}
	}

	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindOverlapping(ctx context.Context, vendorID uuid.UUID, staffID *uuid.UUID, date string, startMinute, endMinute int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE vendor_id = $1
		  AND staff_id IS NOT DISTINCT FROM $2
		  AND date = $3::date
		  AND status IN ('scheduled', 'confirmed')
		  AND start_minute < $5
		  AND $4 < end_minute
	`, vendorID, staffID, date, startMinute, endMinute)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) error {
	items, err := json.Marshal(appt.ServiceItems)
	if err != nil {
		return fmt.Errorf("encode service items: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, vendor_id, staff_id, client_id, date, start_minute, end_minute,
			duration_minutes, service_items, amount, discount, tax, total_amount,
			status, wedding_team, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		RETURNING created_at, updated_at
	`,
		appt.ID, appt.VendorID, appt.StaffID, appt.ClientID, appt.Date,
		appt.StartMinute, appt.EndMinute, appt.DurationMinutes, items,
		appt.Amount, appt.Discount, appt.Tax, appt.TotalAmount,
		appt.Status, appt.WeddingTeam,
	)

	if err := row.Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, cancelReason *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancel_reason = COALESCE($4, cancel_reason),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from, cancelReason)

	return scanAppointment(row)
}

func (r *PgRepository) FindExpiredScheduled(ctx context.Context, regularCutoff, weddingCutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND ((NOT wedding_team AND created_at < $1)
		    OR (wedding_team AND created_at < $2))
		ORDER BY created_at
	`, regularCutoff, weddingCutoff)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1
		ORDER BY date DESC, start_minute DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, date string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE vendor_id = $1
		  AND date = $2::date
		ORDER BY start_minute
	`, vendorID, date)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
