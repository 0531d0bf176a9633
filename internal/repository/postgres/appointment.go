package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/schedule"
	"github.com/ayursutra/booking-api/pkg/apperror"
)

const appointmentColumns = `
	id, patient_id, practitioner_id, therapy_id,
	scheduled_date, start_minute, end_minute, duration_minutes,
	session_number, total_sessions, status,
	payment_amount, payment_status, payment_method, notes,
	cancelled_at, cancelled_by, cancel_reason, refund_status,
	next_appointment_id, created_at, updated_at
`

const conflictQuery = `
	SELECT ` + appointmentColumns + `
	FROM appointments
	WHERE practitioner_id = $1
	AND scheduled_date = $2
	AND status IN ('scheduled', 'confirmed', 'in-progress')
	AND start_minute < $3
	AND end_minute > $4
`

func (r *appointmentRepository) FindConflicts(ctx context.Context, practitionerID uuid.UUID, date time.Time, tr schedule.TimeRange, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	return findConflicts(ctx, r.db, practitionerID, date, tr, excludeID)
}

// findConflicts runs against either the pool or an open transaction.
func findConflicts(ctx context.Context, q sqlx.QueryerContext, practitionerID uuid.UUID, date time.Time, tr schedule.TimeRange, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := conflictQuery
	args := []interface{}{practitionerID, dateOnly(date), tr.End, tr.Start}

	if excludeID != nil {
		query += " AND id != $5"
		args = append(args, *excludeID)
	}
	query += " ORDER BY start_minute ASC"

	var conflicts []*model.Appointment
	if err := sqlx.SelectContext(ctx, q, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find conflicting appointments: %w", err)
	}
	return conflicts, nil
}

// CreateIfFree takes a transaction-scoped advisory lock keyed on the
// practitioner and date, re-checks conflicts, and only then inserts the
// appointment and its outbox event. Two concurrent bookings for the same
// practitioner/day serialize on the lock, so both cannot pass the check.
func (r *appointmentRepository) CreateIfFree(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) ([]*model.Appointment, error) {
	var conflicts []*model.Appointment
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockPractitionerDay(ctx, tx, apt.PractitionerID, apt.ScheduledDate); err != nil {
			return err
		}

		found, err := findConflicts(ctx, tx, apt.PractitionerID, apt.ScheduledDate, apt.TimeRange(), nil)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return nil
		}

		if err := insertAppointment(ctx, tx, apt); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *appointmentRepository) RescheduleIfFree(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) ([]*model.Appointment, error) {
	var conflicts []*model.Appointment
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockPractitionerDay(ctx, tx, apt.PractitionerID, apt.ScheduledDate); err != nil {
			return err
		}

		found, err := findConflicts(ctx, tx, apt.PractitionerID, apt.ScheduledDate, apt.TimeRange(), &apt.ID)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return nil
		}

		if err := updateAppointment(ctx, tx, apt); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var apt model.Appointment
	if err := r.db.GetContext(ctx, &apt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) UpdateWithEvent(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateAppointment(ctx, tx, apt); err != nil {
			return err
		}
		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.PractitionerID != uuid.Nil {
		query += fmt.Sprintf(" AND practitioner_id = $%d", argCount)
		args = append(args, filters.PractitionerID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.Date != nil {
		query += fmt.Sprintf(" AND scheduled_date = $%d", argCount)
		args = append(args, dateOnly(*filters.Date))
		argCount++
	}

	query += " ORDER BY scheduled_date ASC, start_minute ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) GetDaySchedule(ctx context.Context, practitionerID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND scheduled_date = $2
		AND status IN ('scheduled', 'confirmed', 'in-progress')
		ORDER BY start_minute ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, practitionerID, dateOnly(date)); err != nil {
		return nil, fmt.Errorf("failed to get day schedule: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

func lockPractitionerDay(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID, date time.Time) error {
	// Released automatically at commit/rollback.
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`,
		practitionerID.String(), dateOnly(date).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to take booking lock: %w", err)
	}
	return nil
}

func insertAppointment(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, practitioner_id, therapy_id,
			scheduled_date, start_minute, end_minute, duration_minutes,
			session_number, total_sessions, status,
			payment_amount, payment_status, payment_method, notes,
			created_at, updated_at
		) VALUES (
			:id, :patient_id, :practitioner_id, :therapy_id,
			:scheduled_date, :start_minute, :end_minute, :duration_minutes,
			:session_number, :total_sessions, :status,
			:payment_amount, :payment_status, :payment_method, :notes,
			:created_at, :updated_at
		)
	`
	if _, err := tx.NamedExecContext(ctx, query, apt); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func updateAppointment(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	query := `
		UPDATE appointments SET
			scheduled_date = :scheduled_date,
			start_minute = :start_minute,
			end_minute = :end_minute,
			duration_minutes = :duration_minutes,
			session_number = :session_number,
			total_sessions = :total_sessions,
			status = :status,
			payment_amount = :payment_amount,
			payment_status = :payment_status,
			payment_method = :payment_method,
			notes = :notes,
			cancelled_at = :cancelled_at,
			cancelled_by = :cancelled_by,
			cancel_reason = :cancel_reason,
			refund_status = :refund_status,
			next_appointment_id = :next_appointment_id,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := tx.NamedExecContext(ctx, query, apt)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("appointment")
	}
	return nil
}

// dateOnly strips the time-of-day component; appointment dates match on the
// calendar date alone.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
