package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/schedule"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusInProgress  AppointmentStatus = "in-progress"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusNoShow      AppointmentStatus = "no-show"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// Occupying reports whether an appointment in this status blocks its time slot.
func (s AppointmentStatus) Occupying() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress:
		return true
	}
	return false
}

// Terminal reports whether no further scheduling mutation is permitted.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow,
		AppointmentStatusRescheduled:
		return true
	}
	return false
}

// CanTransitionTo validates a status move against the lifecycle state machine.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case AppointmentStatusScheduled:
		switch next {
		case AppointmentStatusConfirmed, AppointmentStatusInProgress, AppointmentStatusCancelled,
			AppointmentStatusNoShow, AppointmentStatusRescheduled:
			return true
		}
	case AppointmentStatusConfirmed:
		switch next {
		case AppointmentStatusInProgress, AppointmentStatusCancelled,
			AppointmentStatusNoShow, AppointmentStatusRescheduled:
			return true
		}
	case AppointmentStatusInProgress:
		switch next {
		case AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusRescheduled:
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type RefundStatus string

const (
	RefundStatusNone    RefundStatus = "none"
	RefundStatusPending RefundStatus = "pending"
	RefundStatusPartial RefundStatus = "partial"
	RefundStatusFull    RefundStatus = "full"
)

// Appointment is one scheduled therapy session. Appointments are never deleted;
// cancellation is a status change.
type Appointment struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	PatientID       uuid.UUID          `db:"patient_id" json:"patient_id"`
	PractitionerID  uuid.UUID          `db:"practitioner_id" json:"practitioner_id"`
	TherapyID       uuid.UUID          `db:"therapy_id" json:"therapy_id"`
	ScheduledDate   time.Time          `db:"scheduled_date" json:"scheduled_date"`
	StartTime       schedule.TimeOfDay `db:"start_minute" json:"start_time"`
	EndTime         schedule.TimeOfDay `db:"end_minute" json:"end_time"`
	Duration        int                `db:"duration_minutes" json:"duration"`
	SessionNumber   int                `db:"session_number" json:"session_number"`
	TotalSessions   int                `db:"total_sessions" json:"total_sessions"`
	Status          AppointmentStatus  `db:"status" json:"status"`
	PaymentAmount   float64            `db:"payment_amount" json:"payment_amount"`
	PaymentStatus   PaymentStatus      `db:"payment_status" json:"payment_status"`
	PaymentMethod   string             `db:"payment_method" json:"payment_method"`
	Notes           string             `db:"notes" json:"notes,omitempty"`
	CancelledAt     *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy     *uuid.UUID         `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason    *string            `db:"cancel_reason" json:"cancel_reason,omitempty"`
	RefundStatus    *RefundStatus      `db:"refund_status" json:"refund_status,omitempty"`
	NextAppointment *uuid.UUID         `db:"next_appointment_id" json:"next_appointment_id,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// TimeRange returns the session's half-open booking interval.
func (a *Appointment) TimeRange() schedule.TimeRange {
	return schedule.TimeRange{Start: a.StartTime, End: a.EndTime}
}

// StartsAt composes the scheduled date with the start clock time in the clinic zone.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.StartTime.At(a.ScheduledDate, loc)
}

type ScheduledTimeRequest struct {
	Start string `json:"start" binding:"required,timeofday"`
	End   string `json:"end" binding:"required,timeofday"`
}

type CreateAppointmentRequest struct {
	PractitionerID uuid.UUID            `json:"practitioner_id" binding:"required"`
	TherapyID      uuid.UUID            `json:"therapy_id" binding:"required"`
	ScheduledDate  string               `json:"scheduled_date" binding:"required"`
	ScheduledTime  ScheduledTimeRequest `json:"scheduled_time" binding:"required"`
	SessionNumber  int                  `json:"session_number" binding:"omitempty,min=1"`
	TotalSessions  int                  `json:"total_sessions" binding:"omitempty,min=1"`
	Notes          string               `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	ScheduledDate *string               `json:"scheduled_date"`
	ScheduledTime *ScheduledTimeRequest `json:"scheduled_time"`
	Status        *AppointmentStatus    `json:"status"`
	Notes         *string               `json:"notes" binding:"omitempty,max=1000"`
	PaymentStatus *PaymentStatus        `json:"payment_status"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelResult pairs the cancelled appointment with the refund owed.
type CancelResult struct {
	Appointment  *Appointment `json:"appointment"`
	RefundAmount float64      `json:"refund_amount"`
}

type AppointmentFilters struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	Status         AppointmentStatus
	Date           *time.Time
}
