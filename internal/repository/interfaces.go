package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/schedule"
)

// All repository interfaces in one file.
type (
	// AppointmentRepository persists appointments. The *IfFree methods serialize
	// conflict-check-then-write per practitioner/day so concurrent bookings for
	// the same slot cannot both succeed.
	AppointmentRepository interface {
		// CreateIfFree re-checks conflicts under a per-practitioner-per-day lock
		// and inserts the appointment together with its outbox event. A non-empty
		// conflict list means nothing was written.
		CreateIfFree(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) ([]*model.Appointment, error)
		// RescheduleIfFree is CreateIfFree for an existing row, excluding the
		// appointment itself from the conflict check.
		RescheduleIfFree(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) ([]*model.Appointment, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// UpdateWithEvent writes the appointment and its outbox event atomically.
		UpdateWithEvent(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// FindConflicts returns occupying appointments for the practitioner on the
		// date whose time range overlaps r, excluding excludeID when non-nil.
		FindConflicts(ctx context.Context, practitionerID uuid.UUID, date time.Time, r schedule.TimeRange, excludeID *uuid.UUID) ([]*model.Appointment, error)
		// GetDaySchedule returns the practitioner's occupying appointments for one date.
		GetDaySchedule(ctx context.Context, practitionerID uuid.UUID, date time.Time) ([]*model.Appointment, error)
	}

	TherapyRepository interface {
		Create(ctx context.Context, therapy *model.Therapy) error
		Get(ctx context.Context, id uuid.UUID) (*model.Therapy, error)
		Update(ctx context.Context, therapy *model.Therapy) error
		List(ctx context.Context, activeOnly bool) ([]*model.Therapy, error)
		Deactivate(ctx context.Context, id uuid.UUID) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, role model.Role) ([]*model.User, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		Update(ctx context.Context, notification *model.Notification) error
		ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	}

	OutboxRepository interface {
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, retryCount int) error
	}
)
