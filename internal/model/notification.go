package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationAppointmentConfirmation NotificationType = "appointment_confirmation"
	NotificationAppointmentRescheduled  NotificationType = "appointment_rescheduled"
	NotificationAppointmentCancelled    NotificationType = "appointment_cancelled"
	NotificationAppointmentReminder     NotificationType = "appointment_reminder"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

type NotificationChannel string

const (
	NotificationChannelInApp NotificationChannel = "in_app"
	NotificationChannelEmail NotificationChannel = "email"
)

type Notification struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	RecipientID   uuid.UUID           `db:"recipient_id" json:"recipient_id"`
	SenderID      *uuid.UUID          `db:"sender_id" json:"sender_id,omitempty"`
	Type          NotificationType    `db:"type" json:"type"`
	Title         string              `db:"title" json:"title"`
	Message       string              `db:"message" json:"message"`
	AppointmentID *uuid.UUID          `db:"appointment_id" json:"appointment_id,omitempty"`
	Channel       NotificationChannel `db:"channel" json:"channel"`
	Status        NotificationStatus  `db:"status" json:"status"`
	Read          bool                `db:"read" json:"read"`
	ReadAt        *time.Time          `db:"read_at" json:"read_at,omitempty"`
	SentAt        *time.Time          `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}
