package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/ayursutra/booking-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type therapyRepository struct {
	db *sqlx.DB
}

type userRepository struct {
	db *sqlx.DB
}

type notificationRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewTherapyRepository(db *sqlx.DB) repository.TherapyRepository {
	return &therapyRepository{db: db}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
