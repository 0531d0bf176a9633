package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/email"
	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/repository"
	"github.com/ayursutra/booking-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// Service writes in-app notifications and mirrors them to email. It backs the
// appointment service's Notifier hook; every delivery failure is logged and
// swallowed so booking flows never fail on notification problems.
type Service struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	sender   email.Sender
	logger   *logger.Logger
}

func NewService(repo repository.NotificationRepository, userRepo repository.UserRepository, sender email.Sender, log *logger.Logger) *Service {
	return &Service{repo: repo, userRepo: userRepo, sender: sender, logger: log}
}

func (s *Service) AppointmentBooked(ctx context.Context, apt *model.Appointment) {
	when := fmt.Sprintf("%s at %s", apt.ScheduledDate.Format(dateLayout), apt.StartTime)
	s.deliver(ctx, apt, model.NotificationAppointmentConfirmation,
		"Appointment booked",
		fmt.Sprintf("Your therapy session is booked for %s (session %d of %d).", when, apt.SessionNumber, apt.TotalSessions),
		fmt.Sprintf("A new session has been booked into your schedule for %s.", when))
}

func (s *Service) AppointmentRescheduled(ctx context.Context, apt *model.Appointment) {
	when := fmt.Sprintf("%s at %s", apt.ScheduledDate.Format(dateLayout), apt.StartTime)
	s.deliver(ctx, apt, model.NotificationAppointmentRescheduled,
		"Appointment rescheduled",
		fmt.Sprintf("Your therapy session has moved to %s.", when),
		fmt.Sprintf("A session in your schedule has moved to %s.", when))
}

func (s *Service) AppointmentCancelled(ctx context.Context, apt *model.Appointment, refund float64) {
	patientMsg := "Your therapy session has been cancelled."
	if refund > 0 {
		patientMsg = fmt.Sprintf("Your therapy session has been cancelled. A refund of %.2f is being processed.", refund)
	}
	s.deliver(ctx, apt, model.NotificationAppointmentCancelled,
		"Appointment cancelled",
		patientMsg,
		fmt.Sprintf("The session on %s at %s has been cancelled.", apt.ScheduledDate.Format(dateLayout), apt.StartTime))
}

// deliver writes one in-app notification per party and emails the patient.
func (s *Service) deliver(ctx context.Context, apt *model.Appointment, typ model.NotificationType, title, patientMsg, practitionerMsg string) {
	s.notifyInApp(ctx, apt, typ, title, patientMsg, apt.PatientID)
	s.notifyInApp(ctx, apt, typ, title, practitionerMsg, apt.PractitionerID)
	s.notifyEmail(ctx, apt, typ, title, patientMsg)
}

func (s *Service) notifyInApp(ctx context.Context, apt *model.Appointment, typ model.NotificationType, title, message string, recipient uuid.UUID) {
	now := time.Now()
	n := &model.Notification{
		ID:            uuid.New(),
		RecipientID:   recipient,
		Type:          typ,
		Title:         title,
		Message:       message,
		AppointmentID: &apt.ID,
		Channel:       model.NotificationChannelInApp,
		Status:        model.NotificationStatusSent,
		SentAt:        &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error(err, "failed to write notification",
			"recipient_id", recipient.String(),
			"appointment_id", apt.ID.String())
	}
}

func (s *Service) notifyEmail(ctx context.Context, apt *model.Appointment, typ model.NotificationType, title, message string) {
	patient, err := s.userRepo.Get(ctx, apt.PatientID)
	if err != nil {
		s.logger.Error(err, "failed to resolve notification recipient", "patient_id", apt.PatientID.String())
		return
	}

	now := time.Now()
	n := &model.Notification{
		ID:            uuid.New(),
		RecipientID:   patient.ID,
		Type:          typ,
		Title:         title,
		Message:       message,
		AppointmentID: &apt.ID,
		Channel:       model.NotificationChannelEmail,
		Status:        model.NotificationStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.sender.Send(ctx, patient.Email, title, message); err != nil {
		n.Status = model.NotificationStatusFailed
		s.logger.Error(err, "failed to email notification", "patient_id", patient.ID.String())
	} else {
		sent := time.Now()
		n.Status = model.NotificationStatusSent
		n.SentAt = &sent
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error(err, "failed to record email notification", "patient_id", patient.ID.String())
	}
}

func (s *Service) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	return s.repo.ListForRecipient(ctx, recipientID, unreadOnly)
}

// MarkRead flips the read flag. The recipient scoping lives in the repository
// so one user cannot mark another's notification.
func (s *Service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}
