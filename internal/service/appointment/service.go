package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/repository"
	"github.com/ayursutra/booking-api/internal/schedule"
	"github.com/ayursutra/booking-api/pkg/apperror"
	"github.com/ayursutra/booking-api/pkg/logger"
	"github.com/ayursutra/booking-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Notifier receives lifecycle announcements. Failures are logged, never
// surfaced: a booking does not fail because a notification could not be written.
type Notifier interface {
	AppointmentBooked(ctx context.Context, apt *model.Appointment)
	AppointmentRescheduled(ctx context.Context, apt *model.Appointment)
	AppointmentCancelled(ctx context.Context, apt *model.Appointment, refund float64)
}

// Config carries the scheduling policy knobs.
type Config struct {
	WorkingHours       schedule.WorkingHours
	MinDurationMinutes int
	Policy             CancelPolicy
}

// Service orchestrates the appointment lifecycle: booking with conflict
// rejection, rescheduling, status transitions and policy-gated cancellation.
type Service struct {
	repo        repository.AppointmentRepository
	therapyRepo repository.TherapyRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	cfg         Config
	logger      *logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	therapyRepo repository.TherapyRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if cfg.MinDurationMinutes <= 0 {
		cfg.MinDurationMinutes = 15
	}
	return &Service{
		repo:        repo,
		therapyRepo: therapyRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		cfg:         cfg,
		logger:      log,
		metrics:     m,
		now:         time.Now,
	}
}

// CreateAppointment books a session for the acting patient. The conflict check
// and insert run atomically in the repository; a non-empty conflict list comes
// back as a ConflictError naming the blocking appointments.
func (s *Service) CreateAppointment(ctx context.Context, patientID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	therapy, err := s.therapyRepo.Get(ctx, req.TherapyID)
	if err != nil {
		return nil, err
	}
	if !therapy.IsActive {
		return nil, apperror.NotFound("therapy")
	}

	practitioner, err := s.userRepo.Get(ctx, req.PractitionerID)
	if err != nil {
		return nil, err
	}
	if practitioner.Role != model.RolePractitioner || !practitioner.IsActive {
		return nil, apperror.NotFound("practitioner")
	}

	date, err := s.parseFutureDate(req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	tr, err := s.parseTimeRange(req.ScheduledTime)
	if err != nil {
		return nil, err
	}

	sessionNumber := req.SessionNumber
	if sessionNumber == 0 {
		sessionNumber = 1
	}
	totalSessions := req.TotalSessions
	if totalSessions == 0 {
		totalSessions = therapy.CourseSessions
	}
	if sessionNumber > totalSessions {
		return nil, apperror.Validationf("session number %d exceeds total sessions %d", sessionNumber, totalSessions)
	}

	now := s.now()
	apt := &model.Appointment{
		ID:             uuid.New(),
		PatientID:      patientID,
		PractitionerID: req.PractitionerID,
		TherapyID:      req.TherapyID,
		ScheduledDate:  date,
		StartTime:      tr.Start,
		EndTime:        tr.End,
		Duration:       tr.Duration(),
		SessionNumber:  sessionNumber,
		TotalSessions:  totalSessions,
		Status:         model.AppointmentStatusScheduled,
		PaymentAmount:  therapy.PricePerSession,
		PaymentStatus:  model.PaymentStatusPending,
		PaymentMethod:  "cash",
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	conflicts, err := s.repo.CreateIfFree(ctx, apt, s.outboxEvent(model.EventAppointmentCreated, apt))
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	if len(conflicts) > 0 {
		s.metrics.BookingConflicts.Inc()
		s.metrics.BookingsTotal.WithLabelValues("conflict").Inc()
		return nil, conflictError(conflicts)
	}

	s.metrics.BookingsTotal.WithLabelValues("booked").Inc()
	s.logger.Info("appointment booked",
		"appointment_id", apt.ID.String(),
		"practitioner_id", apt.PractitionerID.String(),
		"date", apt.ScheduledDate.Format(dateLayout))

	s.notifier.AppointmentBooked(ctx, apt)
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(apt, actor); err != nil {
		return nil, err
	}
	return apt, nil
}

// ListAppointments scopes results to the actor: patients see their own
// bookings, practitioners their own schedule, admins everything.
func (s *Service) ListAppointments(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	switch actor.Role {
	case model.RolePatient:
		filters.PatientID = actor.ID
	case model.RolePractitioner:
		filters.PractitionerID = actor.ID
	}
	return s.repo.List(ctx, filters)
}

// UpdateAppointment applies a patch. Terminal appointments reject every
// mutation; date or time changes re-run the conflict check excluding the
// appointment itself.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, actor model.Actor, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(apt, actor); err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, apperror.TerminalState(fmt.Sprintf("cannot update a %s appointment", apt.Status))
	}

	rescheduled := false
	if req.ScheduledDate != nil {
		date, err := s.parseFutureDate(*req.ScheduledDate)
		if err != nil {
			return nil, err
		}
		apt.ScheduledDate = date
		rescheduled = true
	}
	if req.ScheduledTime != nil {
		tr, err := s.parseTimeRange(*req.ScheduledTime)
		if err != nil {
			return nil, err
		}
		apt.StartTime = tr.Start
		apt.EndTime = tr.End
		apt.Duration = tr.Duration()
		rescheduled = true
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperror.Validationf("unknown status %q", *req.Status)
		}
		if !apt.Status.CanTransitionTo(*req.Status) {
			return nil, apperror.Validationf("cannot move appointment from %s to %s", apt.Status, *req.Status)
		}
		apt.Status = *req.Status
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}
	if req.PaymentStatus != nil {
		apt.PaymentStatus = *req.PaymentStatus
	}
	apt.UpdatedAt = s.now()

	event := s.outboxEvent(model.EventAppointmentUpdated, apt)
	if rescheduled {
		conflicts, err := s.repo.RescheduleIfFree(ctx, apt, event)
		if err != nil {
			return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
		}
		if len(conflicts) > 0 {
			s.metrics.BookingConflicts.Inc()
			return nil, conflictError(conflicts)
		}
		s.notifier.AppointmentRescheduled(ctx, apt)
	} else {
		if err := s.repo.UpdateWithEvent(ctx, apt, event); err != nil {
			return nil, fmt.Errorf("failed to update appointment: %w", err)
		}
	}

	return apt, nil
}

// CancelAppointment enforces the notice window, computes the refund and stamps
// the cancellation record. The appointment row stays; only its status changes.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor, reason string) (*model.CancelResult, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(apt, actor); err != nil {
		return nil, err
	}

	now := s.now()
	if !s.cfg.Policy.CanCancel(apt, now) {
		return nil, apperror.NotCancellable(fmt.Sprintf(
			"appointment cannot be cancelled: cancellation requires %d hours notice and a scheduled or confirmed status",
			s.cfg.Policy.NoticeHours))
	}

	refund := s.cfg.Policy.RefundAmount(apt, now)
	if reason == "" {
		reason = "No reason provided"
	}

	refundStatus := model.RefundStatusNone
	if refund > 0 {
		refundStatus = model.RefundStatusPending
	}

	actorID := actor.ID
	apt.Status = model.AppointmentStatusCancelled
	apt.CancelledAt = &now
	apt.CancelledBy = &actorID
	apt.CancelReason = &reason
	apt.RefundStatus = &refundStatus
	apt.UpdatedAt = now

	if err := s.repo.UpdateWithEvent(ctx, apt, s.outboxEvent(model.EventAppointmentCancelled, apt)); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.metrics.BookingsTotal.WithLabelValues("cancelled").Inc()
	s.logger.Info("appointment cancelled",
		"appointment_id", apt.ID.String(),
		"refund", refund)

	s.notifier.AppointmentCancelled(ctx, apt, refund)
	return &model.CancelResult{Appointment: apt, RefundAmount: refund}, nil
}

// AvailableSlots computes the free fixed-length slots for a practitioner's day
// from the configured working hours and the day's occupying bookings.
func (s *Service) AvailableSlots(ctx context.Context, practitionerID uuid.UUID, dateStr string) ([]schedule.TimeRange, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, apperror.Validationf("invalid date %q (use YYYY-MM-DD)", dateStr)
	}

	practitioner, err := s.userRepo.Get(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	if practitioner.Role != model.RolePractitioner || !practitioner.IsActive {
		return nil, apperror.NotFound("practitioner")
	}

	booked, err := s.repo.GetDaySchedule(ctx, practitionerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day schedule: %w", err)
	}

	busy := make([]schedule.TimeRange, 0, len(booked))
	for _, apt := range booked {
		busy = append(busy, apt.TimeRange())
	}
	return schedule.AvailableSlots(s.cfg.WorkingHours, busy), nil
}

func (s *Service) parseFutureDate(dateStr string) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, dateStr, s.cfg.Policy.Location)
	if err != nil {
		return time.Time{}, apperror.Validationf("invalid date %q (use YYYY-MM-DD)", dateStr)
	}
	if !date.After(s.now().In(s.cfg.Policy.Location)) {
		return time.Time{}, apperror.Validation("scheduled date must be in the future")
	}
	return date, nil
}

func (s *Service) parseTimeRange(req model.ScheduledTimeRequest) (schedule.TimeRange, error) {
	tr, err := schedule.NewTimeRange(req.Start, req.End)
	if err != nil {
		return schedule.TimeRange{}, apperror.Validation(err.Error())
	}
	if tr.Duration() < s.cfg.MinDurationMinutes {
		return schedule.TimeRange{}, apperror.Validationf("session must be at least %d minutes", s.cfg.MinDurationMinutes)
	}
	return tr, nil
}

func (s *Service) outboxEvent(eventType string, apt *model.Appointment) *model.OutboxEvent {
	payload, err := json.Marshal(apt)
	if err != nil {
		// Appointment marshalling cannot fail with these field types; guard anyway.
		s.logger.Error(err, "failed to marshal outbox payload", "appointment_id", apt.ID.String())
		payload = []byte(fmt.Sprintf(`{"id":%q}`, apt.ID))
	}
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: s.now(),
	}
}

func authorize(apt *model.Appointment, actor model.Actor) error {
	if actor.IsAdmin() || actor.ID == apt.PatientID || actor.ID == apt.PractitionerID {
		return nil
	}
	return apperror.Forbidden("not authorized for this appointment")
}

func conflictError(conflicts []*model.Appointment) error {
	details := make([]apperror.ConflictDetail, 0, len(conflicts))
	for _, c := range conflicts {
		details = append(details, apperror.ConflictDetail{
			AppointmentID: c.ID.String(),
			Time:          c.TimeRange().String(),
		})
	}
	return apperror.Conflict("time slot is not available, please choose a different time", details)
}
