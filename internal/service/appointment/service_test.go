package appointment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/repository"
	"github.com/ayursutra/booking-api/internal/schedule"
	"github.com/ayursutra/booking-api/pkg/apperror"
	"github.com/ayursutra/booking-api/pkg/logger"
	"github.com/ayursutra/booking-api/pkg/metrics"
)

// Shared across tests: prometheus collectors register globally once.
var testMetrics = metrics.NewMetrics("test_appointment")

var (
	_ repository.AppointmentRepository = (*fakeAppointmentRepo)(nil)
	_ repository.TherapyRepository     = (*fakeTherapyRepo)(nil)
	_ repository.UserRepository        = (*fakeUserRepo)(nil)
	_ Notifier                         = noopNotifier{}
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) conflicts(practitionerID uuid.UUID, date time.Time, tr schedule.TimeRange, excludeID *uuid.UUID) []*model.Appointment {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.PractitionerID != practitionerID || !sameDate(apt.ScheduledDate, date) {
			continue
		}
		if !apt.Status.Occupying() {
			continue
		}
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.TimeRange().Overlaps(tr) {
			out = append(out, apt)
		}
	}
	return out
}

func (r *fakeAppointmentRepo) CreateIfFree(_ context.Context, apt *model.Appointment, _ *model.OutboxEvent) ([]*model.Appointment, error) {
	if found := r.conflicts(apt.PractitionerID, apt.ScheduledDate, apt.TimeRange(), nil); len(found) > 0 {
		return found, nil
	}
	cp := *apt
	r.appointments[apt.ID] = &cp
	return nil, nil
}

func (r *fakeAppointmentRepo) RescheduleIfFree(_ context.Context, apt *model.Appointment, _ *model.OutboxEvent) ([]*model.Appointment, error) {
	if found := r.conflicts(apt.PractitionerID, apt.ScheduledDate, apt.TimeRange(), &apt.ID); len(found) > 0 {
		return found, nil
	}
	cp := *apt
	r.appointments[apt.ID] = &cp
	return nil, nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok {
		return nil, apperror.NotFound("appointment")
	}
	cp := *apt
	return &cp, nil
}

func (r *fakeAppointmentRepo) UpdateWithEvent(_ context.Context, apt *model.Appointment, _ *model.OutboxEvent) error {
	if _, ok := r.appointments[apt.ID]; !ok {
		return apperror.NotFound("appointment")
	}
	cp := *apt
	r.appointments[apt.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
			continue
		}
		if filters.PractitionerID != uuid.Nil && apt.PractitionerID != filters.PractitionerID {
			continue
		}
		if filters.Status != "" && apt.Status != filters.Status {
			continue
		}
		cp := *apt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindConflicts(_ context.Context, practitionerID uuid.UUID, date time.Time, tr schedule.TimeRange, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	return r.conflicts(practitionerID, date, tr, excludeID), nil
}

func (r *fakeAppointmentRepo) GetDaySchedule(_ context.Context, practitionerID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.PractitionerID == practitionerID && sameDate(apt.ScheduledDate, date) && apt.Status.Occupying() {
			cp := *apt
			out = append(out, &cp)
		}
	}
	return out, nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

type fakeTherapyRepo struct {
	therapies map[uuid.UUID]*model.Therapy
}

func (r *fakeTherapyRepo) Create(_ context.Context, th *model.Therapy) error {
	r.therapies[th.ID] = th
	return nil
}

func (r *fakeTherapyRepo) Get(_ context.Context, id uuid.UUID) (*model.Therapy, error) {
	th, ok := r.therapies[id]
	if !ok {
		return nil, apperror.NotFound("therapy")
	}
	return th, nil
}

func (r *fakeTherapyRepo) Update(_ context.Context, th *model.Therapy) error {
	r.therapies[th.ID] = th
	return nil
}

func (r *fakeTherapyRepo) List(_ context.Context, _ bool) ([]*model.Therapy, error) { return nil, nil }

func (r *fakeTherapyRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if th, ok := r.therapies[id]; ok {
		th.IsActive = false
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, apperror.NotFound("user")
}

func (r *fakeUserRepo) List(_ context.Context, _ model.Role) ([]*model.User, error) { return nil, nil }

type noopNotifier struct{}

func (noopNotifier) AppointmentBooked(context.Context, *model.Appointment)              {}
func (noopNotifier) AppointmentRescheduled(context.Context, *model.Appointment)         {}
func (noopNotifier) AppointmentCancelled(context.Context, *model.Appointment, float64) {}

type fixture struct {
	svc          *Service
	repo         *fakeAppointmentRepo
	patient      *model.User
	practitioner *model.User
	therapy      *model.Therapy
	now          time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	repo := newFakeAppointmentRepo()
	therapyRepo := &fakeTherapyRepo{therapies: make(map[uuid.UUID]*model.Therapy)}
	userRepo := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}

	patient := &model.User{ID: uuid.New(), Name: "Asha", Role: model.RolePatient, IsActive: true}
	practitioner := &model.User{ID: uuid.New(), Name: "Dr. Rao", Role: model.RolePractitioner, IsActive: true}
	userRepo.users[patient.ID] = patient
	userRepo.users[practitioner.ID] = practitioner

	therapy := &model.Therapy{
		ID:              uuid.New(),
		Name:            "Shirodhara",
		CourseSessions:  7,
		PricePerSession: 1000,
		IsActive:        true,
	}
	therapyRepo.therapies[therapy.ID] = therapy

	cfg := Config{
		WorkingHours:       schedule.DefaultWorkingHours,
		MinDurationMinutes: 15,
		Policy:             DefaultCancelPolicy(loc),
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, therapyRepo, userRepo, noopNotifier{}, cfg, log, testMetrics)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:          svc,
		repo:         repo,
		patient:      patient,
		practitioner: practitioner,
		therapy:      therapy,
		now:          now,
	}
}

func (f *fixture) createRequest(date, start, end string) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PractitionerID: f.practitioner.ID,
		TherapyID:      f.therapy.ID,
		ScheduledDate:  date,
		ScheduledTime:  model.ScheduledTimeRequest{Start: start, End: end},
	}
}

func (f *fixture) actor() model.Actor {
	return model.Actor{ID: f.patient.ID, Role: model.RolePatient}
}

func TestCreateAppointment_DefaultsFromTherapy(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.CreateAppointment(context.Background(), f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, 60, apt.Duration)
	assert.Equal(t, 1, apt.SessionNumber)
	assert.Equal(t, 7, apt.TotalSessions, "defaulted from therapy course length")
	assert.Equal(t, 1000.0, apt.PaymentAmount, "defaulted from therapy price")
	assert.Equal(t, model.PaymentStatusPending, apt.PaymentStatus)
}

func TestCreateAppointment_ConflictRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	_, err = f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:30", "11:30"))
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	require.Len(t, appErr.Conflicts, 1)
	assert.Equal(t, first.ID.String(), appErr.Conflicts[0].AppointmentID)
}

func TestCreateAppointment_BoundaryAdjacentAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	// Back-to-back with the first booking: half-open intervals do not overlap.
	_, err = f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "11:00", "12:00"))
	assert.NoError(t, err)
}

func TestCreateAppointment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *model.CreateAppointmentRequest
	}{
		{"past date", f.createRequest("2024-12-20", "10:00", "11:00")},
		{"same day", f.createRequest("2025-01-01", "15:00", "16:00")},
		{"bad time", f.createRequest("2025-01-10", "25:00", "26:00")},
		{"inverted range", f.createRequest("2025-01-10", "11:00", "10:00")},
		{"too short", f.createRequest("2025-01-10", "10:00", "10:10")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateAppointment(ctx, f.patient.ID, tc.req)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}

	req := f.createRequest("2025-01-10", "10:00", "11:00")
	req.SessionNumber = 9
	req.TotalSessions = 7
	_, err := f.svc.CreateAppointment(ctx, f.patient.ID, req)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "session number above total")
}

func TestCreateAppointment_InactiveTherapyAndPractitioner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.therapy.IsActive = false
	_, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	f.therapy.IsActive = true
	f.practitioner.IsActive = false
	_, err = f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestUpdateAppointment_TerminalStateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	stored := f.repo.appointments[apt.ID]
	stored.Status = model.AppointmentStatusCompleted

	notes := "new notes"
	_, err = f.svc.UpdateAppointment(ctx, apt.ID, f.actor(), &model.UpdateAppointmentRequest{Notes: &notes})
	assert.True(t, apperror.IsCode(err, apperror.CodeTerminalState))
}

func TestUpdateAppointment_RescheduleExcludesSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	// Shifting within the original window must not conflict with itself.
	updated, err := f.svc.UpdateAppointment(ctx, apt.ID, f.actor(), &model.UpdateAppointmentRequest{
		ScheduledTime: &model.ScheduledTimeRequest{Start: "10:30", End: "11:30"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10:30", updated.StartTime.String())
	assert.Equal(t, 60, updated.Duration)
}

func TestUpdateAppointment_RescheduleConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)
	second, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "12:00", "13:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateAppointment(ctx, second.ID, f.actor(), &model.UpdateAppointmentRequest{
		ScheduledTime: &model.ScheduledTimeRequest{Start: "10:30", End: "11:30"},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestUpdateAppointment_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	confirmed := model.AppointmentStatusConfirmed
	_, err = f.svc.UpdateAppointment(ctx, apt.ID, f.actor(), &model.UpdateAppointmentRequest{Status: &confirmed})
	require.NoError(t, err)

	// scheduled/confirmed cannot jump straight to completed.
	completed := model.AppointmentStatusCompleted
	_, err = f.svc.UpdateAppointment(ctx, apt.ID, f.actor(), &model.UpdateAppointmentRequest{Status: &completed})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	inProgress := model.AppointmentStatusInProgress
	_, err = f.svc.UpdateAppointment(ctx, apt.ID, f.actor(), &model.UpdateAppointmentRequest{Status: &inProgress})
	require.NoError(t, err)
	_, err = f.svc.UpdateAppointment(ctx, apt.ID, f.actor(), &model.UpdateAppointmentRequest{Status: &completed})
	assert.NoError(t, err)
}

func TestUpdateAppointment_ForbiddenActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	notes := "nope"
	stranger := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	_, err = f.svc.UpdateAppointment(ctx, apt.ID, stranger, &model.UpdateAppointmentRequest{Notes: &notes})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestCancelAppointment_FullRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// now is 2025-01-01 10:00 IST; a session on 2025-01-03 at 12:00 is 50 hours out.
	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-03", "12:00", "13:00"))
	require.NoError(t, err)

	result, err := f.svc.CancelAppointment(ctx, apt.ID, f.actor(), "feeling better")
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.RefundAmount)
	assert.Equal(t, model.AppointmentStatusCancelled, result.Appointment.Status)
	require.NotNil(t, result.Appointment.RefundStatus)
	assert.Equal(t, model.RefundStatusPending, *result.Appointment.RefundStatus)
	require.NotNil(t, result.Appointment.CancelledBy)
	assert.Equal(t, f.patient.ID, *result.Appointment.CancelledBy)
	require.NotNil(t, result.Appointment.CancelReason)
	assert.Equal(t, "feeling better", *result.Appointment.CancelReason)
}

func TestCancelAppointment_InsideNoticeWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Session tomorrow at 09:00 is only 23 hours out.
	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-02", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(ctx, apt.ID, f.actor(), "")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotCancellable))

	// The appointment stays untouched.
	stored := f.repo.appointments[apt.ID]
	assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slots, err := f.svc.AvailableSlots(ctx, f.practitioner.ID, "2025-01-10")
	require.NoError(t, err)
	require.Len(t, slots, 8, "empty day offers every working-hour slot")

	_, err = f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:30"))
	require.NoError(t, err)

	slots, err = f.svc.AvailableSlots(ctx, f.practitioner.ID, "2025-01-10")
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, "09:00 - 10:00", slots[0].String())
	assert.Equal(t, "12:00 - 13:00", slots[1].String())
}

func TestAvailableSlots_CancelledBookingFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(ctx, apt.ID, f.actor(), "")
	require.NoError(t, err)

	slots, err := f.svc.AvailableSlots(ctx, f.practitioner.ID, "2025-01-10")
	require.NoError(t, err)
	assert.Len(t, slots, 8, "cancelled appointments do not occupy slots")
}

func TestListAppointments_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAppointment(ctx, f.patient.ID, f.createRequest("2025-01-10", "10:00", "11:00"))
	require.NoError(t, err)

	other := uuid.New()
	_, err = f.svc.CreateAppointment(ctx, other, f.createRequest("2025-01-10", "12:00", "13:00"))
	require.NoError(t, err)

	mine, err := f.svc.ListAppointments(ctx, f.actor(), nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.ListAppointments(ctx, model.Actor{ID: uuid.New(), Role: model.RoleAdmin}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
