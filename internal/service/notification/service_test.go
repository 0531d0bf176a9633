package notification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/schedule"
	"github.com/ayursutra/booking-api/pkg/apperror"
	"github.com/ayursutra/booking-api/pkg/logger"
)

type fakeNotificationRepo struct {
	created []*model.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	for _, n := range r.created {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, apperror.NotFound("notification")
}

func (r *fakeNotificationRepo) Update(_ context.Context, _ *model.Notification) error { return nil }

func (r *fakeNotificationRepo) ListForRecipient(_ context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.created {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, recipientID uuid.UUID) error {
	for _, n := range r.created {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return apperror.NotFound("notification")
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

type recordingSender struct {
	to  []string
	err error
}

func (s *recordingSender) Send(_ context.Context, to, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, to)
	return nil
}

func testAppointment(patientID, practitionerID uuid.UUID) *model.Appointment {
	return &model.Appointment{
		ID:             uuid.New(),
		PatientID:      patientID,
		PractitionerID: practitionerID,
		ScheduledDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:      schedule.TimeOfDay(10 * 60),
		EndTime:        schedule.TimeOfDay(11 * 60),
		SessionNumber:  1,
		TotalSessions:  7,
		PaymentAmount:  1000,
	}
}

func newTestService(sender *recordingSender) (*Service, *fakeNotificationRepo, *model.User, *model.User) {
	repo := &fakeNotificationRepo{}
	userRepo := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	patient := &model.User{ID: uuid.New(), Name: "Asha", Email: "asha@example.com", Role: model.RolePatient, IsActive: true}
	practitioner := &model.User{ID: uuid.New(), Name: "Dr. Rao", Role: model.RolePractitioner, IsActive: true}
	userRepo.users[patient.ID] = patient
	userRepo.users[practitioner.ID] = practitioner

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(repo, userRepo, sender, log), repo, patient, practitioner
}

func TestAppointmentBooked_NotifiesBothParties(t *testing.T) {
	sender := &recordingSender{}
	svc, repo, patient, practitioner := newTestService(sender)

	svc.AppointmentBooked(context.Background(), testAppointment(patient.ID, practitioner.ID))

	// Two in-app notifications plus one email record.
	require.Len(t, repo.created, 3)

	patientNotes, err := svc.ListNotifications(context.Background(), patient.ID, false)
	require.NoError(t, err)
	assert.Len(t, patientNotes, 2, "patient gets in-app and email copies")

	practitionerNotes, err := svc.ListNotifications(context.Background(), practitioner.ID, false)
	require.NoError(t, err)
	require.Len(t, practitionerNotes, 1)
	assert.Equal(t, model.NotificationChannelInApp, practitionerNotes[0].Channel)

	assert.Equal(t, []string{"asha@example.com"}, sender.to)
}

func TestAppointmentCancelled_MentionsRefund(t *testing.T) {
	sender := &recordingSender{}
	svc, repo, patient, practitioner := newTestService(sender)

	svc.AppointmentCancelled(context.Background(), testAppointment(patient.ID, practitioner.ID), 500)

	var found bool
	for _, n := range repo.created {
		if n.RecipientID == patient.ID && n.Channel == model.NotificationChannelInApp {
			assert.Contains(t, n.Message, "500.00")
			found = true
		}
	}
	assert.True(t, found, "patient in-app notification written")
}

func TestEmailFailure_RecordedNotRaised(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc, repo, patient, practitioner := newTestService(sender)

	// Must not panic or propagate the SMTP error.
	svc.AppointmentBooked(context.Background(), testAppointment(patient.ID, practitioner.ID))

	var emailNote *model.Notification
	for _, n := range repo.created {
		if n.Channel == model.NotificationChannelEmail {
			emailNote = n
		}
	}
	require.NotNil(t, emailNote)
	assert.Equal(t, model.NotificationStatusFailed, emailNote.Status)
	assert.Nil(t, emailNote.SentAt)
}

func TestMarkRead_ScopedToRecipient(t *testing.T) {
	sender := &recordingSender{}
	svc, _, patient, practitioner := newTestService(sender)

	svc.AppointmentBooked(context.Background(), testAppointment(patient.ID, practitioner.ID))

	notes, err := svc.ListNotifications(context.Background(), patient.ID, true)
	require.NoError(t, err)
	require.NotEmpty(t, notes)

	err = svc.MarkRead(context.Background(), notes[0].ID, practitioner.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound), "cannot mark someone else's notification")

	require.NoError(t, svc.MarkRead(context.Background(), notes[0].ID, patient.ID))

	unread, err := svc.ListNotifications(context.Background(), patient.ID, true)
	require.NoError(t, err)
	assert.Len(t, unread, len(notes)-1)
}
