package user

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/pkg/apperror"
	"github.com/ayursutra/booking-api/pkg/logger"
	"github.com/ayursutra/booking-api/pkg/security"
)

type fakeRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (r *fakeRepo) List(_ context.Context, role model.Role) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if u.Role == role && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := &fakeRepo{users: make(map[uuid.UUID]*model.User)}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(repo, security.NewBcryptHasher(4), log), repo
}

func TestCreateUser_HashesPassword(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "secret-pass",
		Role:     model.RolePatient,
	})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", u.Email, "email is normalised")
	assert.NotEqual(t, "secret-pass", u.PasswordHash)
	assert.True(t, u.IsActive)

	hasher := security.NewBcryptHasher(4)
	assert.NoError(t, hasher.Compare(u.PasswordHash, "secret-pass"))
	assert.Error(t, hasher.Compare(u.PasswordHash, "wrong-pass"))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := &model.CreateUserRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret-pass",
		Role:     model.RolePatient,
	}
	_, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, req)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestListPractitioners_ExcludesInactive(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	active, err := svc.CreateUser(ctx, &model.CreateUserRequest{
		Name: "Dr. Rao", Email: "rao@example.com", Password: "secret-pass", Role: model.RolePractitioner,
	})
	require.NoError(t, err)

	retired, err := svc.CreateUser(ctx, &model.CreateUserRequest{
		Name: "Dr. Iyer", Email: "iyer@example.com", Password: "secret-pass", Role: model.RolePractitioner,
	})
	require.NoError(t, err)
	repo.users[retired.ID].IsActive = false

	practitioners, err := svc.ListPractitioners(ctx)
	require.NoError(t, err)
	require.Len(t, practitioners, 1)
	assert.Equal(t, active.ID, practitioners[0].ID)
}
