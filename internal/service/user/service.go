package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/repository"
	"github.com/ayursutra/booking-api/pkg/apperror"
	"github.com/ayursutra/booking-api/pkg/logger"
	"github.com/ayursutra/booking-api/pkg/security"
)

// Service manages patient, practitioner and admin accounts.
type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
	logger *logger.Logger
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, log *logger.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: log}
}

func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.Validation("email is already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID.String(), "role", string(user.Role))
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

// ListPractitioners backs the booking form's practitioner picker.
func (s *Service) ListPractitioners(ctx context.Context) ([]*model.User, error) {
	return s.repo.List(ctx, model.RolePractitioner)
}
