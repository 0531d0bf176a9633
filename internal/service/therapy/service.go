package therapy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/repository"
	"github.com/ayursutra/booking-api/pkg/apperror"
	"github.com/ayursutra/booking-api/pkg/logger"
)

const activeListKey = "therapies:active"

// Service manages the therapy catalog. The active-therapy list is the hot read
// path for the booking form, so it sits behind a short-lived in-process cache
// that mutations invalidate.
type Service struct {
	repo   repository.TherapyRepository
	cache  *cache.Cache
	logger *logger.Logger
}

func NewService(repo repository.TherapyRepository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
		logger: log,
	}
}

func (s *Service) CreateTherapy(ctx context.Context, actor model.Actor, req *model.CreateTherapyRequest) (*model.Therapy, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can manage the therapy catalog")
	}

	now := time.Now()
	therapy := &model.Therapy{
		ID:              uuid.New(),
		Name:            req.Name,
		SanskritName:    req.SanskritName,
		Category:        req.Category,
		Type:            req.Type,
		Description:     req.Description,
		SessionMinutes:  req.SessionMinutes,
		CourseSessions:  req.CourseSessions,
		PricePerSession: req.PricePerSession,
		IsActive:        true,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, therapy); err != nil {
		return nil, fmt.Errorf("failed to create therapy: %w", err)
	}

	s.cache.Delete(activeListKey)
	s.logger.Info("therapy created", "therapy_id", therapy.ID.String(), "name", therapy.Name)
	return therapy, nil
}

func (s *Service) GetTherapy(ctx context.Context, id uuid.UUID) (*model.Therapy, error) {
	return s.repo.Get(ctx, id)
}

// ListTherapies returns the catalog. The active-only listing is cached; the
// full listing always hits the database since only admins see it.
func (s *Service) ListTherapies(ctx context.Context, activeOnly bool) ([]*model.Therapy, error) {
	if activeOnly {
		if cached, ok := s.cache.Get(activeListKey); ok {
			return cached.([]*model.Therapy), nil
		}
	}

	therapies, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list therapies: %w", err)
	}
	if activeOnly {
		s.cache.Set(activeListKey, therapies, cache.DefaultExpiration)
	}
	return therapies, nil
}

func (s *Service) UpdateTherapy(ctx context.Context, id uuid.UUID, actor model.Actor, req *model.UpdateTherapyRequest) (*model.Therapy, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can manage the therapy catalog")
	}

	therapy, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		therapy.Name = *req.Name
	}
	if req.SanskritName != nil {
		therapy.SanskritName = *req.SanskritName
	}
	if req.Category != nil {
		therapy.Category = *req.Category
	}
	if req.Type != nil {
		therapy.Type = *req.Type
	}
	if req.Description != nil {
		therapy.Description = *req.Description
	}
	if req.SessionMinutes != nil {
		therapy.SessionMinutes = *req.SessionMinutes
	}
	if req.CourseSessions != nil {
		therapy.CourseSessions = *req.CourseSessions
	}
	if req.PricePerSession != nil {
		therapy.PricePerSession = *req.PricePerSession
	}
	if req.IsActive != nil {
		therapy.IsActive = *req.IsActive
	}
	therapy.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, therapy); err != nil {
		return nil, fmt.Errorf("failed to update therapy: %w", err)
	}

	s.cache.Delete(activeListKey)
	return therapy, nil
}

// DeactivateTherapy soft-deletes a catalog entry. Existing appointments keep
// their reference; new bookings against it are rejected.
func (s *Service) DeactivateTherapy(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("only admins can manage the therapy catalog")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(activeListKey)
	s.logger.Info("therapy deactivated", "therapy_id", id.String())
	return nil
}
