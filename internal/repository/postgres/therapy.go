package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/pkg/apperror"
)

const therapyColumns = `
	id, name, sanskrit_name, category, type, description,
	session_minutes, course_sessions, price_per_session,
	is_active, created_by, created_at, updated_at
`

func (r *therapyRepository) Create(ctx context.Context, therapy *model.Therapy) error {
	query := `
		INSERT INTO therapies (
			id, name, sanskrit_name, category, type, description,
			session_minutes, course_sessions, price_per_session,
			is_active, created_by, created_at, updated_at
		) VALUES (
			:id, :name, :sanskrit_name, :category, :type, :description,
			:session_minutes, :course_sessions, :price_per_session,
			:is_active, :created_by, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, therapy); err != nil {
		return fmt.Errorf("failed to create therapy: %w", err)
	}
	return nil
}

func (r *therapyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Therapy, error) {
	query := `SELECT ` + therapyColumns + ` FROM therapies WHERE id = $1`

	var therapy model.Therapy
	if err := r.db.GetContext(ctx, &therapy, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("therapy")
		}
		return nil, fmt.Errorf("failed to get therapy: %w", err)
	}
	return &therapy, nil
}

func (r *therapyRepository) Update(ctx context.Context, therapy *model.Therapy) error {
	query := `
		UPDATE therapies SET
			name = :name,
			sanskrit_name = :sanskrit_name,
			category = :category,
			type = :type,
			description = :description,
			session_minutes = :session_minutes,
			course_sessions = :course_sessions,
			price_per_session = :price_per_session,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, therapy)
	if err != nil {
		return fmt.Errorf("failed to update therapy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("therapy")
	}
	return nil
}

func (r *therapyRepository) List(ctx context.Context, activeOnly bool) ([]*model.Therapy, error) {
	query := `SELECT ` + therapyColumns + ` FROM therapies`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name ASC`

	var therapies []*model.Therapy
	if err := r.db.SelectContext(ctx, &therapies, query); err != nil {
		return nil, fmt.Errorf("failed to list therapies: %w", err)
	}
	return therapies, nil
}

func (r *therapyRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE therapies SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate therapy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("therapy")
	}
	return nil
}
