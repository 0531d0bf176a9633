package model

import (
	"time"

	"github.com/google/uuid"
)

// Therapy is a catalog entry describing a treatment type. Deactivated therapies
// stay in the catalog but cannot be booked.
type Therapy struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	SanskritName    string    `db:"sanskrit_name" json:"sanskrit_name,omitempty"`
	Category        string    `db:"category" json:"category"`
	Type            string    `db:"type" json:"type"`
	Description     string    `db:"description" json:"description"`
	SessionMinutes  int       `db:"session_minutes" json:"session_minutes"`
	CourseSessions  int       `db:"course_sessions" json:"course_sessions"`
	PricePerSession float64   `db:"price_per_session" json:"price_per_session"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedBy       uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Therapy categories from classical Ayurveda practice.
const (
	TherapyCategoryShodhana    = "Shodhana"
	TherapyCategoryShamana     = "Shamana"
	TherapyCategoryRasayana    = "Rasayana"
	TherapyCategorySatwavajaya = "Satwavajaya"
	TherapyCategoryOther       = "Other"
)

type CreateTherapyRequest struct {
	Name            string  `json:"name" binding:"required,max=200"`
	SanskritName    string  `json:"sanskrit_name" binding:"max=200"`
	Category        string  `json:"category" binding:"required,oneof=Shodhana Shamana Rasayana Satwavajaya Other"`
	Type            string  `json:"type" binding:"required,max=100"`
	Description     string  `json:"description" binding:"required,max=1000"`
	SessionMinutes  int     `json:"session_minutes" binding:"required,min=15,max=480"`
	CourseSessions  int     `json:"course_sessions" binding:"required,min=1,max=100"`
	PricePerSession float64 `json:"price_per_session" binding:"required,min=0"`
}

type UpdateTherapyRequest struct {
	Name            *string  `json:"name" binding:"omitempty,max=200"`
	SanskritName    *string  `json:"sanskrit_name" binding:"omitempty,max=200"`
	Category        *string  `json:"category" binding:"omitempty,oneof=Shodhana Shamana Rasayana Satwavajaya Other"`
	Type            *string  `json:"type" binding:"omitempty,max=100"`
	Description     *string  `json:"description" binding:"omitempty,max=1000"`
	SessionMinutes  *int     `json:"session_minutes" binding:"omitempty,min=15,max=480"`
	CourseSessions  *int     `json:"course_sessions" binding:"omitempty,min=1,max=100"`
	PricePerSession *float64 `json:"price_per_session" binding:"omitempty,min=0"`
	IsActive        *bool    `json:"is_active"`
}
