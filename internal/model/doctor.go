package model

import (
	"github.com/google/uuid"
)

// Doctor is a bookable practitioner. ConsultationFee is the amount charged
// per appointment; a zero fee is valid and books for free.
type Doctor struct {
	Base
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Specialization  string    `json:"specialization" db:"specialization"`
	ExperienceYears int       `json:"experience_years" db:"experience_years"`
	ConsultationFee float64   `json:"consultation_fee" db:"consultation_fee"`
	IsActive        bool      `json:"is_active" db:"is_active"`
}

type CreateDoctorRequest struct {
	UserID          uuid.UUID `json:"user_id" binding:"required"`
	Name            string    `json:"name" binding:"required,max=100"`
	Specialization  string    `json:"specialization" binding:"required,max=100"`
	ExperienceYears int       `json:"experience_years" binding:"gte=0"`
	ConsultationFee float64   `json:"consultation_fee" binding:"gte=0"`
}

type UpdateDoctorRequest struct {
	Name            *string  `json:"name"`
	Specialization  *string  `json:"specialization"`
	ExperienceYears *int     `json:"experience_years"`
	ConsultationFee *float64 `json:"consultation_fee" binding:"omitempty,gte=0"`
	IsActive        *bool    `json:"is_active"`
}
