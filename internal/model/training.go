package model

import (
	"time"

	"github.com/google/uuid"
)

type CourseStatus string

const (
	CourseStatusUpcoming  CourseStatus = "UPCOMING"
	CourseStatusOngoing   CourseStatus = "ONGOING"
	CourseStatusCompleted CourseStatus = "COMPLETED"
)

type TrainingCourse struct {
	Base
	Name        string       `json:"name" db:"name"`
	TrainerName string       `json:"trainer_name" db:"trainer_name"`
	Status      CourseStatus `json:"status" db:"status"`
	StartsAt    time.Time    `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time    `json:"ends_at" db:"ends_at"`
}

// TrainingEnrollment is unique per (course, user); the constraint lives in
// the database, concurrent enrollments need no lock.
type TrainingEnrollment struct {
	Base
	CourseID uuid.UUID `json:"course_id" db:"course_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	FullName string    `json:"full_name" db:"full_name"`
	Phone    string    `json:"phone" db:"phone"`
	Email    string    `json:"email" db:"email"`
}

type EnrollRequest struct {
	FullName string `json:"full_name" binding:"required,max=100"`
	Phone    string `json:"phone" binding:"required,min=10,max=15"`
	Email    string `json:"email" binding:"required,email"`
}
