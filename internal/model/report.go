package model

import (
	"github.com/google/uuid"
)

// AppointmentReport is the metadata row for an uploaded report. The file
// bytes live in the external file store; FileKey is the pass-through
// reference.
type AppointmentReport struct {
	Base
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	FileName      string    `json:"file_name" db:"file_name"`
	FileKey       string    `json:"file_key" db:"file_key"`
}

type AddReportRequest struct {
	FileName string `json:"file_name" binding:"required,max=255"`
	FileKey  string `json:"file_key" binding:"required,max=512"`
}
