package model

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationType string

const (
	ConsultationOnline ConsultationType = "ONLINE"
	ConsultationClinic ConsultationType = "CLINIC"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "BOOKED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Terminal reports whether no further status transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

type PaymentMode string

const (
	PaymentModeOnline      PaymentMode = "ONLINE"
	PaymentModePayAtClinic PaymentMode = "PAY_AT_CLINIC"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
)

// Appointment is the append-only record of a booking. It is never hard
// deleted; status transitions record its history. UserID is nil for staff
// walk-ins.
type Appointment struct {
	Base
	UserID           *uuid.UUID        `json:"user_id,omitempty" db:"user_id"`
	DoctorID         uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	SlotID           uuid.UUID         `json:"slot_id" db:"slot_id"`
	ConsultationType ConsultationType  `json:"consultation_type" db:"consultation_type"`
	BookedByStaff    *uuid.UUID        `json:"booked_by_staff,omitempty" db:"booked_by_staff"`
	Amount           float64           `json:"amount" db:"amount"`
	PaymentMode      PaymentMode       `json:"payment_mode" db:"payment_mode"`
	PaymentStatus    PaymentStatus     `json:"payment_status" db:"payment_status"`
	Status           AppointmentStatus `json:"status" db:"status"`

	// Populated on reads that join the slot row.
	SlotStart time.Time `json:"slot_start,omitempty" db:"slot_start"`
	SlotEnd   time.Time `json:"slot_end,omitempty" db:"slot_end"`
}

type BookAppointmentRequest struct {
	SlotID           uuid.UUID        `json:"slot_id" binding:"required"`
	ConsultationType ConsultationType `json:"consultation_type" binding:"required,oneof=ONLINE CLINIC"`
}

// BookingOutcome distinguishes a confirmed clinic booking from an online
// booking that still has to clear payment.
type BookingOutcome string

const (
	BookingConfirmed       BookingOutcome = "CONFIRMED"
	BookingPaymentRequired BookingOutcome = "PAYMENT_REQUIRED"
)

type BookingResult struct {
	Status        BookingOutcome `json:"status"`
	AppointmentID uuid.UUID      `json:"appointment_id"`
	Amount        float64        `json:"amount,omitempty"`
	Message       string         `json:"message,omitempty"`
}

type AppointmentFilters struct {
	DoctorID uuid.UUID
	UserID   uuid.UUID
	Status   AppointmentStatus
	Date     *time.Time
	// SortBySlotStart orders by the slot's start time instead of booking
	// time; used for the doctor's day view.
	SortBySlotStart bool
	SortAsc         bool
}
