package model

import (
	"github.com/google/uuid"
)

// Payment is written exactly once per appointment, when payment is
// confirmed. The one-to-one relation is enforced by a unique constraint on
// appointment_id, not by locking.
type Payment struct {
	Base
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        string    `json:"method" db:"method"`
	Status        string    `json:"status" db:"status"`
}

const PaymentRecordSuccess = "SUCCESS"

type ConfirmPaymentRequest struct {
	Method string `json:"method" binding:"required,max=20"`
}
