package email

import (
	"context"

	"github.com/clinibook/booking-api/internal/model"
)

type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, doctorName string, result *model.BookingResult) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// NewNoop returns a Service that records nothing and always succeeds.
// Used in tests and when SMTP is not configured.
func NewNoop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) SendBookingConfirmation(ctx context.Context, to string, doctorName string, result *model.BookingResult) error {
	return nil
}

func (noopService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	return nil
}
