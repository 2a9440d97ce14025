package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/clinibook/booking-api/config"
	"github.com/clinibook/booking-api/internal/model"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, doctorName string, result *model.BookingResult) error {
	body := fmt.Sprintf("Your appointment with Dr. %s is booked.\nReference: %s\n", doctorName, result.AppointmentID)
	switch result.Status {
	case model.BookingPaymentRequired:
		body += fmt.Sprintf("Please complete the online payment of Rs. %.2f to receive your reports.\n", result.Amount)
	default:
		if result.Message != "" {
			body += result.Message + "\n"
		}
	}
	return s.SendCustom(ctx, to, "Appointment confirmation", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
