package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	"github.com/clinibook/booking-api/internal/service/audit"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

// DoctorDirectory resolves the doctor a slot belongs to. Fee and active
// flag come from here; the booking engine never reads the doctors table
// directly.
type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
}

// Notifier delivers best-effort booking confirmations after commit.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, to string, doctorName string, result *model.BookingResult) error
}

// Service is the booking engine. Every booking runs as one transaction
// with the slot row exclusively locked, so N concurrent attempts against
// the same slot produce exactly one appointment.
type Service struct {
	store    repository.BookingStore
	doctors  DoctorDirectory
	users    repository.UserRepository
	auditor  *audit.Service
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(store repository.BookingStore, doctors DoctorDirectory, users repository.UserRepository, auditor *audit.Service, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		doctors:  doctors,
		users:    users,
		auditor:  auditor,
		notifier: notifier,
		logger:   logger,
	}
}

// Book converts an available slot into an appointment for the requester.
// A slot that does not exist and a slot that is already taken are both
// reported as not found; callers cannot probe which it was.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req *model.BookAppointmentRequest) (*model.BookingResult, error) {
	result, doctorName, err := s.book(ctx, &bookParams{
		slotID:           req.SlotID,
		userID:           &userID,
		consultationType: req.ConsultationType,
	})
	if err != nil {
		return nil, err
	}

	s.notifyRequester(ctx, userID, doctorName, result)
	return result, nil
}

// BookWalkIn creates a CLINIC appointment with no online requester,
// attributed to the acting staff member. Same locked protocol, no payment
// gate.
func (s *Service) BookWalkIn(ctx context.Context, staffID uuid.UUID, slotID uuid.UUID) (*model.BookingResult, error) {
	result, _, err := s.book(ctx, &bookParams{
		slotID:           slotID,
		staffID:          &staffID,
		consultationType: model.ConsultationClinic,
	})
	if err != nil {
		return nil, err
	}

	s.auditor.StaffAction(staffID, "walk_in_booked", result.AppointmentID, map[string]interface{}{
		"slot_id": slotID.String(),
	})
	return result, nil
}

type bookParams struct {
	slotID           uuid.UUID
	userID           *uuid.UUID
	staffID          *uuid.UUID
	consultationType model.ConsultationType
}

func (s *Service) book(ctx context.Context, p *bookParams) (*model.BookingResult, string, error) {
	var appt *model.Appointment
	var amount float64
	var doctorName string

	err := s.store.WithTx(ctx, func(tx repository.BookingTx) error {
		slot, err := tx.SlotForUpdate(ctx, p.slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return apperrors.NewNotFound("slot", nil)
		}

		doctor, err := s.doctors.Get(ctx, slot.DoctorID)
		if err != nil {
			return err
		}
		if doctor == nil || !doctor.IsActive {
			return apperrors.NewNotFound("doctor", nil)
		}
		amount = doctor.ConsultationFee
		doctorName = doctor.Name

		mode := model.PaymentModePayAtClinic
		if p.consultationType == model.ConsultationOnline {
			mode = model.PaymentModeOnline
		}

		appt = &model.Appointment{
			UserID:           p.userID,
			DoctorID:         slot.DoctorID,
			SlotID:           slot.ID,
			ConsultationType: p.consultationType,
			BookedByStaff:    p.staffID,
			Amount:           amount,
			PaymentMode:      mode,
			PaymentStatus:    model.PaymentStatusPending,
			Status:           model.AppointmentStatusBooked,
		}
		if err := tx.CreateAppointment(ctx, appt); err != nil {
			return err
		}
		if err := tx.SetSlotAvailability(ctx, slot.ID, false); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]interface{}{
			"appointment_id":    appt.ID,
			"doctor_id":         appt.DoctorID,
			"slot_id":           appt.SlotID,
			"consultation_type": appt.ConsultationType,
			"amount":            amount,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal booking event: %w", err)
		}
		return tx.CreateOutboxEvent(ctx, &model.OutboxEvent{
			EventType: model.EventAppointmentBooked,
			Payload:   payload,
		})
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("slot_id", p.slotID.String()).
		Str("consultation_type", string(p.consultationType)).
		Msg("appointment booked")

	if p.consultationType == model.ConsultationClinic {
		return &model.BookingResult{
			Status:        model.BookingConfirmed,
			AppointmentID: appt.ID,
			Amount:        amount,
			Message:       fmt.Sprintf("Appointment booked. Pay Rs. %.2f at clinic.", amount),
		}, doctorName, nil
	}
	return &model.BookingResult{
		Status:        model.BookingPaymentRequired,
		AppointmentID: appt.ID,
		Amount:        amount,
	}, doctorName, nil
}

// notifyRequester sends the confirmation email when the user has one.
// Failures are logged, never surfaced; the booking already committed.
func (s *Service) notifyRequester(ctx context.Context, userID uuid.UUID, doctorName string, result *model.BookingResult) {
	user, err := s.users.Get(ctx, userID)
	if err != nil || user == nil || user.Email == "" {
		return
	}

	if err := s.notifier.SendBookingConfirmation(ctx, user.Email, doctorName, result); err != nil {
		s.logger.Error().Err(err).
			Str("appointment_id", result.AppointmentID.String()).
			Msg("failed to send booking confirmation")
	}
}
