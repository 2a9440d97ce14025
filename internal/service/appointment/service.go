package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	"github.com/clinibook/booking-api/internal/service/audit"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

// Service owns the appointment state machine: BOOKED is the only live
// state, COMPLETED and CANCELLED are terminal. Payment confirmation is an
// independent sub-state on the same row.
type Service struct {
	store   repository.BookingStore
	appts   repository.AppointmentRepository
	reports repository.ReportRepository
	auditor *audit.Service
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(store repository.BookingStore, appts repository.AppointmentRepository, reports repository.ReportRepository, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		appts:   appts,
		reports: reports,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// canCancel applies the user-facing cancel rule: still booked, and the
// visit has not started yet.
func (s *Service) canCancel(appt *model.Appointment) bool {
	if appt.Status != model.AppointmentStatusBooked {
		return false
	}
	return s.now().Before(appt.SlotStart)
}

// Cancel is the requester-only transition BOOKED -> CANCELLED. It releases
// the slot for rebooking in the same transaction.
func (s *Service) Cancel(ctx context.Context, appointmentID, userID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.BookingTx) error {
		appt, err := tx.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt == nil || appt.UserID == nil || *appt.UserID != userID {
			return apperrors.NewNotFound("appointment", nil)
		}
		if !s.canCancel(appt) {
			return apperrors.NewForbidden("cannot cancel this appointment")
		}

		appt.Status = model.AppointmentStatusCancelled
		if err := tx.UpdateAppointment(ctx, appt); err != nil {
			return err
		}
		if err := tx.SetSlotAvailability(ctx, appt.SlotID, true); err != nil {
			return err
		}
		return s.emit(ctx, tx, model.EventAppointmentCancelled, appt)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("appointment_id", appointmentID.String()).
		Msg("appointment cancelled")
	return nil
}

// Complete is the doctor-only transition BOOKED -> COMPLETED. The slot
// stays consumed. With cancel=true the doctor voids the visit instead;
// unlike the patient path this is not time-gated, and the slot is not
// reopened.
func (s *Service) Complete(ctx context.Context, appointmentID, doctorID uuid.UUID, cancel bool) error {
	target := model.AppointmentStatusCompleted
	event := model.EventAppointmentCompleted
	if cancel {
		target = model.AppointmentStatusCancelled
		event = model.EventAppointmentCancelled
	}

	err := s.store.WithTx(ctx, func(tx repository.BookingTx) error {
		appt, err := tx.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt == nil || appt.DoctorID != doctorID {
			return apperrors.NewNotFound("appointment", nil)
		}
		if appt.Status.Terminal() {
			return apperrors.NewState(fmt.Sprintf("appointment is already %s", appt.Status))
		}

		appt.Status = target
		if err := tx.UpdateAppointment(ctx, appt); err != nil {
			return err
		}
		return s.emit(ctx, tx, event, appt)
	})
	if err != nil {
		return err
	}

	s.auditor.DoctorAction(doctorID, string(target), appointmentID)
	return nil
}

// ConfirmPayment transitions payment_status PENDING -> PAID and writes the
// payment record. Confirming an already-paid appointment succeeds without
// side effects.
func (s *Service) ConfirmPayment(ctx context.Context, appointmentID, userID uuid.UUID, method string) error {
	return s.store.WithTx(ctx, func(tx repository.BookingTx) error {
		appt, err := tx.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt == nil || appt.UserID == nil || *appt.UserID != userID {
			return apperrors.NewNotFound("appointment", nil)
		}
		if appt.ConsultationType != model.ConsultationOnline {
			return apperrors.NewForbidden("invalid payment attempt")
		}
		if appt.PaymentStatus == model.PaymentStatusPaid {
			// Idempotent: repeat confirmations are a success, not an error.
			return nil
		}
		if appt.PaymentStatus != model.PaymentStatusPending {
			return apperrors.NewState(fmt.Sprintf("cannot pay appointment with payment status %s", appt.PaymentStatus))
		}

		appt.PaymentStatus = model.PaymentStatusPaid
		if err := tx.UpdateAppointment(ctx, appt); err != nil {
			return err
		}

		if _, err := tx.CreatePayment(ctx, &model.Payment{
			AppointmentID: appt.ID,
			Amount:        appt.Amount,
			Method:        method,
			Status:        model.PaymentRecordSuccess,
		}); err != nil {
			return err
		}
		return s.emit(ctx, tx, model.EventPaymentConfirmed, appt)
	})
}

// StaffMarkPaid reconciles a pay-at-clinic payment. Online appointments
// are deliberately not mutable through this path; the request is refused
// silently, matching the staff desk workflow.
func (s *Service) StaffMarkPaid(ctx context.Context, appointmentID, staffID uuid.UUID) error {
	var marked bool
	err := s.store.WithTx(ctx, func(tx repository.BookingTx) error {
		appt, err := tx.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt == nil {
			return apperrors.NewNotFound("appointment", nil)
		}
		if appt.ConsultationType != model.ConsultationClinic {
			return nil
		}
		if appt.PaymentStatus == model.PaymentStatusPaid {
			return nil
		}

		appt.PaymentStatus = model.PaymentStatusPaid
		if err := tx.UpdateAppointment(ctx, appt); err != nil {
			return err
		}
		if _, err := tx.CreatePayment(ctx, &model.Payment{
			AppointmentID: appt.ID,
			Amount:        appt.Amount,
			Method:        "CASH",
			Status:        model.PaymentRecordSuccess,
		}); err != nil {
			return err
		}
		marked = true
		return s.emit(ctx, tx, model.EventPaymentConfirmed, appt)
	})
	if err != nil {
		return err
	}

	if marked {
		s.auditor.StaffAction(staffID, "payment_marked_paid", appointmentID, nil)
	}
	return nil
}

// StaffForceStatus sets COMPLETED or CANCELLED on any appointment,
// bypassing the time-based cancel restriction. Administrative correction;
// always attributed to the acting staff identity. The slot is not
// reopened.
func (s *Service) StaffForceStatus(ctx context.Context, appointmentID, staffID uuid.UUID, status model.AppointmentStatus) error {
	if status != model.AppointmentStatusCompleted && status != model.AppointmentStatusCancelled {
		return apperrors.NewValidation("status must be COMPLETED or CANCELLED", nil)
	}

	err := s.store.WithTx(ctx, func(tx repository.BookingTx) error {
		appt, err := tx.AppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt == nil {
			return apperrors.NewNotFound("appointment", nil)
		}

		appt.Status = status
		return tx.UpdateAppointment(ctx, appt)
	})
	if err != nil {
		return err
	}

	s.auditor.StaffAction(staffID, "status_forced", appointmentID, map[string]interface{}{
		"status": string(status),
	})
	return nil
}

// History lists the requester's own appointments, newest booking first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	return s.appts.List(ctx, &model.AppointmentFilters{UserID: userID})
}

// DoctorDay lists a doctor's appointments for one day, ordered by slot
// start.
func (s *Service) DoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	return s.appts.List(ctx, &model.AppointmentFilters{
		DoctorID:        doctorID,
		Date:            &date,
		SortBySlotStart: true,
		SortAsc:         true,
	})
}

// StaffDoctorAppointments is the staff desk view: one doctor's
// appointments, optional date filter, booking-time order.
func (s *Service) StaffDoctorAppointments(ctx context.Context, doctorID uuid.UUID, date *time.Time, sortAsc bool) ([]*model.Appointment, error) {
	return s.appts.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		Date:     date,
		SortAsc:  sortAsc,
	})
}

// Get returns the appointment when it is visible to the requester: its
// owner, or the doctor it belongs to.
func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return appt, nil
}

// reportsAllowed is the upload gate: online visits only after payment,
// clinic visits only while still booked.
func reportsAllowed(appt *model.Appointment) error {
	switch appt.ConsultationType {
	case model.ConsultationOnline:
		if appt.PaymentStatus != model.PaymentStatusPaid {
			return apperrors.NewForbidden("reports allowed only after payment")
		}
	case model.ConsultationClinic:
		if appt.Status != model.AppointmentStatusBooked {
			return apperrors.NewForbidden("invalid appointment")
		}
	}
	return nil
}

// AddReport attaches report metadata to the requester's appointment.
func (s *Service) AddReport(ctx context.Context, appointmentID, userID uuid.UUID, req *model.AddReportRequest) (*model.AppointmentReport, error) {
	appt, err := s.ownedAppointment(ctx, appointmentID, userID)
	if err != nil {
		return nil, err
	}
	if err := reportsAllowed(appt); err != nil {
		return nil, err
	}

	report := &model.AppointmentReport{
		AppointmentID: appt.ID,
		FileName:      req.FileName,
		FileKey:       req.FileKey,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns report metadata for the owner or the appointment's
// doctor.
func (s *Service) ListReports(ctx context.Context, appointmentID, requesterID uuid.UUID, asDoctor bool) ([]*model.AppointmentReport, error) {
	appt, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperrors.NewNotFound("appointment", nil)
	}

	if asDoctor {
		if appt.DoctorID != requesterID {
			return nil, apperrors.NewNotFound("appointment", nil)
		}
	} else if appt.UserID == nil || *appt.UserID != requesterID {
		return nil, apperrors.NewNotFound("appointment", nil)
	}

	return s.reports.ListForAppointment(ctx, appointmentID)
}

// DeleteReport removes report metadata owned by the requester.
func (s *Service) DeleteReport(ctx context.Context, reportID, userID uuid.UUID) error {
	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return err
	}
	if report == nil {
		return apperrors.NewNotFound("report", nil)
	}

	if _, err := s.ownedAppointment(ctx, report.AppointmentID, userID); err != nil {
		return err
	}
	return s.reports.Delete(ctx, reportID)
}

func (s *Service) ownedAppointment(ctx context.Context, appointmentID, userID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil || appt.UserID == nil || *appt.UserID != userID {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return appt, nil
}

func (s *Service) emit(ctx context.Context, tx repository.BookingTx, eventType string, appt *model.Appointment) error {
	payload, err := json.Marshal(map[string]interface{}{
		"appointment_id": appt.ID,
		"doctor_id":      appt.DoctorID,
		"slot_id":        appt.SlotID,
		"status":         appt.Status,
		"payment_status": appt.PaymentStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return tx.CreateOutboxEvent(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	})
}
