package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByPhone(ctx context.Context, phone string) (*model.User, error)
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
		UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		ListActive(ctx context.Context) ([]*model.Doctor, error)
	}

	SlotRepository interface {
		Create(ctx context.Context, slot *model.TimeSlot) error
		// CreateIfAbsent inserts the slot unless one with the same doctor,
		// start and end already exists. Returns true when a row was inserted.
		CreateIfAbsent(ctx context.Context, slot *model.TimeSlot) (bool, error)
		Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
		Update(ctx context.Context, slot *model.TimeSlot) error
		// Delete removes the slot only while it is still available; a booked
		// slot is reported as a conflict by the caller.
		Delete(ctx context.Context, id uuid.UUID) (bool, error)
		// HasOverlap runs the half-open interval test for the doctor's day,
		// excluding excludeID when the check guards an edit.
		HasOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
		ListForDay(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*model.TimeSlot, error)
		ListAvailableForDay(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*model.TimeSlot, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.AppointmentReport) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentReport, error)
		ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentReport, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	TrainingRepository interface {
		ListCourses(ctx context.Context) ([]*model.TrainingCourse, error)
		GetCourse(ctx context.Context, id uuid.UUID) (*model.TrainingCourse, error)
		// Enroll inserts the enrollment unless one already exists for the
		// course and user. Returns true when a row was inserted.
		Enroll(ctx context.Context, enrollment *model.TrainingEnrollment) (bool, error)
	}

	OutboxRepository interface {
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// BookingTx is the set of operations available inside a booking
// transaction. The slot row fetched through SlotForUpdate stays exclusively
// locked until the transaction commits or rolls back.
type BookingTx interface {
	// SlotForUpdate locks and returns the slot only while it is available.
	// An absent slot and an already-booked slot are indistinguishable here;
	// both come back as model.TimeSlot == nil.
	SlotForUpdate(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
	// AppointmentForUpdate locks the appointment row together with its slot
	// timing columns.
	AppointmentForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	UpdateAppointment(ctx context.Context, appt *model.Appointment) error
	SetSlotAvailability(ctx context.Context, slotID uuid.UUID, available bool) error
	// CreatePayment inserts the payment unless one already exists for the
	// appointment. Returns true when a row was inserted.
	CreatePayment(ctx context.Context, payment *model.Payment) (bool, error)
	CreateOutboxEvent(ctx context.Context, event *model.OutboxEvent) error
}

// BookingStore runs fn inside a single database transaction. Any error
// rolls everything back; partial booking state is never observable.
type BookingStore interface {
	WithTx(ctx context.Context, fn func(BookingTx) error) error
}
