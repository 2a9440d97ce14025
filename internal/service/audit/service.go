package audit

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the audit trail for privileged actions. Staff overrides must
// always be attributable to the acting staff identity; this sink is the
// record of who did what to which appointment.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger.Named("audit")}
}

// StaffAction records a privileged staff operation.
func (s *Service) StaffAction(staffID uuid.UUID, action string, appointmentID uuid.UUID, details map[string]interface{}) {
	fields := []zap.Field{
		zap.String("staff_id", staffID.String()),
		zap.String("action", action),
		zap.String("appointment_id", appointmentID.String()),
	}
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}
	s.logger.Info("staff_override", fields...)
}

// DoctorAction records a doctor-initiated status change.
func (s *Service) DoctorAction(doctorID uuid.UUID, action string, appointmentID uuid.UUID) {
	s.logger.Info("doctor_action",
		zap.String("doctor_id", doctorID.String()),
		zap.String("action", action),
		zap.String("appointment_id", appointmentID.String()),
	)
}
