package staff

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/handler"
	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/service/appointment"
	"github.com/clinibook/booking-api/internal/service/booking"
	"github.com/clinibook/booking-api/internal/service/slot"
)

type Handler struct {
	bookings     *booking.Service
	appointments *appointment.Service
	slots        *slot.Service
}

func NewHandler(bookings *booking.Service, appointments *appointment.Service, slots *slot.Service) *Handler {
	return &Handler{
		bookings:     bookings,
		appointments: appointments,
		slots:        slots,
	}
}

func staffID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		return uuid.Nil, false
	}
	return id, true
}

// WalkIn books a slot at the front desk for a patient with no account.
func (h *Handler) WalkIn(c *gin.Context) {
	id, ok := staffID(c)
	if !ok {
		return
	}

	var req struct {
		SlotID uuid.UUID `json:"slot_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.bookings.BookWalkIn(c.Request.Context(), id, req.SlotID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

// MarkPaid settles a pay-at-clinic appointment. Online appointments are
// left untouched.
func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := staffID(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.appointments.StaffMarkPaid(c.Request.Context(), apptID, id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("payment recorded"))
}

// ForceStatus moves an appointment to COMPLETED or CANCELLED regardless of
// the slot time.
func (h *Handler) ForceStatus(c *gin.Context) {
	id, ok := staffID(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req struct {
		Status model.AppointmentStatus `json:"status" binding:"required,oneof=COMPLETED CANCELLED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.appointments.StaffForceStatus(c.Request.Context(), apptID, id, req.Status); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("status updated"))
}

// DoctorAppointments lists a doctor's appointments for the front desk,
// optionally filtered by date and sorted by slot start.
func (h *Handler) DoctorAppointments(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := h.slots.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
			return
		}
		date = &parsed
	}

	sortAsc := c.DefaultQuery("sort", "asc") != "desc"
	appts, err := h.appointments.StaffDoctorAppointments(c.Request.Context(), doctorID, date, sortAsc)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appts))
}
