package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/handler"
	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/service/appointment"
	"github.com/clinibook/booking-api/internal/service/doctor"
	"github.com/clinibook/booking-api/internal/service/slot"
	"github.com/clinibook/booking-api/pkg/errors"
)

type Handler struct {
	doctors      *doctor.Service
	slots        *slot.Service
	appointments *appointment.Service
}

func NewHandler(doctors *doctor.Service, slots *slot.Service, appointments *appointment.Service) *Handler {
	return &Handler{
		doctors:      doctors,
		slots:        slots,
		appointments: appointments,
	}
}

// ListDoctors returns the active doctor directory.
func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.doctors.ListActive(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	doc, err := h.doctors.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if doc == nil {
		handler.Error(c, errors.NewNotFound("doctor", nil))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}

// AvailableSlots lists open slots for a doctor on a given date, generating
// the default template for the day when nothing exists yet.
func (h *Handler) AvailableSlots(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	date, err := h.slots.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	views, err := h.slots.AvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(views))
}

// CreateDoctor provisions a doctor profile for an existing user and
// promotes that user to the doctor role.
func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doc, err := h.doctors.Create(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doc))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doc, err := h.doctors.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}

// self resolves the doctor profile behind the authenticated user.
func (h *Handler) self(c *gin.Context) (*model.Doctor, bool) {
	userID, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		return nil, false
	}

	doc, err := h.doctors.GetByUser(c.Request.Context(), userID)
	if err != nil {
		handler.Error(c, err)
		return nil, false
	}
	return doc, true
}

// DayAppointments lists the authenticated doctor's appointments for a date.
func (h *Handler) DayAppointments(c *gin.Context) {
	doc, ok := h.self(c)
	if !ok {
		return
	}

	date, err := h.slots.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	appts, err := h.appointments.DoctorDay(c.Request.Context(), doc.ID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appts))
}

func (h *Handler) ListSlots(c *gin.Context) {
	doc, ok := h.self(c)
	if !ok {
		return
	}

	date, err := h.slots.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	slots, err := h.slots.SlotsForDay(c.Request.Context(), doc.ID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

func (h *Handler) AddSlot(c *gin.Context) {
	doc, ok := h.self(c)
	if !ok {
		return
	}

	var req model.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	date, err := h.slots.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	created, err := h.slots.AddSlot(c.Request.Context(), doc.ID, date, req.StartTime, req.EndTime)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) EditSlot(c *gin.Context) {
	doc, ok := h.self(c)
	if !ok {
		return
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot ID"))
		return
	}

	var req model.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.slots.EditSlot(c.Request.Context(), doc.ID, slotID, req.StartTime, req.EndTime)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	doc, ok := h.self(c)
	if !ok {
		return
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot ID"))
		return
	}

	if err := h.slots.DeleteSlot(c.Request.Context(), doc.ID, slotID); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("slot deleted"))
}

// CompleteAppointment closes out a visit. The doctor can cancel instead of
// complete by sending {"cancel": true}.
func (h *Handler) CompleteAppointment(c *gin.Context) {
	doc, ok := h.self(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req struct {
		Cancel bool `json:"cancel"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	if err := h.appointments.Complete(c.Request.Context(), apptID, doc.ID, req.Cancel); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("appointment updated"))
}
