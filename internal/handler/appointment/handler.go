package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/handler"
	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/service/appointment"
	"github.com/clinibook/booking-api/internal/service/booking"
	"github.com/clinibook/booking-api/internal/service/doctor"
)

type Handler struct {
	bookings     *booking.Service
	appointments *appointment.Service
	doctors      *doctor.Service
}

func NewHandler(bookings *booking.Service, appointments *appointment.Service, doctors *doctor.Service) *Handler {
	return &Handler{
		bookings:     bookings,
		appointments: appointments,
		doctors:      doctors,
	}
}

func requesterID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		return uuid.Nil, false
	}
	return id, true
}

// Book claims a slot for the authenticated user.
func (h *Handler) Book(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.bookings.Book(c.Request.Context(), userID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.appointments.Cancel(c.Request.Context(), apptID, userID); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("appointment cancelled"))
}

// Pay confirms an online payment. Confirming twice is a no-op.
func (h *Handler) Pay(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.appointments.ConfirmPayment(c.Request.Context(), apptID, userID, req.Method); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("payment confirmed"))
}

// History lists the user's appointments newest-first.
func (h *Handler) History(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	appts, err := h.appointments.History(c.Request.Context(), userID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appts))
}

func (h *Handler) AddReport(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.AddReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	report, err := h.appointments.AddReport(c.Request.Context(), apptID, userID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(report))
}

func (h *Handler) ListReports(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	requester := userID
	asDoctor := model.Role(c.GetString("role")) == model.RoleDoctor
	if asDoctor {
		doc, err := h.doctors.GetByUser(c.Request.Context(), userID)
		if err != nil {
			handler.Error(c, err)
			return
		}
		requester = doc.ID
	}

	reports, err := h.appointments.ListReports(c.Request.Context(), apptID, requester, asDoctor)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(reports))
}

func (h *Handler) DeleteReport(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	reportID, err := uuid.Parse(c.Param("reportID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid report ID"))
		return
	}

	if err := h.appointments.DeleteReport(c.Request.Context(), reportID, userID); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("report deleted"))
}
