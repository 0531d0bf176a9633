package appointment

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/middleware"
	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/service/appointment"
	"github.com/ayursutra/booking-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/available-slots", h.AvailableSlots)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	actor := middleware.GetActor(c)
	apt, err := h.service.CreateAppointment(c.Request.Context(), actor.ID, &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.Created(c, "appointment booked", apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid appointment ID")
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if s := c.Query("status"); s != "" {
		status := model.AppointmentStatus(s)
		if !status.Valid() {
			httputil.BadRequest(c, "invalid status filter")
			return
		}
		filters.Status = status
	}
	if d := c.Query("date"); d != "" {
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			httputil.BadRequest(c, "invalid date filter (use YYYY-MM-DD)")
			return
		}
		filters.Date = &date
	}
	if id := c.Query("practitioner_id"); id != "" {
		practitionerID, err := uuid.Parse(id)
		if err != nil {
			httputil.BadRequest(c, "invalid practitioner ID")
			return
		}
		filters.PractitionerID = practitionerID
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), middleware.GetActor(c), filters)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, appointments)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid appointment ID")
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	apt, err := h.service.UpdateAppointment(c.Request.Context(), id, middleware.GetActor(c), &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, apt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid appointment ID")
		return
	}

	// Body is optional; cancelling without a reason is allowed.
	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelAppointment(c.Request.Context(), id, middleware.GetActor(c), req.Reason)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, result)
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	practitionerID, err := uuid.Parse(c.Query("practitioner_id"))
	if err != nil {
		httputil.BadRequest(c, "invalid practitioner ID")
		return
	}
	date := c.Query("date")
	if date == "" {
		httputil.BadRequest(c, "date is required")
		return
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), practitionerID, date)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, gin.H{"date": date, "practitioner_id": practitionerID, "slots": slots})
}
