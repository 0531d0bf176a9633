package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/middleware"
	"github.com/ayursutra/booking-api/internal/service/notification"
	"github.com/ayursutra/booking-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:id/read", h.MarkRead)
	}
}

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	actor := middleware.GetActor(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.service.ListNotifications(c.Request.Context(), actor.ID, unreadOnly)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, notifications)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, middleware.GetActor(c).ID); err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, gin.H{"read": true})
}
