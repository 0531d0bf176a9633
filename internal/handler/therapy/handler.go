package therapy

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/middleware"
	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/service/therapy"
	"github.com/ayursutra/booking-api/pkg/httputil"
)

type Handler struct {
	service *therapy.Service
}

func NewHandler(service *therapy.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog routes. Reads are open to every
// authenticated user; mutations go through adminOnly.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	therapies := r.Group("/therapies")
	{
		therapies.GET("", h.ListTherapies)
		therapies.GET("/:id", h.GetTherapy)
		therapies.POST("", adminOnly, h.CreateTherapy)
		therapies.PUT("/:id", adminOnly, h.UpdateTherapy)
		therapies.DELETE("/:id", adminOnly, h.DeactivateTherapy)
	}
}

func (h *Handler) CreateTherapy(c *gin.Context) {
	var req model.CreateTherapyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	th, err := h.service.CreateTherapy(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.Created(c, "therapy created", th)
}

func (h *Handler) GetTherapy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid therapy ID")
		return
	}

	th, err := h.service.GetTherapy(c.Request.Context(), id)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, th)
}

// ListTherapies returns active entries by default; admins may pass ?all=true.
func (h *Handler) ListTherapies(c *gin.Context) {
	activeOnly := true
	if c.Query("all") == "true" && middleware.GetActor(c).IsAdmin() {
		activeOnly = false
	}

	therapies, err := h.service.ListTherapies(c.Request.Context(), activeOnly)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, therapies)
}

func (h *Handler) UpdateTherapy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid therapy ID")
		return
	}

	var req model.UpdateTherapyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	th, err := h.service.UpdateTherapy(c.Request.Context(), id, middleware.GetActor(c), &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, th)
}

func (h *Handler) DeactivateTherapy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid therapy ID")
		return
	}

	if err := h.service.DeactivateTherapy(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, gin.H{"deactivated": true})
}
