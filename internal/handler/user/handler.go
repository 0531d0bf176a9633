package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/internal/service/user"
	"github.com/ayursutra/booking-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the account routes. Account creation is provisioning,
// so it sits behind adminOnly; tokens come from the identity provider.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	users := r.Group("/users")
	{
		users.POST("", adminOnly, h.CreateUser)
		users.GET("/:id", h.GetUser)
	}
	r.GET("/practitioners", h.ListPractitioners)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.Created(c, "account created", u)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, "invalid user ID")
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.OK(c, u)
}

func (h *Handler) ListPractitioners(c *gin.Context) {
	practitioners, err := h.service.ListPractitioners(c.Request.Context())
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, practitioners)
}
