package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ayursutra/booking-api/internal/model"
	"github.com/ayursutra/booking-api/pkg/httputil"
	"github.com/ayursutra/booking-api/pkg/security"
)

const actorKey = "actor"

type AuthMiddleware struct {
	tokens *security.TokenManager
}

func NewAuthMiddleware(tokens *security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and attaches the actor to the
// request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.tokens.Verify(parts[1])
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(actorKey, model.Actor{ID: claims.UserID, Role: model.Role(claims.Role)})
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Admins always pass.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Message: "insufficient permissions"},
		})
	}
}

// GetActor returns the actor set by Authenticate. Routes behind the middleware
// always have one; elsewhere the zero actor comes back.
func GetActor(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Message: msg},
	})
}
