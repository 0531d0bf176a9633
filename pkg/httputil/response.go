package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayursutra/booking-api/pkg/apperror"
)

// Response is the envelope for all API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is the wire form of a failed request.
type Error struct {
	Code      int                        `json:"code"`
	Message   string                     `json:"message"`
	Conflicts []apperror.ConflictDetail  `json:"conflicts,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Fail maps a service error onto the envelope. Domain errors carry their own
// status; anything else is an opaque 500.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		c.JSON(appErr.StatusCode(), Response{
			Success: false,
			Error: &Error{
				Code:      int(appErr.Code),
				Message:   appErr.Message,
				Conflicts: appErr.Conflicts,
			},
		})
		return
	}

	_ = c.Error(err) // logged by the error middleware
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &Error{Code: int(apperror.CodeInternal), Message: "internal server error"},
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   &Error{Code: int(apperror.CodeValidation), Message: message},
	})
}
