package httperr

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// TransitionHTTPError carries the timing facts a client needs to render
// a precise rejection ("appointment starts at 16:00, it is now 14:30").
type TransitionHTTPError struct {
	Code             string    `json:"error_code"`
	Message          string    `json:"message"`
	ReasonCode       string    `json:"reason_code"`
	AppointmentStart time.Time `json:"appointment_start"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Transition(
	c *gin.Context,
	reasonCode string,
	message string,
	appointmentStart time.Time,
	evaluatedAt time.Time,
) {
	c.JSON(http.StatusUnprocessableEntity, TransitionHTTPError{
		Code:             "invalid_transition",
		Message:          message,
		ReasonCode:       reasonCode,
		AppointmentStart: appointmentStart,
		EvaluatedAt:      evaluatedAt,
	})
}
