package http

import (
	"errors"
	"net/http"

	"shop-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the body of every response, successful or not.
type Envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{
		Status:  status,
		Data:    data,
		Message: message,
		Success: status < http.StatusBadRequest,
	})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Status: status, Message: message})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrInvalidTransition, http.StatusBadRequest},
	{services.ErrPaymentVerification, http.StatusBadRequest},
	{services.ErrUnauthorized, http.StatusUnauthorized},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrConflict, http.StatusConflict},
	{services.ErrOrderNotFound, http.StatusNotFound},
	{services.ErrProductNotFound, http.StatusNotFound},
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrAddressNotFound, http.StatusNotFound},
	{services.ErrPaymentGateway, http.StatusInternalServerError},
	{services.ErrUploadFailed, http.StatusInternalServerError},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail writes err as an envelope. Unclassified errors are logged and hidden
// behind a generic message.
func fail(c *gin.Context, log *zap.Logger, err error) {
	failWith(c, log, err, nil)
}

func failWith(c *gin.Context, log *zap.Logger, err error, data any) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed",
			zap.String("path", c.FullPath()), zap.String("request_id", c.GetString(ctxRequestID)), zap.Error(err))
		if !errors.Is(err, services.ErrPaymentGateway) && !errors.Is(err, services.ErrUploadFailed) {
			msg = "internal server error"
		}
	default:
		log.Warn("request rejected",
			zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	respond(c, status, data, msg)
}
