package httpapi

import (
	"errors"
	"net/http"

	"coffee-shop/internal/drinks"
	"coffee-shop/pkg/logger"

	"github.com/gin-gonic/gin"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "internal server error",
	http.StatusServiceUnavailable:  "service unavailable",
}

func statusMessage(status int) string {
	if m, ok := statusMessages[status]; ok {
		return m
	}
	return http.StatusText(status)
}

// abortWithStatus writes the standard failure envelope.
func abortWithStatus(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   status,
		"message": statusMessage(status),
	})
}

// statusFor maps service errors onto HTTP statuses. Anything unclassified
// is an internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, drinks.ErrValidation), errors.Is(err, drinks.ErrConflict):
		return http.StatusUnprocessableEntity
	case errors.Is(err, drinks.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail reports err to the client without leaking its text.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		logger.FromGin(c).Debug("request rejected", "status", status, "err", err)
	}
	abortWithStatus(c, status)
}
