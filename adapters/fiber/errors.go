package fiber

import (
	"errors"
	"net/http"

	"github.com/7nohe/gatekeep"
	"github.com/gofiber/fiber/v3"
)

// ErrorHandler is a fiber.Config.ErrorHandler that maps auth errors
// escaping a handler to sensible statuses instead of a blanket 500.
func ErrorHandler(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	return c.Status(status).JSON(map[string]string{
		"error": err.Error(),
	})
}

// mapErrorToStatus maps domain error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch {
	case errors.Is(err, gatekeep.ErrInvalidCredentials),
		errors.Is(err, gatekeep.ErrInvalidToken),
		errors.Is(err, gatekeep.ErrInvalidSession),
		errors.Is(err, gatekeep.ErrSessionExpired):
		return http.StatusUnauthorized

	case errors.Is(err, gatekeep.ErrUserNotFound),
		errors.Is(err, gatekeep.ErrSessionNotFound),
		errors.Is(err, gatekeep.ErrTokenNotFound):
		return http.StatusNotFound

	case errors.Is(err, gatekeep.ErrUserExists):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
