// Package handler contains the HTTP layer: request binding, authentication
// context plumbing and translation of service errors to status codes.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// currentUserID extracts the authenticated user's ID stored in the context
// by the JWT middleware.  The "sub" claim arrives as float64 from JSON
// decoding, but string is also tolerated.
func currentUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), true
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, true
		}
	case uint64:
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// serviceError maps service and repository sentinels to HTTP responses.
// Anything unrecognized becomes a 500 with a generic body; the cause is
// left to the server log.
func serviceError(c echo.Context, err error) error {
	switch err {
	case service.ErrInvalidInterval, service.ErrDurationExceeded,
		service.ErrTooFarInAdvance, service.ErrInvalidAmount,
		service.ErrNoOutstandingFine, service.ErrInvalidCode,
		service.ErrCodeExpired:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case service.ErrSeatUnavailable, service.ErrTooManyActiveReservations,
		service.ErrInvalidState, repository.ErrConflict,
		repository.ErrSeatExists, repository.ErrRollNumberExists:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case service.ErrStudentNotFound, service.ErrSeatNotFound,
		service.ErrReservationNotFound, service.ErrPaymentNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case service.ErrStudentRestricted:
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if pe, ok := err.(*model.PolicyError); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": pe.Error(), "field": pe.Field})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
