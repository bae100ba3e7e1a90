package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// SeatHandler answers seat availability queries.
type SeatHandler struct {
	Svc service.SeatService
}

func NewSeatHandler(svc service.SeatService) *SeatHandler {
	return &SeatHandler{Svc: svc}
}

// ListAvailable returns every seat free for the window given by the
// ?start_time (RFC3339) and ?duration (minutes) query parameters.  The
// response is served through the Redis cache; availability is advisory
// and re-checked at booking time.
func (h *SeatHandler) ListAvailable(c echo.Context) error {
	start, end, ok := parseWindow(c.QueryParam("start_time"), c.QueryParam("duration"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time (RFC3339) and duration (minutes) required"})
	}
	seats, err := h.Svc.ListAvailable(c.Request().Context(), start, end)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats, "count": len(seats)})
}
