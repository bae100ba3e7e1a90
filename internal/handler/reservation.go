package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// ReservationHandler exposes the student-facing booking endpoints.
type ReservationHandler struct {
	Svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Svc: svc}
}

type createReservationReq struct {
	StartTime   string `json:"start_time"`
	DurationMin int    `json:"duration"`
	Notes       string `json:"notes"`
}

type checkInReq struct {
	Code string `json:"code"`
}

// parseWindow parses the RFC3339 start plus a duration in minutes, the
// shape shared by booking and availability requests.
func parseWindow(start, duration string) (time.Time, time.Time, bool) {
	s, err := time.Parse(time.RFC3339, strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(duration))
	if err != nil || minutes <= 0 {
		return time.Time{}, time.Time{}, false
	}
	s = s.UTC()
	return s, s.Add(time.Duration(minutes) * time.Minute), true
}

// Create books the seat given by the :id path parameter for the window
// described by start_time (RFC3339) and duration (minutes).
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seatID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	if req.DurationMin <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be positive minutes"})
	}
	start = start.UTC()
	end := start.Add(time.Duration(req.DurationMin) * time.Minute)

	res, err := h.Svc.Create(c.Request().Context(), uid, seatID, start, end, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get returns one of the student's reservations by id.
func (h *ReservationHandler) Get(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Dashboard returns the student's profile, current bookings and a page of
// history.  ?past_page selects the history page.
func (h *ReservationHandler) Dashboard(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := 1
	if v := c.QueryParam("past_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	dash, err := h.Svc.Dashboard(c.Request().Context(), uid, page, 10)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, dash)
}

// IssueCode generates and binds a fresh check-in code for the reservation.
func (h *ReservationHandler) IssueCode(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	issued, err := h.Svc.IssueCheckInCode(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, issued)
}

// CheckIn validates the presented code and marks the reservation as
// checked in.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req checkInReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}
	res, err := h.Svc.CheckIn(c.Request().Context(), uid, id, strings.TrimSpace(req.Code))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel releases a reserved booking.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Svc.Cancel(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
