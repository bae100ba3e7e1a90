package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// AdminHandler exposes the administrative endpoints: policy management,
// manual reservation transitions, seat provisioning and fine assessment.
// All routes are behind RequireRole(ADMIN).
type AdminHandler struct {
	Policy       service.PolicyService
	Reservations service.ReservationService
	Seats        service.SeatService
	Ledger       *service.LedgerService
}

func NewAdminHandler(policy service.PolicyService, reservations service.ReservationService, seats service.SeatService, ledger *service.LedgerService) *AdminHandler {
	return &AdminHandler{Policy: policy, Reservations: reservations, Seats: seats, Ledger: ledger}
}

// GetSettings returns the current booking policy.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	settings, err := h.Policy.Get(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings replaces the booking policy after bounds validation.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var in model.LibrarySettings
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	updated, err := h.Policy.Update(c.Request().Context(), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// MarkNoShow records that the student never claimed the reservation.  The
// transition and the ledger penalty commit together.
func (h *AdminHandler) MarkNoShow(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.MarkNoShow(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Complete closes out a checked-in reservation.
func (h *AdminHandler) Complete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.Complete(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type createSeatReq struct {
	Number      string `json:"number"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// CreateSeat provisions a single seat.
func (h *AdminHandler) CreateSeat(c echo.Context) error {
	var req createSeatReq
	if err := c.Bind(&req); err != nil || req.Number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number required"})
	}
	seat, err := h.Seats.Create(c.Request().Context(), req.Number, req.Location, req.Description)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, seat)
}

type setSeatActiveReq struct {
	IsActive *bool `json:"is_active"`
}

// SetSeatActive toggles whether a seat can be booked.  Existing
// reservations on a deactivated seat are left alone.
func (h *AdminHandler) SetSeatActive(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req setSeatActiveReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}
	seat, err := h.Seats.SetActive(c.Request().Context(), id, *req.IsActive)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

type assessFineReq struct {
	AmountPaise int64 `json:"amount_paise"`
}

// AssessFine raises a student's outstanding fine balance.
func (h *AdminHandler) AssessFine(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id"})
	}
	var req assessFineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Ledger.AssessFine(c.Request().Context(), id, req.AmountPaise); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "fine recorded"})
}
