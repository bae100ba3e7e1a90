package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// PaymentHandler exposes fine settlement: students open payment sessions,
// and the external provider reports outcomes through the webhook.
type PaymentHandler struct {
	Svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Svc: svc}
}

type initiatePaymentReq struct {
	AmountPaise int64 `json:"amount_paise"`
}

// Initiate opens a pending payment session for part or all of the
// student's outstanding fine and returns the session the client hands to
// the provider.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req initiatePaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	payment, err := h.Svc.Initiate(c.Request().Context(), uid, req.AmountPaise)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, payment)
}

type webhookReq struct {
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref"`
}

// Webhook receives the provider's callback.  Malformed payloads get a 400
// so the provider retries with a fixed request; unknown sessions are
// acknowledged with a 200 no-op so stale retries eventually stop.
// Completed outcomes settle the fine exactly once regardless of replays.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var req webhookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.SessionID == "" || (req.Status != "completed" && req.Status != "failed") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id and status (completed|failed) required"})
	}

	err := h.Svc.ApplyOutcome(c.Request().Context(), req.SessionID, req.Status, req.ProviderRef)
	if err == service.ErrPaymentNotFound {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "processed"})
}
