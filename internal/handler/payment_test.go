package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

type mockPaymentService struct {
	initiateFn func(ctx context.Context, userID uint64, amountPaise int64) (model.Payment, error)
	outcomeFn  func(ctx context.Context, sessionID, status, providerRef string) error
}

func (m *mockPaymentService) Initiate(ctx context.Context, userID uint64, amountPaise int64) (model.Payment, error) {
	return m.initiateFn(ctx, userID, amountPaise)
}
func (m *mockPaymentService) ApplyOutcome(ctx context.Context, sessionID, status, providerRef string) error {
	return m.outcomeFn(ctx, sessionID, status, providerRef)
}

func TestInitiatePaymentSuccess(t *testing.T) {
	svc := &mockPaymentService{
		initiateFn: func(ctx context.Context, userID uint64, amountPaise int64) (model.Payment, error) {
			assert.EqualValues(t, 7, userID)
			assert.EqualValues(t, 5000, amountPaise)
			return model.Payment{ID: 1, StudentID: 2, AmountPaise: amountPaise,
				Status: model.PaymentPending, SessionID: "ab2f2c1e-0000-0000-0000-000000000000"}, nil
		},
	}
	h := NewPaymentHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/payments", `{"amount_paise":5000}`)

	require.NoError(t, h.Initiate(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestInitiatePaymentNoFine(t *testing.T) {
	svc := &mockPaymentService{
		initiateFn: func(ctx context.Context, userID uint64, amountPaise int64) (model.Payment, error) {
			return model.Payment{}, service.ErrNoOutstandingFine
		},
	}
	h := NewPaymentHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/payments", `{"amount_paise":5000}`)

	require.NoError(t, h.Initiate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentService{})

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/payments/webhook",
		`{"session_id":"","status":"maybe"}`)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookUnknownSessionIsAcknowledged(t *testing.T) {
	svc := &mockPaymentService{
		outcomeFn: func(ctx context.Context, sessionID, status, providerRef string) error {
			return service.ErrPaymentNotFound
		},
	}
	h := NewPaymentHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/payments/webhook",
		`{"session_id":"ab2f2c1e-0000-0000-0000-000000000000","status":"completed"}`)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestWebhookCompletedOutcome(t *testing.T) {
	var got struct{ session, status, ref string }
	svc := &mockPaymentService{
		outcomeFn: func(ctx context.Context, sessionID, status, providerRef string) error {
			got.session, got.status, got.ref = sessionID, status, providerRef
			return nil
		},
	}
	h := NewPaymentHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/payments/webhook",
		`{"session_id":"ab2f2c1e-0000-0000-0000-000000000000","status":"COMPLETED","provider_ref":"pay_123"}`)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", got.status, "status should be normalized to lower case")
	assert.Equal(t, "pay_123", got.ref)
}
