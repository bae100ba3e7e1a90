package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// mockReservationService implements service.ReservationService with
// overridable function fields so each test controls exactly one behaviour.
type mockReservationService struct {
	createFn    func(ctx context.Context, userID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error)
	issueFn     func(ctx context.Context, userID, reservationID uint64) (service.IssuedCode, error)
	checkInFn   func(ctx context.Context, userID, reservationID uint64, code string) (model.Reservation, error)
	cancelFn    func(ctx context.Context, userID, reservationID uint64) (model.Reservation, error)
	getFn       func(ctx context.Context, userID, reservationID uint64) (model.Reservation, error)
	dashboardFn func(ctx context.Context, userID uint64, pastPage, pastPerPage int) (service.Dashboard, error)
	noShowFn    func(ctx context.Context, reservationID uint64) (model.Reservation, error)
	completeFn  func(ctx context.Context, reservationID uint64) (model.Reservation, error)
}

func (m *mockReservationService) Create(ctx context.Context, userID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error) {
	return m.createFn(ctx, userID, seatID, start, end, notes)
}
func (m *mockReservationService) IssueCheckInCode(ctx context.Context, userID, reservationID uint64) (service.IssuedCode, error) {
	return m.issueFn(ctx, userID, reservationID)
}
func (m *mockReservationService) CheckIn(ctx context.Context, userID, reservationID uint64, code string) (model.Reservation, error) {
	return m.checkInFn(ctx, userID, reservationID, code)
}
func (m *mockReservationService) Cancel(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
	return m.cancelFn(ctx, userID, reservationID)
}
func (m *mockReservationService) Get(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
	return m.getFn(ctx, userID, reservationID)
}
func (m *mockReservationService) Dashboard(ctx context.Context, userID uint64, pastPage, pastPerPage int) (service.Dashboard, error) {
	return m.dashboardFn(ctx, userID, pastPage, pastPerPage)
}
func (m *mockReservationService) MarkNoShow(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	return m.noShowFn(ctx, reservationID)
}
func (m *mockReservationService) Complete(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	return m.completeFn(ctx, reservationID)
}
func (m *mockReservationService) ExpireOverdue(ctx context.Context) (int64, error) {
	return 0, nil
}

// newEchoCtx builds an authenticated request context the way JWTAuth does:
// the "sub" claim lands in the context as float64.
func newEchoCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(7))
	c.Set("role", model.RoleStudent)
	return c, rec
}

func TestCreateReservationSuccess(t *testing.T) {
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	svc := &mockReservationService{
		createFn: func(ctx context.Context, userID, seatID uint64, s, e time.Time, notes string) (model.Reservation, error) {
			assert.EqualValues(t, 7, userID)
			assert.EqualValues(t, 3, seatID)
			assert.True(t, s.Equal(start))
			assert.True(t, e.Equal(start.Add(2*time.Hour)), "end must be start plus duration")
			return model.Reservation{ID: 42, StudentID: 1, SeatID: seatID,
				SeatNumber: "A.01.03", StartTime: s, EndTime: e, Status: model.StatusReserved}, nil
		},
	}
	h := NewReservationHandler(svc)

	body := `{"start_time":"` + start.Format(time.RFC3339) + `","duration":120}`
	c, rec := newEchoCtx(t, http.MethodPost, "/v1/seats/3/reservations", body)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"reserved"`)
	assert.Contains(t, rec.Body.String(), `"seat_number":"A.01.03"`)
}

func TestCreateReservationSeatConflict(t *testing.T) {
	svc := &mockReservationService{
		createFn: func(ctx context.Context, userID, seatID uint64, s, e time.Time, notes string) (model.Reservation, error) {
			return model.Reservation{}, service.ErrSeatUnavailable
		},
	}
	h := NewReservationHandler(svc)

	start := time.Now().UTC().Add(time.Hour)
	body := `{"start_time":"` + start.Format(time.RFC3339) + `","duration":60}`
	c, rec := newEchoCtx(t, http.MethodPost, "/v1/seats/3/reservations", body)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateReservationRestrictedStudent(t *testing.T) {
	svc := &mockReservationService{
		createFn: func(ctx context.Context, userID, seatID uint64, s, e time.Time, notes string) (model.Reservation, error) {
			return model.Reservation{}, service.ErrStudentRestricted
		},
	}
	h := NewReservationHandler(svc)

	start := time.Now().UTC().Add(time.Hour)
	body := `{"start_time":"` + start.Format(time.RFC3339) + `","duration":60}`
	c, rec := newEchoCtx(t, http.MethodPost, "/v1/seats/3/reservations", body)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateReservationRejectsBadTimestamp(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{})

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/seats/3/reservations",
		`{"start_time":"tomorrow","duration":60}`)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReservationRejectsNonPositiveDuration(t *testing.T) {
	h := NewReservationHandler(&mockReservationService{})

	start := time.Now().UTC().Add(time.Hour)
	c, rec := newEchoCtx(t, http.MethodPost, "/v1/seats/3/reservations",
		`{"start_time":"`+start.Format(time.RFC3339)+`","duration":0}`)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInWrongCode(t *testing.T) {
	svc := &mockReservationService{
		checkInFn: func(ctx context.Context, userID, reservationID uint64, code string) (model.Reservation, error) {
			assert.Equal(t, "123456", code)
			return model.Reservation{}, service.ErrInvalidCode
		},
	}
	h := NewReservationHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/reservations/42/check-in", `{"code":"123456"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInExpiredCode(t *testing.T) {
	svc := &mockReservationService{
		checkInFn: func(ctx context.Context, userID, reservationID uint64, code string) (model.Reservation, error) {
			return model.Reservation{}, service.ErrCodeExpired
		},
	}
	h := NewReservationHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/reservations/42/check-in", `{"code":"000042"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAfterCheckInIsConflict(t *testing.T) {
	svc := &mockReservationService{
		cancelFn: func(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
			return model.Reservation{}, service.ErrInvalidState
		},
	}
	h := NewReservationHandler(svc)

	c, rec := newEchoCtx(t, http.MethodPost, "/v1/reservations/42/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetForeignReservationIsForbidden(t *testing.T) {
	svc := &mockReservationService{
		getFn: func(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
			return model.Reservation{}, repository.ErrForbidden
		},
	}
	h := NewReservationHandler(svc)

	c, rec := newEchoCtx(t, http.MethodGet, "/v1/reservations/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardPassesPage(t *testing.T) {
	svc := &mockReservationService{
		dashboardFn: func(ctx context.Context, userID uint64, pastPage, pastPerPage int) (service.Dashboard, error) {
			assert.Equal(t, 3, pastPage)
			return service.Dashboard{PastPage: pastPage, PastTotal: 25}, nil
		},
	}
	h := NewReservationHandler(svc)

	c, rec := newEchoCtx(t, http.MethodGet, "/v1/reservations?past_page=3", "")

	require.NoError(t, h.Dashboard(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"past_total":25`)
}
