package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

type stubPolicy struct{ settings model.LibrarySettings }

func (p stubPolicy) Get(context.Context) (model.LibrarySettings, error) { return p.settings, nil }
func (p stubPolicy) Update(_ context.Context, in model.LibrarySettings) (model.LibrarySettings, error) {
	return in, nil
}

// The fake stores mirror the handler-test idiom: function fields per
// method so each test overrides exactly the calls it expects.  A call
// into an unset field panics, which is the point.

type fakeReservationStore struct {
	createTxFn      func(ctx context.Context, tx *sql.Tx, studentID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error)
	getByIDFn       func(ctx context.Context, id uint64) (model.Reservation, error)
	getByIDTxFn     func(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error)
	countActiveTxFn func(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error)
	updateStatusFn  func(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error
	checkInTxFn     func(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error
	bindOTPTxFn     func(ctx context.Context, tx *sql.Tx, id uint64, code string, generatedAt time.Time) error
	expireFn        func(ctx context.Context, cutoff time.Time) (int64, error)
	listCurrentFn   func(ctx context.Context, studentID uint64, now time.Time) ([]model.Reservation, error)
	listPastFn      func(ctx context.Context, studentID uint64, now time.Time, page, perPage int) ([]model.Reservation, int, error)
}

func (f *fakeReservationStore) CreateTx(ctx context.Context, tx *sql.Tx, studentID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error) {
	return f.createTxFn(ctx, tx, studentID, seatID, start, end, notes)
}
func (f *fakeReservationStore) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeReservationStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	return f.getByIDTxFn(ctx, tx, id)
}
func (f *fakeReservationStore) CountActiveTx(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error) {
	return f.countActiveTxFn(ctx, tx, studentID, now)
}
func (f *fakeReservationStore) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	return f.updateStatusFn(ctx, tx, id, from, to)
}
func (f *fakeReservationStore) CheckInTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	return f.checkInTxFn(ctx, tx, id, at)
}
func (f *fakeReservationStore) BindOTPTx(ctx context.Context, tx *sql.Tx, id uint64, code string, generatedAt time.Time) error {
	return f.bindOTPTxFn(ctx, tx, id, code, generatedAt)
}
func (f *fakeReservationStore) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.expireFn(ctx, cutoff)
}
func (f *fakeReservationStore) ListCurrent(ctx context.Context, studentID uint64, now time.Time) ([]model.Reservation, error) {
	return f.listCurrentFn(ctx, studentID, now)
}
func (f *fakeReservationStore) ListPast(ctx context.Context, studentID uint64, now time.Time, page, perPage int) ([]model.Reservation, int, error) {
	return f.listPastFn(ctx, studentID, now, page, perPage)
}

type fakeSeatLocker struct {
	lockTxFn      func(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error)
	isAvailableFn func(ctx context.Context, tx *sql.Tx, seatID uint64, start, end time.Time) (bool, error)
}

func (f *fakeSeatLocker) LockTx(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error) {
	return f.lockTxFn(ctx, tx, seatID)
}
func (f *fakeSeatLocker) IsAvailableTx(ctx context.Context, tx *sql.Tx, seatID uint64, start, end time.Time) (bool, error) {
	return f.isAvailableFn(ctx, tx, seatID, start, end)
}

type fakeStudentStore struct {
	getByUserIDFn    func(ctx context.Context, userID uint64) (model.Student, error)
	getByIDFn        func(ctx context.Context, id uint64) (model.Student, error)
	getByIDTxFn      func(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error)
	updateLedgerFn   func(ctx context.Context, s model.Student) error
	updateLedgerTxFn func(ctx context.Context, tx *sql.Tx, s model.Student) error
	addFineFn        func(ctx context.Context, studentID uint64, amountPaise int64) error
}

func (f *fakeStudentStore) GetByUserID(ctx context.Context, userID uint64) (model.Student, error) {
	return f.getByUserIDFn(ctx, userID)
}
func (f *fakeStudentStore) GetByID(ctx context.Context, id uint64) (model.Student, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeStudentStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
	return f.getByIDTxFn(ctx, tx, id)
}
func (f *fakeStudentStore) UpdateLedger(ctx context.Context, s model.Student) error {
	return f.updateLedgerFn(ctx, s)
}
func (f *fakeStudentStore) UpdateLedgerTx(ctx context.Context, tx *sql.Tx, s model.Student) error {
	return f.updateLedgerTxFn(ctx, tx, s)
}
func (f *fakeStudentStore) AddFine(ctx context.Context, studentID uint64, amountPaise int64) error {
	return f.addFineFn(ctx, studentID, amountPaise)
}

type fakeUserDirectory struct {
	getByIDFn func(ctx context.Context, id uint64) (model.User, error)
}

func (f *fakeUserDirectory) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return f.getByIDFn(ctx, id)
}

type fakeOTPStore struct {
	createTxFn func(ctx context.Context, tx *sql.Tx, studentID, reservationID uint64, code string, generatedAt time.Time) error
}

func (f *fakeOTPStore) CreateTx(ctx context.Context, tx *sql.Tx, studentID, reservationID uint64, code string, generatedAt time.Time) error {
	return f.createTxFn(ctx, tx, studentID, reservationID, code, generatedAt)
}

// engineFixture wires a ReservationService over fake stores.  The *sql.DB
// comes from sqlmock so that BeginTx/Commit/Rollback run against a real
// transaction object without a database; the stores themselves never
// touch it.
type engineFixture struct {
	svc          ReservationService
	mock         sqlmock.Sqlmock
	reservations *fakeReservationStore
	seats        *fakeSeatLocker
	students     *fakeStudentStore
	users        *fakeUserDirectory
	otps         *fakeOTPStore
	events       chan queue.NotificationEvent
	now          time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &engineFixture{
		mock:         mock,
		reservations: &fakeReservationStore{},
		seats:        &fakeSeatLocker{},
		students:     &fakeStudentStore{},
		users:        &fakeUserDirectory{},
		otps:         &fakeOTPStore{},
		events:       make(chan queue.NotificationEvent, 1),
		now:          time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.students.getByUserIDFn = func(ctx context.Context, userID uint64) (model.Student, error) {
		return model.Student{ID: 11, UserID: userID}, nil
	}
	f.users.getByIDFn = func(ctx context.Context, id uint64) (model.User, error) {
		return model.User{ID: id, Email: "student@example.com"}, nil
	}
	publish := func(ctx context.Context, ev queue.NotificationEvent) error {
		f.events <- ev
		return nil
	}
	clock := fixedClock{f.now}
	f.svc = NewReservationService(db, f.reservations, f.seats, f.students, f.users, f.otps,
		stubPolicy{model.DefaultSettings()}, NewLedgerService(f.students, clock), publish, clock)
	return f
}

func (f *engineFixture) waitEvent(t *testing.T) queue.NotificationEvent {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification event")
		return queue.NotificationEvent{}
	}
}

func TestCreateRejectsInvalidWindow(t *testing.T) {
	f := newEngineFixture(t)
	start := f.now.Add(time.Hour)

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"empty window", start, start},
		{"end before start", start, start.Add(-time.Minute)},
		{"start in the past", f.now.Add(-time.Minute), f.now.Add(time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), 7, 3, tc.start, tc.end, "")
			assert.ErrorIs(t, err, ErrInvalidInterval)
		})
	}
	assert.NoError(t, f.mock.ExpectationsWereMet(), "no transaction may be opened")
}

func TestCreateRejectsExcessiveDuration(t *testing.T) {
	f := newEngineFixture(t)
	start := f.now.Add(time.Hour)
	end := start.Add(4 * time.Hour) // default policy allows 180 minutes

	_, err := f.svc.Create(context.Background(), 7, 3, start, end, "")
	assert.ErrorIs(t, err, ErrDurationExceeded)
}

func TestCreateRejectsDistantStart(t *testing.T) {
	f := newEngineFixture(t)
	start := f.now.Add(25 * time.Hour) // default horizon is one day out

	_, err := f.svc.Create(context.Background(), 7, 3, start, start.Add(time.Hour), "")
	assert.ErrorIs(t, err, ErrTooFarInAdvance)
}

func TestCreateRejectsRestrictedStudent(t *testing.T) {
	f := newEngineFixture(t)
	penalised := f.now.Add(-24 * time.Hour)
	f.students.getByUserIDFn = func(ctx context.Context, userID uint64) (model.Student, error) {
		return model.Student{ID: 11, UserID: userID, NoShowCount: 3, IsRestricted: true, LastPenaltyAt: &penalised}, nil
	}

	start := f.now.Add(time.Hour)
	_, err := f.svc.Create(context.Background(), 7, 3, start, start.Add(time.Hour), "")
	assert.ErrorIs(t, err, ErrStudentRestricted)
	assert.NoError(t, f.mock.ExpectationsWereMet(), "restricted students never reach the transaction")
}

func TestCreateLiftsLapsedRestriction(t *testing.T) {
	f := newEngineFixture(t)
	penalised := f.now.Add(-8 * 24 * time.Hour) // beyond the 7 day penalty window
	f.students.getByUserIDFn = func(ctx context.Context, userID uint64) (model.Student, error) {
		return model.Student{ID: 11, UserID: userID, NoShowCount: 3, IsRestricted: true, LastPenaltyAt: &penalised}, nil
	}
	var cleared *model.Student
	f.students.updateLedgerFn = func(ctx context.Context, s model.Student) error {
		cleared = &s
		return nil
	}

	start := f.now.Add(time.Hour)
	end := start.Add(time.Hour)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.seats.lockTxFn = func(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error) {
		return model.Seat{ID: seatID, Number: "A.01.03", IsActive: true}, nil
	}
	f.seats.isAvailableFn = func(ctx context.Context, tx *sql.Tx, seatID uint64, s, e time.Time) (bool, error) {
		return true, nil
	}
	f.reservations.countActiveTxFn = func(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error) {
		return 0, nil
	}
	f.reservations.createTxFn = func(ctx context.Context, tx *sql.Tx, studentID, seatID uint64, s, e time.Time, notes string) (model.Reservation, error) {
		return model.Reservation{ID: 42, StudentID: studentID, SeatID: seatID, SeatNumber: "A.01.03",
			StartTime: s, EndTime: e, Status: model.StatusReserved}, nil
	}

	res, err := f.svc.Create(context.Background(), 7, 3, start, end, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReserved, res.Status)
	if assert.NotNil(t, cleared, "lapsed restriction must be persisted as cleared") {
		assert.False(t, cleared.IsRestricted)
		assert.Equal(t, 0, cleared.NoShowCount)
	}
	f.waitEvent(t)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooksSeatAndNotifies(t *testing.T) {
	f := newEngineFixture(t)
	start := f.now.Add(2 * time.Hour)
	end := start.Add(90 * time.Minute)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.seats.lockTxFn = func(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error) {
		assert.EqualValues(t, 3, seatID)
		return model.Seat{ID: seatID, Number: "A.01.03", IsActive: true}, nil
	}
	f.seats.isAvailableFn = func(ctx context.Context, tx *sql.Tx, seatID uint64, s, e time.Time) (bool, error) {
		return true, nil
	}
	f.reservations.countActiveTxFn = func(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error) {
		return 0, nil
	}
	f.reservations.createTxFn = func(ctx context.Context, tx *sql.Tx, studentID, seatID uint64, s, e time.Time, notes string) (model.Reservation, error) {
		assert.EqualValues(t, 11, studentID)
		assert.True(t, s.Equal(start) && e.Equal(end))
		assert.Equal(t, "window seat please", notes)
		return model.Reservation{ID: 42, StudentID: studentID, SeatID: seatID, SeatNumber: "A.01.03",
			StartTime: s, EndTime: e, Status: model.StatusReserved}, nil
	}

	res, err := f.svc.Create(context.Background(), 7, 3, start, end, "window seat please")
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.ID)

	ev := f.waitEvent(t)
	assert.Equal(t, queue.KindReservationConfirmed, ev.Kind)
	assert.Equal(t, "student@example.com", ev.Email)
	assert.Equal(t, "A.01.03", ev.SeatNumber)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateSeatTakenRollsBack(t *testing.T) {
	f := newEngineFixture(t)
	start := f.now.Add(time.Hour)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	f.seats.lockTxFn = func(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error) {
		return model.Seat{ID: seatID, IsActive: true}, nil
	}
	f.seats.isAvailableFn = func(ctx context.Context, tx *sql.Tx, seatID uint64, s, e time.Time) (bool, error) {
		return false, nil
	}

	_, err := f.svc.Create(context.Background(), 7, 3, start, start.Add(time.Hour), "")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateEnforcesActiveCap(t *testing.T) {
	f := newEngineFixture(t)
	start := f.now.Add(time.Hour)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	f.seats.lockTxFn = func(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error) {
		return model.Seat{ID: seatID, IsActive: true}, nil
	}
	f.seats.isAvailableFn = func(ctx context.Context, tx *sql.Tx, seatID uint64, s, e time.Time) (bool, error) {
		return true, nil
	}
	f.reservations.countActiveTxFn = func(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error) {
		return 1, nil // default policy caps at one active booking
	}

	_, err := f.svc.Create(context.Background(), 7, 3, start, start.Add(time.Hour), "")
	assert.ErrorIs(t, err, ErrTooManyActiveReservations)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func checkInFixture(f *engineFixture, code string, generatedAt time.Time) {
	f.reservations.getByIDTxFn = func(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
		return model.Reservation{ID: id, StudentID: 11, SeatID: 3, Status: model.StatusReserved,
			StartTime: f.now.Add(-5 * time.Minute), EndTime: f.now.Add(55 * time.Minute),
			OTPCode: &code, OTPGeneratedAt: &generatedAt}, nil
	}
}

func TestCheckInRequiresExactCode(t *testing.T) {
	f := newEngineFixture(t)
	checkInFixture(f, "042913", f.now.Add(-time.Minute))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	// "42913" is not "042913"; codes never match after numeric coercion.
	_, err := f.svc.CheckIn(context.Background(), 7, 42, "42913")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckInRejectsExpiredCode(t *testing.T) {
	f := newEngineFixture(t)
	checkInFixture(f, "042913", f.now.Add(-model.OTPValidity-time.Second))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.CheckIn(context.Background(), 7, 42, "042913")
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCheckInRecordsArrival(t *testing.T) {
	f := newEngineFixture(t)
	checkInFixture(f, "042913", f.now.Add(-time.Minute))
	var checkedInAt time.Time
	f.reservations.checkInTxFn = func(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
		checkedInAt = at
		return nil
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.CheckIn(context.Background(), 7, 42, "042913")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedIn, res.Status)
	assert.True(t, checkedInAt.Equal(f.now))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCancelRequiresReservedState(t *testing.T) {
	f := newEngineFixture(t)
	f.reservations.getByIDTxFn = func(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
		return model.Reservation{ID: id, StudentID: 11, Status: model.StatusCheckedIn}, nil
	}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Cancel(context.Background(), 7, 42)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMarkNoShowRecordsPenalty(t *testing.T) {
	f := newEngineFixture(t)
	f.reservations.getByIDTxFn = func(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
		return model.Reservation{ID: id, StudentID: 11, Status: model.StatusReserved}, nil
	}
	f.reservations.updateStatusFn = func(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
		assert.Equal(t, model.StatusReserved, from)
		assert.Equal(t, model.StatusNoShow, to)
		return nil
	}
	f.students.getByIDTxFn = func(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
		return model.Student{ID: id, UserID: 7, NoShowCount: 2}, nil
	}
	var ledgered *model.Student
	f.students.updateLedgerTxFn = func(ctx context.Context, tx *sql.Tx, s model.Student) error {
		ledgered = &s
		return nil
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.MarkNoShow(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoShow, res.Status)
	if assert.NotNil(t, ledgered, "the ledger update must land in the same transaction") {
		assert.Equal(t, 3, ledgered.NoShowCount)
		assert.True(t, ledgered.IsRestricted, "the third no-show trips the restriction")
	}
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestExpireOverdueSweepsFromCurrentTime(t *testing.T) {
	f := newEngineFixture(t)
	calls := 0
	f.reservations.expireFn = func(ctx context.Context, cutoff time.Time) (int64, error) {
		calls++
		// The sweep cutoff is plain "now": a booking whose start has
		// passed is released even inside the advertised buffer.
		assert.True(t, cutoff.Equal(f.now), "cutoff must be the current time, got %v", cutoff)
		if calls > 1 {
			return 0, nil
		}
		return 4, nil
	}

	released, err := f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, released)

	// Running again over the same instant matches nothing.
	released, err = f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, released)
}
