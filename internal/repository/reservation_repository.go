package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Rows are
// never deleted; terminal reservations stay behind as history.  Status
// transitions go through guarded UPDATE statements whose WHERE clause pins
// the expected current status, so a transition that lost a race affects
// zero rows and surfaces as ErrConflict.  All timestamp fields are stored
// in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for services that open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `r.id, r.student_id, r.seat_id, s.number, r.start_time, r.end_time,
	r.status, r.check_in_time, r.otp_code, r.otp_generated_at, r.notes, r.created_at, r.updated_at`

func scanReservation(scan func(dest ...any) error) (model.Reservation, error) {
	var (
		res      model.Reservation
		checkIn  sql.NullTime
		otpCode  sql.NullString
		otpGenAt sql.NullTime
		notes    sql.NullString
	)
	err := scan(&res.ID, &res.StudentID, &res.SeatID, &res.SeatNumber, &res.StartTime, &res.EndTime,
		&res.Status, &checkIn, &otpCode, &otpGenAt, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if checkIn.Valid {
		t := checkIn.Time
		res.CheckInTime = &t
	}
	if otpCode.Valid {
		c := otpCode.String
		res.OTPCode = &c
	}
	if otpGenAt.Valid {
		t := otpGenAt.Time
		res.OTPGeneratedAt = &t
	}
	if notes.Valid {
		res.Notes = notes.String
	}
	return res, nil
}

// CreateTx inserts a new reservation in `reserved` state within the scope
// of an existing transaction and populates the generated ID and timestamps
// on the returned value.  The caller must commit or rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, studentID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (student_id, seat_id, start_time, end_time, status, notes)
		 VALUES (?,?,?,?,?,?)`,
		studentID, seatID, start.UTC(), end.UTC(), model.StatusReserved, notes)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	// Query back the full row to populate timestamps and defaults.
	row := tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r JOIN seats s ON s.id = r.seat_id WHERE r.id = ?`, id)
	return scanReservation(row.Scan)
}

// GetByID loads one reservation together with its seat number.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r JOIN seats s ON s.id = r.seat_id WHERE r.id = ?`, id)
	return scanReservation(row.Scan)
}

// GetByIDTx is GetByID inside a transaction, locking the reservation row so
// state-machine checks and the subsequent guarded update cannot interleave
// with another transition.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r JOIN seats s ON s.id = r.seat_id
		 WHERE r.id = ? FOR UPDATE`, id)
	return scanReservation(row.Scan)
}

// CountActiveTx counts a student's reservations that still occupy a seat:
// status reserved or checked_in with end_time in the future.  Evaluated
// inside the reservation-commit transaction so the per-student cap is
// re-validated at insert time.
func (r *ReservationRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE student_id = ? AND status IN ('reserved','checked_in') AND end_time > ?`,
		studentID, now.UTC()).Scan(&n)
	return n, err
}

// UpdateStatusTx performs a guarded one-way transition from `from` to `to`.
// When the row is no longer in `from` the update affects nothing and
// ErrConflict is returned, keeping terminal states terminal.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status=? WHERE id=? AND status=?`, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// CheckInTx transitions reserved -> checked_in and stamps check_in_time in
// one guarded statement.
func (r *ReservationRepo) CheckInTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status=?, check_in_time=? WHERE id=? AND status=?`,
		model.StatusCheckedIn, at.UTC(), id, model.StatusReserved)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// BindOTPTx writes the currently valid code and its generation time onto
// the reservation row.  Issuing a new code replaces the previous binding.
func (r *ReservationRepo) BindOTPTx(ctx context.Context, tx *sql.Tx, id uint64, code string, generatedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET otp_code=?, otp_generated_at=? WHERE id=?`,
		code, generatedAt.UTC(), id)
	return err
}

// ExpireOverdue cancels every reservation still in `reserved` whose
// start_time is before the given cutoff.  One bounded UPDATE makes the
// sweep idempotent: a second run over the same cutoff matches no rows.
// It returns the number of reservations cancelled.
func (r *ReservationRepo) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status=? WHERE status=? AND start_time < ?`,
		model.StatusCancelled, model.StatusReserved, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListCurrent returns a student's active reservations (reserved or checked
// in, window not yet over) ordered by start time.
func (r *ReservationRepo) ListCurrent(ctx context.Context, studentID uint64, now time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
	           FROM reservations r JOIN seats s ON s.id = r.seat_id
	           WHERE r.student_id = ? AND r.status IN ('reserved','checked_in') AND r.end_time > ?
	           ORDER BY r.start_time`
	return r.list(ctx, q, studentID, now.UTC())
}

// ListPast returns a page of a student's historical reservations: terminal
// status or a window that already ended, newest first.  It also returns
// the total number of matching rows for pagination.
func (r *ReservationRepo) ListPast(ctx context.Context, studentID uint64, now time.Time, page, perPage int) ([]model.Reservation, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	const where = `WHERE r.student_id = ?
	                 AND (r.status IN ('cancelled','no_show','completed') OR r.end_time <= ?)`
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations r `+where, studentID, now.UTC()).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + reservationColumns + `
	      FROM reservations r JOIN seats s ON s.id = r.seat_id ` + where + `
	      ORDER BY r.start_time DESC
	      LIMIT ? OFFSET ?`
	items, err := r.list(ctx, q, studentID, now.UTC(), perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	return items, rows.Err()
}
