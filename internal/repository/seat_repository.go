package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// SeatRepo provides access to the `seats` table and the overlap-based
// availability queries.  A seat is available for [start, end) when no
// reservation in status reserved/checked_in satisfies the half-open
// overlap test: existing.start_time < end AND existing.end_time > start.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so services can open transactions that
// span seats and reservations.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, number, location, description, is_active, created_at, updated_at`

func scanSeat(scan func(dest ...any) error) (model.Seat, error) {
	var s model.Seat
	err := scan(&s.ID, &s.Number, &s.Location, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a single seat.  Seat numbers are unique; duplicates map to
// ErrSeatExists.
func (r *SeatRepo) Create(ctx context.Context, number, location, description string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seats (number, location, description) VALUES (?,?,?)`,
		strings.TrimSpace(number), location, description)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrSeatExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetOrCreate inserts a seat unless its number is already provisioned.  It
// reports whether a new row was created.  Used by the populate-seats
// command so re-running it is harmless.
func (r *SeatRepo) GetOrCreate(ctx context.Context, number, location, description string) (uint64, bool, error) {
	id, err := r.Create(ctx, number, location, description)
	if err == nil {
		return id, true, nil
	}
	if err != ErrSeatExists {
		return 0, false, err
	}
	var existing uint64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM seats WHERE number=? LIMIT 1`,
		strings.TrimSpace(number)).Scan(&existing)
	return existing, false, err
}

// GetByID loads a seat by primary key.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (model.Seat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=? LIMIT 1`, id)
	return scanSeat(row.Scan)
}

// SetActive toggles a seat's activation flag.
func (r *SeatRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE seats SET is_active=? WHERE id=?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll removes every seat.  Only the populate-seats command uses this,
// behind its --clear flag.
func (r *SeatRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM seats`)
	return err
}

// ListAvailable returns every active seat with no conflicting reservation
// in the given window, ordered by seat number for deterministic output.
func (r *SeatRepo) ListAvailable(ctx context.Context, start, end time.Time) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
	           FROM seats s
	           WHERE s.is_active = 1
	             AND NOT EXISTS (
	               SELECT 1 FROM reservations r
	               WHERE r.seat_id = s.id
	                 AND r.status IN ('reserved','checked_in')
	                 AND r.start_time < ?
	                 AND r.end_time > ?)
	           ORDER BY s.number`
	rows, err := r.db.QueryContext(ctx, q, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows.Scan)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// LockTx locks the seat row with SELECT ... FOR UPDATE inside the given
// transaction.  All reservation commits for a seat take this lock first,
// which serializes the availability re-check and the insert against
// concurrent commits on the same seat.  Seats are independent; no
// cross-seat locking happens.  It returns sql.ErrNoRows for unknown seats
// and ErrConflict for deactivated ones.
func (r *SeatRepo) LockTx(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE id=? LIMIT 1 FOR UPDATE`, seatID)
	s, err := scanSeat(row.Scan)
	if err != nil {
		return model.Seat{}, err
	}
	if !s.IsActive {
		return model.Seat{}, ErrConflict
	}
	return s, nil
}

// IsAvailableTx re-evaluates the overlap predicate for one seat inside the
// transaction that already holds the seat lock.  This is the commit-time
// check that closes the double-booking race.
func (r *SeatRepo) IsAvailableTx(ctx context.Context, tx *sql.Tx, seatID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE seat_id = ?
	             AND status IN ('reserved','checked_in')
	             AND start_time < ?
	             AND end_time > ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, seatID, end.UTC(), start.UTC()).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}
