package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// OTPRepo records every issued check-in code.  The history table is append
// only; the code currently accepted for a reservation lives on the
// reservation row itself, so reissuing simply adds another history entry.
type OTPRepo struct {
	db *sql.DB
}

// NewOTPRepo returns a new OTPRepo bound to the given database.
func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{db: db} }

// CreateTx appends an issuance record within an existing transaction.
func (r *OTPRepo) CreateTx(ctx context.Context, tx *sql.Tx, studentID, reservationID uint64, code string, generatedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO otps (student_id, reservation_id, code, generated_at) VALUES (?,?,?,?)`,
		studentID, reservationID, code, generatedAt.UTC())
	return err
}

// ListByReservation returns the issuance history for one reservation,
// newest first.
func (r *OTPRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.OTP, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, reservation_id, code, generated_at, created_at
		 FROM otps WHERE reservation_id = ? ORDER BY generated_at DESC`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.OTP, 0)
	for rows.Next() {
		var o model.OTP
		if err := rows.Scan(&o.ID, &o.StudentID, &o.ReservationID, &o.Code, &o.GeneratedAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
