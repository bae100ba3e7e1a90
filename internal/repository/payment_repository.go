package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// PaymentRepo stores fine-settlement payment sessions.  A session is
// created pending and moves to completed or failed exactly once; the
// completed transition is guarded on the current status so replayed
// provider callbacks cannot apply a payment twice.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle for services that open transactions.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const paymentColumns = `id, student_id, amount_paise, status, session_id, provider_ref, created_at, updated_at`

func scanPayment(scan func(dest ...any) error) (model.Payment, error) {
	var (
		p   model.Payment
		ref sql.NullString
	)
	err := scan(&p.ID, &p.StudentID, &p.AmountPaise, &p.Status, &p.SessionID, &ref, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Payment{}, err
	}
	if ref.Valid {
		s := ref.String
		p.ProviderRef = &s
	}
	return p, nil
}

// Create inserts a pending payment session and returns the stored row.
func (r *PaymentRepo) Create(ctx context.Context, studentID uint64, amountPaise int64, sessionID string) (model.Payment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (student_id, amount_paise, status, session_id) VALUES (?,?,?,?)`,
		studentID, amountPaise, model.PaymentPending, sessionID)
	if err != nil {
		return model.Payment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Payment{}, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id=?`, id)
	return scanPayment(row.Scan)
}

// GetBySessionID looks a session up by its public identifier.
func (r *PaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE session_id=? LIMIT 1`, sessionID)
	return scanPayment(row.Scan)
}

// MarkCompletedTx transitions a session from pending to completed within an
// existing transaction and records the provider reference.  When the session
// is not pending any more the update affects no rows and false is returned,
// which callers treat as an already-settled replay.
func (r *PaymentRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, sessionID, providerRef string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status=?, provider_ref=? WHERE session_id=? AND status=?`,
		model.PaymentCompleted, providerRef, sessionID, model.PaymentPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkFailed transitions a pending session to failed.  Completed sessions
// are left untouched.
func (r *PaymentRepo) MarkFailed(ctx context.Context, sessionID, providerRef string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status=?, provider_ref=? WHERE session_id=? AND status=?`,
		model.PaymentFailed, providerRef, sessionID, model.PaymentPending)
	return err
}
