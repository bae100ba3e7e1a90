package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// StudentRepo provides access to the `students` table: profile lookups and
// the ledger columns (no-show count, restriction, fines).  All timestamps
// are stored in UTC.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo returns a new StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

const studentColumns = `id, user_id, roll_number, branch, no_show_count,
	last_penalty_at, is_restricted, fine_paise, created_at, updated_at`

func scanStudent(scan func(dest ...any) error) (model.Student, error) {
	var (
		s         model.Student
		penaltyAt sql.NullTime
	)
	err := scan(&s.ID, &s.UserID, &s.RollNumber, &s.Branch, &s.NoShowCount,
		&penaltyAt, &s.IsRestricted, &s.FinePaise, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Student{}, err
	}
	if penaltyAt.Valid {
		t := penaltyAt.Time
		s.LastPenaltyAt = &t
	}
	return s, nil
}

// CreateTx inserts a student profile within an existing transaction.  The
// registration flow creates the user row and the profile atomically.
func (r *StudentRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, rollNumber, branch string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO students (user_id, roll_number, branch) VALUES (?,?,?)`,
		userID, strings.TrimSpace(rollNumber), strings.TrimSpace(branch))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrRollNumberExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUserID loads the profile belonging to a user account.
func (r *StudentRepo) GetByUserID(ctx context.Context, userID uint64) (model.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE user_id=? LIMIT 1`, userID)
	return scanStudent(row.Scan)
}

// GetByID loads a profile by its primary key.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (model.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id=? LIMIT 1`, id)
	return scanStudent(row.Scan)
}

// GetByIDTx loads a profile by primary key inside a transaction, locking the
// row so ledger updates cannot race with concurrent no-show markings.
func (r *StudentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id=? LIMIT 1 FOR UPDATE`, id)
	return scanStudent(row.Scan)
}

// UpdateLedger persists the ledger columns of a profile: no-show count,
// restriction flag and penalty timestamp.
func (r *StudentRepo) UpdateLedger(ctx context.Context, s model.Student) error {
	return r.updateLedger(ctx, r.db.ExecContext, s)
}

// UpdateLedgerTx is UpdateLedger within an existing transaction.
func (r *StudentRepo) UpdateLedgerTx(ctx context.Context, tx *sql.Tx, s model.Student) error {
	return r.updateLedger(ctx, tx.ExecContext, s)
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *StudentRepo) updateLedger(ctx context.Context, exec execFunc, s model.Student) error {
	var penaltyAt any
	if s.LastPenaltyAt != nil {
		penaltyAt = s.LastPenaltyAt.UTC()
	}
	_, err := exec(ctx,
		`UPDATE students SET no_show_count=?, is_restricted=?, last_penalty_at=? WHERE id=?`,
		s.NoShowCount, s.IsRestricted, penaltyAt, s.ID)
	return err
}

// ReduceFineTx lowers the fine balance by amountPaise, clamped at zero, in
// a single guarded statement so concurrent settlements cannot drive the
// balance negative.
func (r *StudentRepo) ReduceFineTx(ctx context.Context, tx *sql.Tx, studentID uint64, amountPaise int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE students SET fine_paise = GREATEST(0, fine_paise - ?) WHERE id=?`,
		amountPaise, studentID)
	return err
}

// AddFine raises the outstanding balance.  Used by administrative fine
// assessment.
func (r *StudentRepo) AddFine(ctx context.Context, studentID uint64, amountPaise int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE students SET fine_paise = fine_paise + ? WHERE id=?`,
		amountPaise, studentID)
	return err
}
