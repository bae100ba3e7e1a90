package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// StudentStore is the persistence surface for student profiles and their
// penalty ledger.  *repository.StudentRepo is the production
// implementation.
type StudentStore interface {
	GetByUserID(ctx context.Context, userID uint64) (model.Student, error)
	GetByID(ctx context.Context, id uint64) (model.Student, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error)
	UpdateLedger(ctx context.Context, s model.Student) error
	UpdateLedgerTx(ctx context.Context, tx *sql.Tx, s model.Student) error
	AddFine(ctx context.Context, studentID uint64, amountPaise int64) error
}

// LedgerService maintains the per-student no-show ledger: the counter, the
// restriction flag and its expiry.  Restrictions are lifted lazily, on the
// next booking attempt after they lapse; nothing sweeps them in the
// background.
type LedgerService struct {
	students StudentStore
	clock    Clock
}

// NewLedgerService returns a LedgerService over the students store.
func NewLedgerService(students StudentStore, clock Clock) *LedgerService {
	return &LedgerService{students: students, clock: clock}
}

// RecordNoShowTx applies one no-show to the student inside the caller's
// transaction.  The student row is locked first so concurrent markings
// each count exactly once, and the restriction threshold is evaluated on
// the locked value.
func (l *LedgerService) RecordNoShowTx(ctx context.Context, tx *sql.Tx, studentID uint64, settings model.LibrarySettings) error {
	student, err := l.students.GetByIDTx(ctx, tx, studentID)
	if err != nil {
		return err
	}
	student.ApplyNoShow(settings, l.clock.Now())
	return l.students.UpdateLedgerTx(ctx, tx, student)
}

// EnsureNotRestricted enforces the booking ban.  An expired restriction is
// cleared and persisted before the check, so the first booking attempt
// after the penalty window succeeds; an active one fails with
// ErrStudentRestricted.  The possibly-updated student is returned.
func (l *LedgerService) EnsureNotRestricted(ctx context.Context, student model.Student, settings model.LibrarySettings) (model.Student, error) {
	if !student.IsRestricted {
		return student, nil
	}
	if !student.RestrictionExpired(settings, l.clock.Now()) {
		return student, ErrStudentRestricted
	}
	student.ClearRestriction()
	if err := l.students.UpdateLedger(ctx, student); err != nil {
		return student, err
	}
	return student, nil
}

// AssessFine raises a student's outstanding balance.  Administrative use
// only; amounts are in paise.
func (l *LedgerService) AssessFine(ctx context.Context, studentID uint64, amountPaise int64) error {
	if amountPaise <= 0 {
		return ErrInvalidAmount
	}
	if _, err := l.students.GetByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return ErrStudentNotFound
		}
		return err
	}
	return l.students.AddFine(ctx, studentID, amountPaise)
}
