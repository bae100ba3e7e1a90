package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
)

// PaymentService handles fine settlement through the external payment
// provider.  Initiate opens a pending session identified by a uuid;
// the provider later reports the outcome through its webhook, and
// ApplyOutcome settles the fine exactly once per session no matter how
// many times the callback is replayed.
type PaymentService interface {
	Initiate(ctx context.Context, userID uint64, amountPaise int64) (model.Payment, error)
	ApplyOutcome(ctx context.Context, sessionID, status, providerRef string) error
}

type paymentService struct {
	db       *sql.DB
	payments *repository.PaymentRepo
	students *repository.StudentRepo
}

// NewPaymentService returns the production PaymentService.
func NewPaymentService(db *sql.DB, payments *repository.PaymentRepo, students *repository.StudentRepo) PaymentService {
	return &paymentService{db: db, payments: payments, students: students}
}

// Initiate validates the settlement amount against the student's balance
// and opens a pending payment session.  Partial settlements are allowed;
// the amount may not exceed the outstanding fine.
func (s *paymentService) Initiate(ctx context.Context, userID uint64, amountPaise int64) (model.Payment, error) {
	if amountPaise <= 0 {
		return model.Payment{}, ErrInvalidAmount
	}
	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Payment{}, ErrStudentNotFound
		}
		return model.Payment{}, err
	}
	if student.FinePaise <= 0 {
		return model.Payment{}, ErrNoOutstandingFine
	}
	if amountPaise > student.FinePaise {
		return model.Payment{}, ErrInvalidAmount
	}
	return s.payments.Create(ctx, student.ID, amountPaise, uuid.NewString())
}

// ApplyOutcome processes a provider callback.  A completed outcome moves
// the session from pending to completed and reduces the fine in the same
// transaction; the guarded transition makes replays no-ops.  A failed
// outcome just closes the session.  Unknown sessions surface
// ErrPaymentNotFound so the handler can acknowledge without acting.
func (s *paymentService) ApplyOutcome(ctx context.Context, sessionID, status, providerRef string) error {
	payment, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPaymentNotFound
		}
		return err
	}

	if status != model.PaymentCompleted {
		return s.payments.MarkFailed(ctx, sessionID, providerRef)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	applied, err := s.payments.MarkCompletedTx(ctx, tx, sessionID, providerRef)
	if err != nil {
		return err
	}
	if applied {
		if err := s.students.ReduceFineTx(ctx, tx, payment.StudentID, payment.AmountPaise); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
