package repositories

import (
	"context"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

// LedgerTx exposes the writes that must commit or roll back together.
// Implementations are only valid inside UnitOfWork.WithinTx.
type LedgerTx interface {
	// LockStudentFees loads and row-locks the given charges, ordered by id.
	// Unknown ids are omitted from the result rather than reported.
	LockStudentFees(ctx context.Context, studentFeeIDs []string) ([]domain.StudentFee, error)

	// SaveStudentFees writes back paid, waived, balance, status and audit fields.
	SaveStudentFees(ctx context.Context, fees []domain.StudentFee) error

	// InsertPayment persists a payment together with its allocations.
	// A reused idempotency key yields apperrors.ErrDuplicate, a reused receipt number apperrors.ErrDuplicateReceipt.
	InsertPayment(ctx context.Context, payment domain.Payment) error

	// LockPayment loads and row-locks a payment with its allocations.
	LockPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// MarkPaymentReversed stores the reversal fields of the payment.
	MarkPaymentReversed(ctx context.Context, payment domain.Payment) error
}

// UnitOfWork runs fn inside one serializable transaction.
// If fn returns an error nothing it wrote is visible. Lost serialization races surface as
// apperrors.ErrConcurrentUpdate and may be retried by the caller.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// ReceiptSequencer hands out receipt sequence numbers per year.
// Each call commits on its own, so a number is consumed even if the caller later rolls back.
type ReceiptSequencer interface {
	NextReceiptSequence(ctx context.Context, year int) (int64, error)
}
