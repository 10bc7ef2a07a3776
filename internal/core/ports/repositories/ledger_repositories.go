package repositories

import (
	"context"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

// StudentFeeReader defines read operations for charges
type StudentFeeReader interface {
	// FindStudentFeeByID retrieves a charge by its id.
	FindStudentFeeByID(ctx context.Context, studentFeeID string) (*domain.StudentFee, error)

	// FindStudentFeesByIDs retrieves several charges keyed by id without locking. Missing ids are skipped.
	FindStudentFeesByIDs(ctx context.Context, studentFeeIDs []string) (map[string]domain.StudentFee, error)

	// ListStudentFeesByStudent lists a student's charges ordered by due date then creation time.
	ListStudentFeesByStudent(ctx context.Context, studentID string) ([]domain.StudentFee, error)
}

// StudentFeeWriter defines write operations for charges outside the unit of work
type StudentFeeWriter interface {
	// InsertStudentFees inserts charges, skipping any whose natural key
	// (student, structure, billing period) already exists. It returns the ids actually inserted.
	InsertStudentFees(ctx context.Context, fees []domain.StudentFee) ([]string, error)
}

// StudentFeeRepositoryFacade combines all charge repository interfaces
type StudentFeeRepositoryFacade interface {
	StudentFeeReader
	StudentFeeWriter
}

// PaymentReader defines read operations for payments
type PaymentReader interface {
	// FindPaymentByID retrieves a payment with its allocations.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentByIdempotencyKey retrieves the payment created under the key, with its allocations.
	FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// ListPayments retrieves payments newest first using token-based pagination.
	// An empty studentID lists every student. It returns the payments, a token for the next page, and an error.
	ListPayments(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.Payment, *string, error)

	// ListPaymentsByStudent lists all of a student's payments, with allocations, oldest first.
	ListPaymentsByStudent(ctx context.Context, studentID string) ([]domain.Payment, error)
}
