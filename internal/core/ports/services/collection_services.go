package services

import (
	"context"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
)

// CollectionWriterSvc defines the ledger mutations
type CollectionWriterSvc interface {
	// CollectPayment records a payment and applies its allocations atomically.
	CollectPayment(ctx context.Context, cmd domain.CollectPaymentCommand, userID string) (*domain.Payment, error)

	// ReversePayment undoes a completed payment and restores every charge it touched.
	ReversePayment(ctx context.Context, paymentID string, reason string, userID string) (*domain.Payment, error)

	// WaiveStudentFee writes off the remaining balance of a charge.
	WaiveStudentFee(ctx context.Context, studentFeeID string, reason string, userID string) (*domain.StudentFee, error)
}

// CollectionReaderSvc defines the ledger reads
type CollectionReaderSvc interface {
	// GetStudentFees lists a student's charges with status evaluated as of now, optionally filtered by status.
	GetStudentFees(ctx context.Context, studentID string, status *domain.StudentFeeStatus) ([]domain.StudentFee, error)

	// GetPayment retrieves one payment with its allocations.
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPayments retrieves a page of payments, newest first.
	ListPayments(ctx context.Context, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error)
}

// CollectionSvcFacade combines all collection service interfaces
type CollectionSvcFacade interface {
	CollectionWriterSvc
	CollectionReaderSvc
}

// ReceiptSvc produces receipts for payments.
type ReceiptSvc interface {
	// GetReceipt assembles the receipt read model of a payment.
	GetReceipt(ctx context.Context, paymentID string) (*domain.Receipt, error)

	// RenderReceipt renders the receipt document. Rendering the same payment state twice yields identical bytes.
	RenderReceipt(ctx context.Context, paymentID string) ([]byte, error)
}
