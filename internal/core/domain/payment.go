package domain

import (
	"strings"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// PaymentStatus indicates the state of a payment.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentReversed  PaymentStatus = "REVERSED"
)

// PaymentMethod is how the money was tendered.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCard         PaymentMethod = "CARD"
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodOnline       PaymentMethod = "ONLINE"
)

// IsValid reports whether m is a supported payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodCard, MethodMobileMoney, MethodOnline:
		return true
	}
	return false
}

// RequiresTransactionRef reports whether an external reference must accompany the method.
func (m PaymentMethod) RequiresTransactionRef() bool {
	return m != MethodCash
}

// Payment is an immutable record of money received from one student.
// Only the status may change, from COMPLETED to REVERSED.
type Payment struct {
	PaymentID      string          `json:"paymentID"`
	StudentID      string          `json:"studentID"`
	ReceiptNumber  string          `json:"receiptNumber"` // unique, assigned once
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	TransactionRef *string         `json:"transactionRef,omitempty"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Status         PaymentStatus   `json:"status"`
	Remarks        string          `json:"remarks"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
	ReversalReason *string         `json:"reversalReason,omitempty"`
	ReversedAt     *time.Time      `json:"reversedAt,omitempty"`
	ReversedBy     *string         `json:"reversedBy,omitempty"`
	Allocations    []FeeAllocation `json:"allocations,omitempty"`
	AuditFields
}

// AllocatedTotal sums the allocation lines of the payment.
func (p Payment) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// Validate checks the header fields of a payment before any charge is touched.
func (p Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return apperrors.NewValidationError("amount_positive", "payment amount must be greater than zero")
	}
	if !p.Amount.Equal(p.Amount.Round(2)) {
		return apperrors.NewValidationError("amount_precision", "payment amount has more than two decimal places")
	}
	if !p.PaymentMethod.IsValid() {
		return apperrors.NewValidationError("payment_method_invalid", "unsupported payment method "+string(p.PaymentMethod))
	}
	if p.PaymentMethod.RequiresTransactionRef() && (p.TransactionRef == nil || strings.TrimSpace(*p.TransactionRef) == "") {
		return apperrors.NewValidationError("transaction_ref_required", "transaction reference is required for "+string(p.PaymentMethod))
	}
	return nil
}

// FeeAllocation is the portion of one payment applied to one charge.
type FeeAllocation struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	StudentFeeID string          `json:"studentFeeID"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// AllocationLine is a requested split of a payment onto a charge.
type AllocationLine struct {
	StudentFeeID string          `json:"studentFeeID"`
	Amount       decimal.Decimal `json:"amount"`
}

// CollectPaymentCommand carries everything needed to collect one payment.
type CollectPaymentCommand struct {
	StudentID      string
	Amount         decimal.Decimal
	Method         PaymentMethod
	TransactionRef *string
	Allocations    []AllocationLine
	Remarks        string
	IdempotencyKey *string
	PaymentDate    *time.Time // defaults to now
}

// ExpenseStatus tracks the (external) approval flow of an expense.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "PENDING"
	ExpenseApproved ExpenseStatus = "APPROVED"
	ExpensePaid     ExpenseStatus = "PAID"
	ExpenseRejected ExpenseStatus = "REJECTED"
)

// Expense is read by the summary aggregator only; its workflow lives elsewhere.
type Expense struct {
	ExpenseID   string          `json:"expenseID"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Status      ExpenseStatus   `json:"status"`
	ExpenseDate time.Time       `json:"expenseDate"`
}
