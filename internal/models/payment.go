package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the payments row. Allocations live in fee_allocations.
type Payment struct {
	PaymentID      string
	StudentID      string
	ReceiptNumber  string
	Amount         decimal.Decimal
	PaymentMethod  string
	TransactionRef sql.NullString
	PaymentDate    time.Time
	Status         string
	Remarks        string
	IdempotencyKey sql.NullString
	ReversalReason sql.NullString
	ReversedAt     sql.NullTime
	ReversedBy     sql.NullString
	AuditFields
}

// FeeAllocation is the fee_allocations row.
type FeeAllocation struct {
	AllocationID string
	PaymentID    string
	StudentFeeID string
	Amount       decimal.Decimal
	CreatedAt    time.Time
}
