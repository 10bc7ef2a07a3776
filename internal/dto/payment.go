package dto

import (
	"strings"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MaxIdempotencyKeyLength bounds idempotency keys from the body and the Idempotency-Key header alike.
const MaxIdempotencyKeyLength = 128

// AllocationRequest is one line of the requested payment split.
type AllocationRequest struct {
	StudentFeeID string          `json:"studentFeeID" binding:"required"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"400.00"`
}

// CollectPaymentRequest defines the payload for collecting a payment.
type CollectPaymentRequest struct {
	StudentID      string              `json:"studentID" binding:"required"`
	Amount         decimal.Decimal     `json:"amount" swaggertype:"string" example:"400.00"`
	PaymentMethod  string              `json:"paymentMethod" binding:"required,payment_method" example:"CASH"`
	TransactionRef *string             `json:"transactionRef,omitempty"`
	Allocations    []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
	Remarks        string              `json:"remarks" binding:"max=500"`
	IdempotencyKey *string             `json:"idempotencyKey,omitempty" binding:"omitempty,max=128"`
	PaymentDate    *time.Time          `json:"paymentDate,omitempty"`
}

// ToCommand converts the request into the engine command. A non-empty headerKey
// is used when the body carries no idempotency key.
func (r CollectPaymentRequest) ToCommand(headerKey string) domain.CollectPaymentCommand {
	lines := make([]domain.AllocationLine, len(r.Allocations))
	for i, a := range r.Allocations {
		lines[i] = domain.AllocationLine{StudentFeeID: a.StudentFeeID, Amount: a.Amount}
	}

	key := r.IdempotencyKey
	if (key == nil || strings.TrimSpace(*key) == "") && strings.TrimSpace(headerKey) != "" {
		k := strings.TrimSpace(headerKey)
		key = &k
	}

	return domain.CollectPaymentCommand{
		StudentID:      r.StudentID,
		Amount:         r.Amount,
		Method:         domain.PaymentMethod(r.PaymentMethod),
		TransactionRef: r.TransactionRef,
		Allocations:    lines,
		Remarks:        r.Remarks,
		IdempotencyKey: key,
		PaymentDate:    r.PaymentDate,
	}
}

// ReversePaymentRequest defines the payload for reversing a payment.
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListPaymentsParams holds parameters for listing payments.
type ListPaymentsParams struct {
	StudentID string  `form:"studentID"`
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// AllocationResponse defines the data returned for a fee allocation.
type AllocationResponse struct {
	AllocationID string          `json:"allocationID"`
	StudentFeeID string          `json:"studentFeeID"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID      string               `json:"paymentID"`
	StudentID      string               `json:"studentID"`
	ReceiptNumber  string               `json:"receiptNumber"`
	Amount         decimal.Decimal      `json:"amount" swaggertype:"string"`
	PaymentMethod  string               `json:"paymentMethod"`
	TransactionRef *string              `json:"transactionRef,omitempty"`
	PaymentDate    time.Time            `json:"paymentDate"`
	Status         string               `json:"status"`
	Remarks        string               `json:"remarks,omitempty"`
	ReversalReason *string              `json:"reversalReason,omitempty"`
	ReversedAt     *time.Time           `json:"reversedAt,omitempty"`
	Allocations    []AllocationResponse `json:"allocations"`
	CreatedAt      time.Time            `json:"createdAt"`
	CreatedBy      string               `json:"createdBy"`
}

// ListPaymentsResponse wraps a page of payments.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToPaymentResponse converts a domain.Payment to its response DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = AllocationResponse{
			AllocationID: a.AllocationID,
			StudentFeeID: a.StudentFeeID,
			Amount:       a.Amount,
		}
	}
	return PaymentResponse{
		PaymentID:      p.PaymentID,
		StudentID:      p.StudentID,
		ReceiptNumber:  p.ReceiptNumber,
		Amount:         p.Amount,
		PaymentMethod:  string(p.PaymentMethod),
		TransactionRef: p.TransactionRef,
		PaymentDate:    p.PaymentDate,
		Status:         string(p.Status),
		Remarks:        p.Remarks,
		ReversalReason: p.ReversalReason,
		ReversedAt:     p.ReversedAt,
		Allocations:    allocations,
		CreatedAt:      p.CreatedAt,
		CreatedBy:      p.CreatedBy,
	}
}

// ToPaymentResponses converts a slice of payments.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
