package mapping

import (
	"database/sql"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment. Allocations are mapped separately.
func ToModelPayment(d domain.Payment) models.Payment {
	m := models.Payment{
		PaymentID:      d.PaymentID,
		StudentID:      d.StudentID,
		ReceiptNumber:  d.ReceiptNumber,
		Amount:         d.Amount,
		PaymentMethod:  string(d.PaymentMethod),
		TransactionRef: toNullString(d.TransactionRef),
		PaymentDate:    d.PaymentDate,
		Status:         string(d.Status),
		Remarks:        d.Remarks,
		IdempotencyKey: toNullString(d.IdempotencyKey),
		ReversalReason: toNullString(d.ReversalReason),
		ReversedBy:     toNullString(d.ReversedBy),
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
	if d.ReversedAt != nil {
		m.ReversedAt = sql.NullTime{Time: *d.ReversedAt, Valid: true}
	}
	return m
}

// ToDomainPayment converts a model Payment and its allocation rows to a domain Payment
func ToDomainPayment(m models.Payment, allocations []models.FeeAllocation) domain.Payment {
	d := domain.Payment{
		PaymentID:      m.PaymentID,
		StudentID:      m.StudentID,
		ReceiptNumber:  m.ReceiptNumber,
		Amount:         m.Amount,
		PaymentMethod:  domain.PaymentMethod(m.PaymentMethod),
		TransactionRef: fromNullString(m.TransactionRef),
		PaymentDate:    m.PaymentDate.UTC(),
		Status:         domain.PaymentStatus(m.Status),
		Remarks:        m.Remarks,
		IdempotencyKey: fromNullString(m.IdempotencyKey),
		ReversalReason: fromNullString(m.ReversalReason),
		ReversedBy:     fromNullString(m.ReversedBy),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
		Allocations:    make([]domain.FeeAllocation, len(allocations)),
	}
	if m.ReversedAt.Valid {
		t := m.ReversedAt.Time.UTC()
		d.ReversedAt = &t
	}
	for i, a := range allocations {
		d.Allocations[i] = ToDomainFeeAllocation(a)
	}
	return d
}

// ToModelFeeAllocation converts a domain FeeAllocation to a model FeeAllocation
func ToModelFeeAllocation(d domain.FeeAllocation) models.FeeAllocation {
	return models.FeeAllocation{
		AllocationID: d.AllocationID,
		PaymentID:    d.PaymentID,
		StudentFeeID: d.StudentFeeID,
		Amount:       d.Amount,
		CreatedAt:    d.CreatedAt,
	}
}

// ToDomainFeeAllocation converts a model FeeAllocation to a domain FeeAllocation
func ToDomainFeeAllocation(m models.FeeAllocation) domain.FeeAllocation {
	return domain.FeeAllocation{
		AllocationID: m.AllocationID,
		PaymentID:    m.PaymentID,
		StudentFeeID: m.StudentFeeID,
		Amount:       m.Amount,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
