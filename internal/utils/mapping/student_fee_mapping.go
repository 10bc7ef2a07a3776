package mapping

import (
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/models"
)

// ToModelStudentFee converts a domain StudentFee to a model StudentFee
func ToModelStudentFee(d domain.StudentFee) models.StudentFee {
	return models.StudentFee{
		StudentFeeID:   d.StudentFeeID,
		StudentID:      d.StudentID,
		FeeStructureID: d.FeeStructureID,
		FeeCategoryID:  d.FeeCategoryID,
		AcademicYearID: d.AcademicYearID,
		BillingPeriod:  d.BillingPeriod,
		DueDate:        d.DueDate,
		TotalAmount:    d.TotalAmount,
		PaidAmount:     d.PaidAmount,
		WaivedAmount:   d.WaivedAmount,
		BalanceAmount:  d.BalanceAmount,
		Status:         string(d.Status),
		WaiverReason:   toNullString(d.WaiverReason),
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainStudentFee converts a model StudentFee to a domain StudentFee
func ToDomainStudentFee(m models.StudentFee) domain.StudentFee {
	return domain.StudentFee{
		StudentFeeID:   m.StudentFeeID,
		StudentID:      m.StudentID,
		FeeStructureID: m.FeeStructureID,
		FeeCategoryID:  m.FeeCategoryID,
		AcademicYearID: m.AcademicYearID,
		BillingPeriod:  m.BillingPeriod,
		DueDate:        m.DueDate.UTC(),
		TotalAmount:    m.TotalAmount,
		PaidAmount:     m.PaidAmount,
		WaivedAmount:   m.WaivedAmount,
		BalanceAmount:  m.BalanceAmount,
		Status:         domain.StudentFeeStatus(m.Status),
		WaiverReason:   fromNullString(m.WaiverReason),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}
