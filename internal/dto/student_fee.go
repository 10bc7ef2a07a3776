package dto

import (
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GenerateObligationsRequest defines the scope of an obligation run.
type GenerateObligationsRequest struct {
	AcademicYearID string `json:"academicYearID" binding:"required"`
	ClassID        string `json:"classID"`
	StudentID      string `json:"studentID"`
}

// WaiveStudentFeeRequest defines the payload for waiving a charge.
type WaiveStudentFeeRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// StudentFeeResponse defines the data returned for a charge.
type StudentFeeResponse struct {
	StudentFeeID   string          `json:"studentFeeID"`
	StudentID      string          `json:"studentID"`
	FeeStructureID string          `json:"feeStructureID"`
	FeeCategoryID  string          `json:"feeCategoryID"`
	AcademicYearID string          `json:"academicYearID"`
	BillingPeriod  string          `json:"billingPeriod"`
	DueDate        time.Time       `json:"dueDate"`
	TotalAmount    decimal.Decimal `json:"totalAmount" swaggertype:"string"`
	PaidAmount     decimal.Decimal `json:"paidAmount" swaggertype:"string"`
	WaivedAmount   decimal.Decimal `json:"waivedAmount" swaggertype:"string"`
	BalanceAmount  decimal.Decimal `json:"balanceAmount" swaggertype:"string"`
	Status         string          `json:"status"`
	WaiverReason   *string         `json:"waiverReason,omitempty"`
}

// ToStudentFeeResponse converts a domain.StudentFee to its response DTO.
func ToStudentFeeResponse(f *domain.StudentFee) StudentFeeResponse {
	return StudentFeeResponse{
		StudentFeeID:   f.StudentFeeID,
		StudentID:      f.StudentID,
		FeeStructureID: f.FeeStructureID,
		FeeCategoryID:  f.FeeCategoryID,
		AcademicYearID: f.AcademicYearID,
		BillingPeriod:  f.BillingPeriod,
		DueDate:        f.DueDate,
		TotalAmount:    f.TotalAmount,
		PaidAmount:     f.PaidAmount,
		WaivedAmount:   f.WaivedAmount,
		BalanceAmount:  f.BalanceAmount,
		Status:         string(f.Status),
		WaiverReason:   f.WaiverReason,
	}
}

// ToStudentFeeResponses converts a slice of charges.
func ToStudentFeeResponses(fees []domain.StudentFee) []StudentFeeResponse {
	responses := make([]StudentFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToStudentFeeResponse(&fees[i])
	}
	return responses
}
