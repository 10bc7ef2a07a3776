package dto

import "github.com/SscSPs/school_fee_ledger/internal/core/domain"

// SummaryParams holds the optional filters of the financial summary.
type SummaryParams struct {
	AcademicYearID string `form:"academicYearID"`
	StudentID      string `form:"studentID"`
}

// Scope converts the query parameters into a summary scope.
func (p SummaryParams) Scope() domain.SummaryScope {
	return domain.SummaryScope{AcademicYearID: p.AcademicYearID, StudentID: p.StudentID}
}
