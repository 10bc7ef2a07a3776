package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// StudentFee is the student_fees row.
type StudentFee struct {
	StudentFeeID   string
	StudentID      string
	FeeStructureID string
	FeeCategoryID  string
	AcademicYearID string
	BillingPeriod  string
	DueDate        time.Time
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	WaivedAmount   decimal.Decimal
	BalanceAmount  decimal.Decimal
	Status         string
	WaiverReason   sql.NullString
	AuditFields
}
