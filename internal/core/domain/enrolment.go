package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AcademicYear bounds a billing cycle.
type AcademicYear struct {
	AcademicYearID string    `json:"academicYearID"`
	Name           string    `json:"name"` // e.g. 2025-2026
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

// Student is the slice of the enrolment record the ledger needs.
type Student struct {
	StudentID       string `json:"studentID"`
	AdmissionNumber string `json:"admissionNumber"`
	Name            string `json:"name"`
	ClassID         string `json:"classID"`
	AcademicYearID  string `json:"academicYearID"`
	IsActive        bool   `json:"isActive"`
}

// DiscountType selects how a FeeOverride reduces a charge.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// FeeOverride is a per-student scholarship or discount applied at generation time.
// An empty FeeStructureID applies the override to every structure billed to the student.
type FeeOverride struct {
	FeeOverrideID  string          `json:"feeOverrideID"`
	StudentID      string          `json:"studentID"`
	FeeStructureID string          `json:"feeStructureID,omitempty"`
	DiscountType   DiscountType    `json:"discountType"`
	Value          decimal.Decimal `json:"value"`
	Reason         string          `json:"reason"`
}

var hundred = decimal.NewFromInt(100)

// AppliesTo reports whether the override targets the given structure.
func (o FeeOverride) AppliesTo(feeStructureID string) bool {
	return o.FeeStructureID == "" || o.FeeStructureID == feeStructureID
}

// Apply returns the amount owed after the discount, rounded to cents and never negative.
func (o FeeOverride) Apply(amount decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal
	switch o.DiscountType {
	case DiscountPercentage:
		pct := decimal.Min(decimal.Max(o.Value, decimal.Zero), hundred)
		result = amount.Sub(amount.Mul(pct).Div(hundred))
	case DiscountFixed:
		result = amount.Sub(o.Value)
	default:
		result = amount
	}
	result = result.Round(2)
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}
