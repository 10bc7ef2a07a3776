package domain

import (
	"strings"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// StudentFeeStatus is the derived settlement state of a charge.
type StudentFeeStatus string

const (
	FeePending StudentFeeStatus = "PENDING"
	FeePartial StudentFeeStatus = "PARTIAL"
	FeePaid    StudentFeeStatus = "PAID"
	FeeOverdue StudentFeeStatus = "OVERDUE"
	FeeWaived  StudentFeeStatus = "WAIVED"
)

// IsValid reports whether s is a known status.
func (s StudentFeeStatus) IsValid() bool {
	switch s {
	case FeePending, FeePartial, FeePaid, FeeOverdue, FeeWaived:
		return true
	}
	return false
}

// IsSettled reports whether no further payment can be allocated to a charge in this status.
func (s StudentFeeStatus) IsSettled() bool {
	return s == FeePaid || s == FeeWaived
}

// StudentFee is a single student's obligation for one billing period of a fee structure.
// BalanceAmount and Status are a cache of TotalAmount, PaidAmount and WaivedAmount;
// they are only ever written by Recompute.
type StudentFee struct {
	StudentFeeID   string           `json:"studentFeeID"`
	StudentID      string           `json:"studentID"`
	FeeStructureID string           `json:"feeStructureID"`
	FeeCategoryID  string           `json:"feeCategoryID"`
	AcademicYearID string           `json:"academicYearID"`
	BillingPeriod  string           `json:"billingPeriod"`
	DueDate        time.Time        `json:"dueDate"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"` // fixed at creation
	PaidAmount     decimal.Decimal  `json:"paidAmount"`
	WaivedAmount   decimal.Decimal  `json:"waivedAmount"`
	BalanceAmount  decimal.Decimal  `json:"balanceAmount"`
	Status         StudentFeeStatus `json:"status"`
	WaiverReason   *string          `json:"waiverReason,omitempty"`
	AuditFields
}

// NaturalKey identifies a charge independent of its surrogate id.
func (f StudentFee) NaturalKey() string {
	return strings.Join([]string{f.StudentID, f.FeeStructureID, f.BillingPeriod}, "|")
}

// Recompute derives BalanceAmount and Status from the stored amounts and the due date.
func (f *StudentFee) Recompute(asOf time.Time) {
	f.BalanceAmount = f.TotalAmount.Sub(f.PaidAmount).Sub(f.WaivedAmount)

	switch {
	case f.Status == FeeWaived:
		// stays waived; the waived amount absorbs the balance
	case f.BalanceAmount.IsZero():
		f.Status = FeePaid
	case f.PaidAmount.IsPositive():
		f.Status = FeePartial
	case f.IsPastDue(asOf):
		f.Status = FeeOverdue
	default:
		f.Status = FeePending
	}
}

// IsPastDue reports whether asOf falls on a day after the due date.
func (f StudentFee) IsPastDue(asOf time.Time) bool {
	return startOfDay(asOf.In(time.UTC)).After(startOfDay(f.DueDate.In(time.UTC)))
}

// ApplyPayment allocates amount to the charge. It rejects settled charges and any amount
// above the current balance.
func (f *StudentFee) ApplyPayment(amount decimal.Decimal, asOf time.Time) error {
	if !amount.IsPositive() {
		return apperrors.NewValidationError("allocation_amount_positive", "allocation amount must be greater than zero")
	}
	f.Recompute(asOf)
	if f.Status.IsSettled() {
		return apperrors.NewConflictError("charge_settled", f.StudentFeeID, "charge is already "+string(f.Status))
	}
	if amount.GreaterThan(f.BalanceAmount) {
		err := apperrors.NewConflictError("allocation_exceeds_balance", f.StudentFeeID, "allocation exceeds the current balance")
		err.Expected = f.BalanceAmount.StringFixed(2)
		err.Actual = amount.StringFixed(2)
		return err
	}
	f.PaidAmount = f.PaidAmount.Add(amount)
	f.Recompute(asOf)
	return nil
}

// RevertPayment removes a previously applied amount, the inverse of ApplyPayment.
func (f *StudentFee) RevertPayment(amount decimal.Decimal, asOf time.Time) error {
	if f.Status == FeeWaived {
		return apperrors.NewConflictError("charge_waived", f.StudentFeeID, "cannot reverse a payment allocated to a waived charge")
	}
	if amount.GreaterThan(f.PaidAmount) {
		err := apperrors.NewConflictError("reversal_exceeds_paid", f.StudentFeeID, "reversal exceeds the paid amount")
		err.Expected = f.PaidAmount.StringFixed(2)
		err.Actual = amount.StringFixed(2)
		return err
	}
	f.PaidAmount = f.PaidAmount.Sub(amount)
	f.Recompute(asOf)
	return nil
}

// Waive writes off the remaining balance. Paid amounts are kept.
func (f *StudentFee) Waive(reason string, asOf time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewValidationError("waiver_reason_required", "a waiver reason is required")
	}
	f.Recompute(asOf)
	if f.Status.IsSettled() {
		return apperrors.NewConflictError("charge_settled", f.StudentFeeID, "charge is already "+string(f.Status))
	}
	f.WaivedAmount = f.WaivedAmount.Add(f.BalanceAmount)
	f.Status = FeeWaived
	f.WaiverReason = &reason
	f.Recompute(asOf)
	return nil
}

// GenerationScope selects which students and structures an obligation run covers.
// ClassID and StudentID are optional narrowing filters.
type GenerationScope struct {
	AcademicYearID string `json:"academicYearID"`
	ClassID        string `json:"classID,omitempty"`
	StudentID      string `json:"studentID,omitempty"`
}

// GenerationResult counts what an obligation run did.
type GenerationResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"` // natural key already present
	Waived  int `json:"waived"`  // created already waived by a full discount
}
