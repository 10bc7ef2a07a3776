package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var academicYear = domain.AcademicYear{
	AcademicYearID: "ay-2025",
	Name:           "2025-2026",
	StartDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	EndDate:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
}

func TestFrequency_Periods(t *testing.T) {
	tests := []struct {
		name      string
		frequency domain.Frequency
		dueDay    int
		wantKeys  []string
		wantDue   map[int]string // period index -> due date
	}{
		{
			name:      "monthly clamps due day",
			frequency: domain.Monthly,
			dueDay:    31,
			wantKeys: []string{"2025-04", "2025-05", "2025-06", "2025-07", "2025-08", "2025-09",
				"2025-10", "2025-11", "2025-12", "2026-01", "2026-02", "2026-03"},
			wantDue: map[int]string{1: "2025-04-30", 2: "2025-05-31", 11: "2026-02-28", 12: "2026-03-31"},
		},
		{
			name:      "quarterly",
			frequency: domain.Quarterly,
			dueDay:    10,
			wantKeys:  []string{"2025-04", "2025-07", "2025-10", "2026-01"},
			wantDue:   map[int]string{4: "2026-01-10"},
		},
		{
			name:      "half yearly",
			frequency: domain.HalfYearly,
			dueDay:    5,
			wantKeys:  []string{"2025-04", "2025-10"},
			wantDue:   map[int]string{2: "2025-10-05"},
		},
		{
			name:      "annual",
			frequency: domain.Annual,
			dueDay:    15,
			wantKeys:  []string{"2025-04"},
			wantDue:   map[int]string{1: "2025-04-15"},
		},
		{
			name:      "one time with invalid due day",
			frequency: domain.OneTime,
			dueDay:    0,
			wantKeys:  []string{"ONCE"},
			wantDue:   map[int]string{1: "2025-04-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := tt.frequency.Periods(academicYear, tt.dueDay)
			require.Len(t, periods, len(tt.wantKeys))
			for i, p := range periods {
				assert.Equal(t, tt.wantKeys[i], p.Key)
				assert.Equal(t, i+1, p.Index)
				if want, ok := tt.wantDue[p.Index]; ok {
					assert.Equal(t, want, p.DueDate.Format(time.DateOnly))
				}
			}
		})
	}
}

func TestFrequency_IsValid(t *testing.T) {
	assert.True(t, domain.Quarterly.IsValid())
	assert.False(t, domain.Frequency("WEEKLY").IsValid())
}

func TestFeeOverride_Apply(t *testing.T) {
	amount := decimal.NewFromInt(1000)
	tests := []struct {
		name     string
		override domain.FeeOverride
		want     string
	}{
		{name: "half scholarship", override: domain.FeeOverride{DiscountType: domain.DiscountPercentage, Value: decimal.NewFromInt(50)}, want: "500"},
		{name: "fractional percentage", override: domain.FeeOverride{DiscountType: domain.DiscountPercentage, Value: decimal.RequireFromString("12.5")}, want: "875"},
		{name: "percentage above hundred", override: domain.FeeOverride{DiscountType: domain.DiscountPercentage, Value: decimal.NewFromInt(150)}, want: "0"},
		{name: "fixed rounds to cents", override: domain.FeeOverride{DiscountType: domain.DiscountFixed, Value: decimal.RequireFromString("33.333")}, want: "966.67"},
		{name: "fixed above amount", override: domain.FeeOverride{DiscountType: domain.DiscountFixed, Value: decimal.NewFromInt(1200)}, want: "0"},
		{name: "unknown type", override: domain.FeeOverride{DiscountType: "BOGUS", Value: decimal.NewFromInt(10)}, want: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.override.Apply(amount)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFeeOverride_AppliesTo(t *testing.T) {
	assert.True(t, domain.FeeOverride{}.AppliesTo("fs-1"))
	assert.True(t, domain.FeeOverride{FeeStructureID: "fs-1"}.AppliesTo("fs-1"))
	assert.False(t, domain.FeeOverride{FeeStructureID: "fs-2"}.AppliesTo("fs-1"))
}

func TestPayment_Validate(t *testing.T) {
	ref := "TXN-42"
	blank := " "
	tests := []struct {
		name       string
		payment    domain.Payment
		constraint string
	}{
		{name: "cash without reference", payment: domain.Payment{Amount: decimal.NewFromInt(10), PaymentMethod: domain.MethodCash}},
		{name: "card with reference", payment: domain.Payment{Amount: decimal.NewFromInt(10), PaymentMethod: domain.MethodCard, TransactionRef: &ref}},
		{name: "zero amount", payment: domain.Payment{Amount: decimal.Zero, PaymentMethod: domain.MethodCash}, constraint: "amount_positive"},
		{name: "sub cent amount", payment: domain.Payment{Amount: decimal.RequireFromString("10.001"), PaymentMethod: domain.MethodCash}, constraint: "amount_precision"},
		{name: "unknown method", payment: domain.Payment{Amount: decimal.NewFromInt(10), PaymentMethod: "BARTER"}, constraint: "payment_method_invalid"},
		{name: "cheque without reference", payment: domain.Payment{Amount: decimal.NewFromInt(10), PaymentMethod: domain.MethodCheque}, constraint: "transaction_ref_required"},
		{name: "transfer with blank reference", payment: domain.Payment{Amount: decimal.NewFromInt(10), PaymentMethod: domain.MethodBankTransfer, TransactionRef: &blank}, constraint: "transaction_ref_required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payment.Validate()
			if tt.constraint == "" {
				assert.NoError(t, err)
				return
			}
			var ledgerErr *apperrors.LedgerError
			require.ErrorAs(t, err, &ledgerErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.constraint, ledgerErr.Constraint)
		})
	}
}

func TestFormatReceiptNumber(t *testing.T) {
	assert.Equal(t, "RC-2025-000123", domain.FormatReceiptNumber("RC", 2025, 123))
	assert.Equal(t, "SCH-2026-1234567", domain.FormatReceiptNumber("SCH", 2026, 1234567))
}
