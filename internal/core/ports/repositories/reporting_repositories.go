package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReportingRepository defines the aggregate reads behind the financial summary
type ReportingRepository interface {
	// GetFeeTotals sums total, paid, waived and balance amounts of the charges in scope.
	GetFeeTotals(ctx context.Context, scope domain.SummaryScope) (domain.FeeTotals, error)

	// GetCollectedTotal sums money received and not reversed. With an academic year in scope only
	// the allocations against that year's charges count.
	GetCollectedTotal(ctx context.Context, scope domain.SummaryScope) (decimal.Decimal, error)
}

// ExpenseReader exposes the expense figures the summary needs.
type ExpenseReader interface {
	// SumExpenses sums expenses in the given statuses. Nil bounds are open.
	SumExpenses(ctx context.Context, statuses []domain.ExpenseStatus, from, to *time.Time) (decimal.Decimal, error)
}
