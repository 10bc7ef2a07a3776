package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements the ReportingRepository and ExpenseReader interfaces
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) *reportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var (
	_ portsrepo.ReportingRepository = (*reportingRepository)(nil)
	_ portsrepo.ExpenseReader       = (*reportingRepository)(nil)
)

// GetFeeTotals sums the charge columns for the scope
func (r *reportingRepository) GetFeeTotals(ctx context.Context, scope domain.SummaryScope) (domain.FeeTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(paid_amount), 0),
			COALESCE(SUM(waived_amount), 0),
			COALESCE(SUM(balance_amount), 0)
		FROM student_fees
		WHERE ($1 = '' OR academic_year_id = $1)
			AND ($2 = '' OR student_id = $2)
	`
	var totals domain.FeeTotals
	err := r.Pool.QueryRow(ctx, query, scope.AcademicYearID, scope.StudentID).Scan(
		&totals.TotalFees,
		&totals.TotalPaid,
		&totals.TotalWaived,
		&totals.TotalPending,
	)
	if err != nil {
		return domain.FeeTotals{}, fmt.Errorf("error querying fee totals: %w", err)
	}
	return totals, nil
}

// GetCollectedTotal sums completed payments, or their allocations against one year's charges
func (r *reportingRepository) GetCollectedTotal(ctx context.Context, scope domain.SummaryScope) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		WHERE p.status = 'COMPLETED'
			AND ($1 = '' OR p.student_id = $1)
	`
	args := []any{scope.StudentID}
	if scope.AcademicYearID != "" {
		query = `
			SELECT COALESCE(SUM(a.amount), 0)
			FROM fee_allocations a
			JOIN payments p ON p.payment_id = a.payment_id
			JOIN student_fees f ON f.student_fee_id = a.student_fee_id
			WHERE p.status = 'COMPLETED'
				AND ($1 = '' OR p.student_id = $1)
				AND f.academic_year_id = $2
		`
		args = append(args, scope.AcademicYearID)
	}

	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("error querying collected total: %w", err)
	}
	return total, nil
}

// SumExpenses sums expenses by status within optional date bounds
func (r *reportingRepository) SumExpenses(ctx context.Context, statuses []domain.ExpenseStatus, from, to *time.Time) (decimal.Decimal, error) {
	statusValues := make([]string, len(statuses))
	for i, s := range statuses {
		statusValues[i] = string(s)
	}
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE status = ANY($1)
			AND ($2::timestamptz IS NULL OR expense_date >= $2)
			AND ($3::timestamptz IS NULL OR expense_date <= $3)
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, statusValues, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("error querying expense total: %w", err)
	}
	return total, nil
}
