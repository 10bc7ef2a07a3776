package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/utils"
)

// countedExpenseStatuses are the expense states that reduce the net balance.
var countedExpenseStatuses = []domain.ExpenseStatus{domain.ExpenseApproved, domain.ExpensePaid}

// reportingService computes the financial summary on every call; nothing is cached.
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	expenseRepo   portsrepo.ExpenseReader
	enrolmentRepo portsrepo.EnrolmentRepositoryFacade
}

// NewReportingService creates a new financial summary aggregator.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, expenseRepo portsrepo.ExpenseReader, enrolmentRepo portsrepo.EnrolmentRepositoryFacade, options ...ServiceOption) portssvc.ReportingSvc {
	svc := &reportingService{
		reportingRepo: reportingRepo,
		expenseRepo:   expenseRepo,
		enrolmentRepo: enrolmentRepo,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.ReportingSvc = (*reportingService)(nil)

// GetFinancialSummary sums charges, collections and expenses for the scope.
// Expenses are school-wide, so a student-scoped summary reports none.
func (s *reportingService) GetFinancialSummary(ctx context.Context, scope domain.SummaryScope) (*domain.FinancialSummary, error) {
	var from, to *time.Time
	if scope.AcademicYearID != "" {
		year, err := s.enrolmentRepo.FindAcademicYearByID(ctx, scope.AcademicYearID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewNotFoundError("academic_year", "academic year "+scope.AcademicYearID+" not found")
			}
			s.LogError(ctx, err, "Failed to load academic year", slog.String("academic_year_id", scope.AcademicYearID))
			return nil, fmt.Errorf("failed to load academic year: %w", err)
		}
		// the end date is inclusive
		end := year.EndDate.AddDate(0, 0, 1).Add(-time.Nanosecond)
		from, to = &year.StartDate, &end
	}
	if scope.StudentID != "" {
		if _, err := s.enrolmentRepo.FindStudentByID(ctx, scope.StudentID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewNotFoundError("student", "student "+scope.StudentID+" not found")
			}
			s.LogError(ctx, err, "Failed to load student", slog.String("student_id", scope.StudentID))
			return nil, fmt.Errorf("failed to load student: %w", err)
		}
	}

	totals, err := s.reportingRepo.GetFeeTotals(ctx, scope)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum fee totals", slog.String("academic_year_id", scope.AcademicYearID), slog.String("student_id", scope.StudentID))
		return nil, fmt.Errorf("failed to compute fee totals: %w", err)
	}

	collected, err := s.reportingRepo.GetCollectedTotal(ctx, scope)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum collections", slog.String("academic_year_id", scope.AcademicYearID), slog.String("student_id", scope.StudentID))
		return nil, fmt.Errorf("failed to compute collected total: %w", err)
	}

	expenses := decimal.Zero
	if scope.StudentID == "" {
		expenses, err = s.expenseRepo.SumExpenses(ctx, countedExpenseStatuses, from, to)
		if err != nil {
			s.LogError(ctx, err, "Failed to sum expenses", slog.String("academic_year_id", scope.AcademicYearID))
			return nil, fmt.Errorf("failed to compute expenses: %w", err)
		}
	}

	summary := &domain.FinancialSummary{
		TotalFees:      totals.TotalFees,
		TotalCollected: collected,
		TotalPending:   totals.TotalPending,
		TotalWaived:    totals.TotalWaived,
		TotalExpenses:  expenses,
		NetBalance:     collected.Sub(expenses),
		GeneratedAt:    s.CurrentTime(),
	}

	s.LogDebug(ctx, "Financial summary computed",
		slog.String("academic_year_id", scope.AcademicYearID),
		slog.String("student_id", scope.StudentID),
		slog.String("total_collected", utils.FormatAmount(collected)))
	return summary, nil
}
