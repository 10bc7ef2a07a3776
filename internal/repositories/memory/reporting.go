package memory

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

func inScope(f domain.StudentFee, scope domain.SummaryScope) bool {
	if scope.AcademicYearID != "" && f.AcademicYearID != scope.AcademicYearID {
		return false
	}
	return scope.StudentID == "" || f.StudentID == scope.StudentID
}

func (s *Store) GetFeeTotals(_ context.Context, scope domain.SummaryScope) (domain.FeeTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := domain.FeeTotals{
		TotalFees:    decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalWaived:  decimal.Zero,
		TotalPending: decimal.Zero,
	}
	for _, f := range s.fees {
		if !inScope(f, scope) {
			continue
		}
		totals.TotalFees = totals.TotalFees.Add(f.TotalAmount)
		totals.TotalPaid = totals.TotalPaid.Add(f.PaidAmount)
		totals.TotalWaived = totals.TotalWaived.Add(f.WaivedAmount)
		totals.TotalPending = totals.TotalPending.Add(f.BalanceAmount)
	}
	return totals, nil
}

func (s *Store) GetCollectedTotal(_ context.Context, scope domain.SummaryScope) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, p := range s.payments {
		if p.Status != domain.PaymentCompleted {
			continue
		}
		if scope.StudentID != "" && p.StudentID != scope.StudentID {
			continue
		}
		if scope.AcademicYearID == "" {
			total = total.Add(p.Amount)
			continue
		}
		for _, a := range p.Allocations {
			if f, ok := s.fees[a.StudentFeeID]; ok && f.AcademicYearID == scope.AcademicYearID {
				total = total.Add(a.Amount)
			}
		}
	}
	return total, nil
}

func (s *Store) SumExpenses(_ context.Context, statuses []domain.ExpenseStatus, from, to *time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, e := range s.expenses {
		if !slices.Contains(statuses, e.Status) {
			continue
		}
		if from != nil && e.ExpenseDate.Before(*from) {
			continue
		}
		if to != nil && e.ExpenseDate.After(*to) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}
