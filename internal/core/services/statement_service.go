package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
)

// statementService projects charges and payments into a running-balance statement.
type statementService struct {
	BaseService
	studentFeeRepo portsrepo.StudentFeeReader
	paymentRepo    portsrepo.PaymentReader
	catalogRepo    portsrepo.FeeCatalogReader
	students       portsrepo.StudentDirectory
}

// NewStatementService creates a new statement projector.
func NewStatementService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.StatementSvc {
	svc := &statementService{
		studentFeeRepo: repos.StudentFeeRepo,
		paymentRepo:    repos.PaymentRepo,
		catalogRepo:    repos.FeeCatalogRepo,
		students:       repos.EnrolmentRepo,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.StatementSvc = (*statementService)(nil)

// GetStatement merges the student's charges (debits), completed payments and waivers (credits).
// The running balance is computed oldest first and the entries are returned newest first.
func (s *statementService) GetStatement(ctx context.Context, studentID string) (*domain.Statement, error) {
	if _, err := s.students.FindStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("student", "student "+studentID+" not found")
		}
		s.LogError(ctx, err, "Failed to load student", slog.String("student_id", studentID))
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	fees, err := s.studentFeeRepo.ListStudentFeesByStudent(ctx, studentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list charges for statement", slog.String("student_id", studentID))
		return nil, fmt.Errorf("failed to list charges: %w", err)
	}
	payments, err := s.paymentRepo.ListPaymentsByStudent(ctx, studentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list payments for statement", slog.String("student_id", studentID))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	categoryIDs := make([]string, 0, len(fees))
	for _, f := range fees {
		categoryIDs = append(categoryIDs, f.FeeCategoryID)
	}
	categories, err := s.catalogRepo.FindFeeCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to load fee categories for statement", slog.String("student_id", studentID))
		return nil, fmt.Errorf("failed to load fee categories: %w", err)
	}

	statement := BuildStatement(studentID, fees, payments, categories)
	statement.GeneratedAt = s.CurrentTime()
	return statement, nil
}

// BuildStatement is the pure projection behind GetStatement. Waived amounts post as credits, so
// the closing balance is total fees minus collected minus waived, which is the sum of the
// charges' balances. Every entry's running balance equals the debits minus credits up to it.
func BuildStatement(studentID string, fees []domain.StudentFee, payments []domain.Payment, categories map[string]domain.FeeCategory) *domain.Statement {
	entries := make([]domain.StatementEntry, 0, len(fees)+len(payments))
	for _, f := range fees {
		name := "Fee"
		if cat, ok := categories[f.FeeCategoryID]; ok {
			name = cat.Name
		}
		entries = append(entries, domain.StatementEntry{
			EntryType:   domain.Debit,
			Date:        f.DueDate,
			Reference:   f.StudentFeeID,
			SourceID:    f.StudentFeeID,
			Description: name + " " + f.BillingPeriod,
			Debit:       f.TotalAmount,
			Credit:      decimal.Zero,
			CreatedAt:   f.CreatedAt,
		})
		if f.WaivedAmount.IsPositive() {
			reason := ""
			if f.WaiverReason != nil {
				reason = ": " + *f.WaiverReason
			}
			entries = append(entries, domain.StatementEntry{
				EntryType:   domain.Credit,
				Date:        f.LastUpdatedAt,
				Reference:   "WAIVER",
				SourceID:    f.StudentFeeID,
				Description: "Waiver " + name + " " + f.BillingPeriod + reason,
				Debit:       decimal.Zero,
				Credit:      f.WaivedAmount,
				CreatedAt:   f.LastUpdatedAt,
			})
		}
	}
	for _, p := range payments {
		if p.Status != domain.PaymentCompleted {
			continue
		}
		entries = append(entries, domain.StatementEntry{
			EntryType:   domain.Credit,
			Date:        p.PaymentDate,
			Reference:   p.ReceiptNumber,
			SourceID:    p.PaymentID,
			Description: "Payment " + string(p.PaymentMethod),
			Debit:       decimal.Zero,
			Credit:      p.Amount,
			CreatedAt:   p.CreatedAt,
		})
	}

	// ties keep insertion order: charges before the payments settling them
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	statement := &domain.Statement{
		StudentID:    studentID,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	running := decimal.Zero
	for i := range entries {
		running = running.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].RunningBalance = running
		statement.TotalDebits = statement.TotalDebits.Add(entries[i].Debit)
		statement.TotalCredits = statement.TotalCredits.Add(entries[i].Credit)
	}
	statement.ClosingBalance = running

	slices.Reverse(entries)
	statement.Entries = entries
	return statement
}
