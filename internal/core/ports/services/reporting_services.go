package services

import (
	"context"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

// ReportingSvc defines operations for generating financial reports
type ReportingSvc interface {
	// GetFinancialSummary computes the dashboard totals for the scope on demand.
	GetFinancialSummary(ctx context.Context, scope domain.SummaryScope) (*domain.FinancialSummary, error)
}

// StatementSvc projects a student's charges and payments into a statement.
type StatementSvc interface {
	GetStatement(ctx context.Context, studentID string) (*domain.Statement, error)
}
