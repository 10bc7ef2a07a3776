package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"text/template"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/utils"
)

const receiptRule = "------------------------------------------------"

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": utils.FormatAmount,
	"date":  func(t time.Time) string { return t.UTC().Format(time.DateOnly) },
	"rule":  func() string { return receiptRule },
}).Parse(`FEE RECEIPT
{{- if eq .Status "REVERSED"}}
*** REVERSED ***{{with .ReversalReason}} {{.}}{{end}}
{{- end}}
Receipt No : {{.ReceiptNumber}}
Date       : {{date .PaymentDate}}
Student    : {{.StudentName}}{{with .AdmissionNo}} ({{.}}){{end}}
Method     : {{.PaymentMethod}}{{with .TransactionRef}} ref {{.}}{{end}}
{{rule}}
{{range .Lines}}{{printf "%-22s %-10s %14s" .FeeCategory .BillingPeriod (money .Amount)}}
{{end}}{{rule}}
{{printf "%-33s %14s" "TOTAL" (money .Amount)}}
{{- with .Remarks}}
Remarks    : {{.}}
{{- end}}
`))

// receiptService assembles and renders receipts. It only reads.
type receiptService struct {
	BaseService
	paymentRepo    portsrepo.PaymentReader
	studentFeeRepo portsrepo.StudentFeeReader
	catalogRepo    portsrepo.FeeCatalogReader
	students       portsrepo.StudentDirectory
}

// NewReceiptService creates a new receipt issuer read side.
func NewReceiptService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.ReceiptSvc {
	svc := &receiptService{
		paymentRepo:    repos.PaymentRepo,
		studentFeeRepo: repos.StudentFeeRepo,
		catalogRepo:    repos.FeeCatalogRepo,
		students:       repos.EnrolmentRepo,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.ReceiptSvc = (*receiptService)(nil)

func (s *receiptService) GetReceipt(ctx context.Context, paymentID string) (*domain.Receipt, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("payment", "payment "+paymentID+" not found")
		}
		s.LogError(ctx, err, "Failed to load payment for receipt", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	student, err := s.students.FindStudentByID(ctx, payment.StudentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load student for receipt", slog.String("payment_id", paymentID), slog.String("student_id", payment.StudentID))
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	feeIDs := make([]string, len(payment.Allocations))
	for i, a := range payment.Allocations {
		feeIDs[i] = a.StudentFeeID
	}
	fees, err := s.studentFeeRepo.FindStudentFeesByIDs(ctx, feeIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to load charges for receipt", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to load charges: %w", err)
	}

	categoryIDs := make([]string, 0, len(fees))
	for _, f := range fees {
		categoryIDs = append(categoryIDs, f.FeeCategoryID)
	}
	categories, err := s.catalogRepo.FindFeeCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to load fee categories for receipt", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to load fee categories: %w", err)
	}

	receipt := domain.Receipt{
		ReceiptNumber: payment.ReceiptNumber,
		PaymentID:     payment.PaymentID,
		StudentID:     payment.StudentID,
		StudentName:   student.Name,
		AdmissionNo:   student.AdmissionNumber,
		PaymentDate:   payment.PaymentDate,
		PaymentMethod: payment.PaymentMethod,
		Amount:        payment.Amount,
		Status:        payment.Status,
		Remarks:       payment.Remarks,
		Lines:         make([]domain.ReceiptLine, 0, len(payment.Allocations)),
	}
	if payment.TransactionRef != nil {
		receipt.TransactionRef = *payment.TransactionRef
	}
	if payment.ReversalReason != nil {
		receipt.ReversalReason = *payment.ReversalReason
	}

	for _, a := range payment.Allocations {
		line := domain.ReceiptLine{StudentFeeID: a.StudentFeeID, Amount: a.Amount, FeeCategory: "Fee"}
		if fee, ok := fees[a.StudentFeeID]; ok {
			line.BillingPeriod = fee.BillingPeriod
			line.DueDate = fee.DueDate
			if cat, ok := categories[fee.FeeCategoryID]; ok {
				line.FeeCategory = cat.Name
			}
		}
		receipt.Lines = append(receipt.Lines, line)
	}
	sort.Slice(receipt.Lines, func(i, j int) bool {
		a, b := receipt.Lines[i], receipt.Lines[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.StudentFeeID < b.StudentFeeID
	})

	return &receipt, nil
}

func (s *receiptService) RenderReceipt(ctx context.Context, paymentID string) ([]byte, error) {
	receipt, err := s.GetReceipt(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return RenderReceiptText(receipt)
}

// RenderReceiptText renders a receipt as a fixed-width text document.
func RenderReceiptText(receipt *domain.Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, receipt); err != nil {
		return nil, fmt.Errorf("failed to render receipt %s: %w", receipt.ReceiptNumber, err)
	}
	return buf.Bytes(), nil
}
