package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
)

const generationBatchSize = 500

// obligationService expands fee structures into per-student charges.
type obligationService struct {
	BaseService
	catalogRepo    portsrepo.FeeCatalogReader
	enrolmentRepo  portsrepo.EnrolmentRepositoryFacade
	studentFeeRepo portsrepo.StudentFeeWriter
}

// NewObligationService creates a new obligation generator.
func NewObligationService(catalogRepo portsrepo.FeeCatalogReader, enrolmentRepo portsrepo.EnrolmentRepositoryFacade, studentFeeRepo portsrepo.StudentFeeWriter, options ...ServiceOption) portssvc.ObligationSvc {
	svc := &obligationService{
		catalogRepo:    catalogRepo,
		enrolmentRepo:  enrolmentRepo,
		studentFeeRepo: studentFeeRepo,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.ObligationSvc = (*obligationService)(nil)

type generationEvent struct {
	Scope  domain.GenerationScope  `json:"scope"`
	Result domain.GenerationResult `json:"result"`
}

// GenerateObligations creates one charge per (student, structure, billing period) in scope.
// Existing charges are left untouched, so the run can be repeated safely.
func (s *obligationService) GenerateObligations(ctx context.Context, scope domain.GenerationScope, userID string) (*domain.GenerationResult, error) {
	if scope.AcademicYearID == "" {
		return nil, apperrors.NewValidationError("academic_year_required", "academic year is required")
	}

	year, err := s.enrolmentRepo.FindAcademicYearByID(ctx, scope.AcademicYearID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("academic_year", "academic year "+scope.AcademicYearID+" not found")
		}
		s.LogError(ctx, err, "Failed to load academic year", slog.String("academic_year_id", scope.AcademicYearID))
		return nil, fmt.Errorf("failed to load academic year: %w", err)
	}

	students, err := s.studentsInScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	structures, err := s.catalogRepo.ListFeeStructures(ctx, scope.AcademicYearID, scope.ClassID, true)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee structures", slog.String("academic_year_id", scope.AcademicYearID))
		return nil, fmt.Errorf("failed to list fee structures: %w", err)
	}
	structuresByClass := make(map[string][]domain.FeeStructure)
	for _, fs := range structures {
		structuresByClass[fs.ClassID] = append(structuresByClass[fs.ClassID], fs)
	}

	studentIDs := make([]string, len(students))
	for i, st := range students {
		studentIDs[i] = st.StudentID
	}
	overrides, err := s.enrolmentRepo.ListFeeOverrides(ctx, studentIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee overrides", slog.Int("student_count", len(studentIDs)))
		return nil, fmt.Errorf("failed to list fee overrides: %w", err)
	}
	overridesByStudent := make(map[string][]domain.FeeOverride)
	for _, o := range overrides {
		overridesByStudent[o.StudentID] = append(overridesByStudent[o.StudentID], o)
	}

	now := s.CurrentTime()
	var candidates []domain.StudentFee
	for _, student := range students {
		for _, fs := range structuresByClass[student.ClassID] {
			override := pickOverride(overridesByStudent[student.StudentID], fs.FeeStructureID)
			for _, period := range fs.Frequency.Periods(*year, fs.DueDay) {
				candidates = append(candidates, newCharge(student, fs, period, override, userID, now))
			}
		}
	}

	result := domain.GenerationResult{}
	waivedIDs := make(map[string]struct{})
	for _, c := range candidates {
		if c.Status == domain.FeeWaived {
			waivedIDs[c.StudentFeeID] = struct{}{}
		}
	}

	for start := 0; start < len(candidates); start += generationBatchSize {
		end := min(start+generationBatchSize, len(candidates))
		inserted, err := s.studentFeeRepo.InsertStudentFees(ctx, candidates[start:end])
		if err != nil {
			s.LogError(ctx, err, "Failed to insert generated charges",
				slog.String("academic_year_id", scope.AcademicYearID),
				slog.Int("created_so_far", result.Created))
			return nil, fmt.Errorf("failed to insert generated charges: %w", err)
		}
		result.Created += len(inserted)
		for _, id := range inserted {
			if _, ok := waivedIDs[id]; ok {
				result.Waived++
			}
		}
	}
	result.Skipped = len(candidates) - result.Created

	s.LogInfo(ctx, "Obligations generated",
		slog.String("academic_year_id", scope.AcademicYearID),
		slog.String("class_id", scope.ClassID),
		slog.String("student_id", scope.StudentID),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("waived", result.Waived))

	if result.Created > 0 {
		s.PublishEvent(ctx, events.ObligationsGenerated, userID, generationEvent{Scope: scope, Result: result})
	}
	return &result, nil
}

func (s *obligationService) studentsInScope(ctx context.Context, scope domain.GenerationScope) ([]domain.Student, error) {
	if scope.StudentID == "" {
		students, err := s.enrolmentRepo.ListActiveStudents(ctx, scope.AcademicYearID, scope.ClassID)
		if err != nil {
			s.LogError(ctx, err, "Failed to list enrolled students", slog.String("academic_year_id", scope.AcademicYearID))
			return nil, fmt.Errorf("failed to list enrolled students: %w", err)
		}
		return students, nil
	}

	student, err := s.enrolmentRepo.FindStudentByID(ctx, scope.StudentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("student", "student "+scope.StudentID+" not found")
		}
		s.LogError(ctx, err, "Failed to load student", slog.String("student_id", scope.StudentID))
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !student.IsActive || student.AcademicYearID != scope.AcademicYearID {
		return nil, apperrors.NewValidationError("student_not_enrolled", "student "+scope.StudentID+" is not actively enrolled in the academic year")
	}
	if scope.ClassID != "" && student.ClassID != scope.ClassID {
		return nil, apperrors.NewValidationError("student_class_mismatch", "student "+scope.StudentID+" is not in class "+scope.ClassID)
	}
	return []domain.Student{*student}, nil
}

// pickOverride prefers an override for the exact structure over a blanket one.
func pickOverride(overrides []domain.FeeOverride, feeStructureID string) *domain.FeeOverride {
	var blanket *domain.FeeOverride
	for i := range overrides {
		o := &overrides[i]
		if o.FeeStructureID == feeStructureID {
			return o
		}
		if blanket == nil && o.AppliesTo(feeStructureID) {
			blanket = o
		}
	}
	return blanket
}

func newCharge(student domain.Student, fs domain.FeeStructure, period domain.BillingPeriod, override *domain.FeeOverride, userID string, now time.Time) domain.StudentFee {
	amount := fs.Amount
	if override != nil {
		amount = override.Apply(amount)
	}

	fee := domain.StudentFee{
		StudentFeeID:   uuid.NewString(),
		StudentID:      student.StudentID,
		FeeStructureID: fs.FeeStructureID,
		FeeCategoryID:  fs.FeeCategoryID,
		AcademicYearID: fs.AcademicYearID,
		BillingPeriod:  period.Key,
		DueDate:        period.DueDate,
		TotalAmount:    amount,
		PaidAmount:     decimal.Zero,
		WaivedAmount:   decimal.Zero,
		Status:         domain.FeePending,
		AuditFields:    domain.NewAuditFields(userID, now),
	}

	if amount.IsZero() {
		reason := "fully discounted"
		if override != nil && override.Reason != "" {
			reason = override.Reason
		}
		fee.Status = domain.FeeWaived
		fee.WaiverReason = &reason
	}
	fee.Recompute(now)
	return fee
}
