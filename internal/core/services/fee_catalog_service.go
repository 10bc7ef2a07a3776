package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/utils"
)

// feeCatalogService manages fee categories and structures.
type feeCatalogService struct {
	BaseService
	catalogRepo portsrepo.FeeCatalogRepositoryFacade
	yearRepo    portsrepo.AcademicYearReader
}

// NewFeeCatalogService creates a new fee catalog service.
func NewFeeCatalogService(catalogRepo portsrepo.FeeCatalogRepositoryFacade, yearRepo portsrepo.AcademicYearReader, options ...ServiceOption) portssvc.FeeCatalogSvcFacade {
	svc := &feeCatalogService{
		catalogRepo: catalogRepo,
		yearRepo:    yearRepo,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.FeeCatalogSvcFacade = (*feeCatalogService)(nil)

func (s *feeCatalogService) CreateFeeCategory(ctx context.Context, req dto.CreateFeeCategoryRequest, userID string) (*domain.FeeCategory, error) {
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if name == "" || code == "" {
		return nil, apperrors.NewValidationError("fee_category_fields_required", "fee category name and code are required")
	}

	category := domain.FeeCategory{
		FeeCategoryID: uuid.NewString(),
		Name:          name,
		Code:          code,
		IsMandatory:   req.IsMandatory,
		IsActive:      true,
		AuditFields:   domain.NewAuditFields(userID, s.CurrentTime()),
	}

	if err := s.catalogRepo.SaveFeeCategory(ctx, category); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, err, "Fee category code already exists", slog.String("code", code))
			return nil, fmt.Errorf("%w: fee category code %s already exists", apperrors.ErrDuplicate, code)
		}
		s.LogError(ctx, err, "Failed to save fee category", slog.String("code", code))
		return nil, fmt.Errorf("failed to create fee category: %w", err)
	}

	s.LogInfo(ctx, "Fee category created", slog.String("fee_category_id", category.FeeCategoryID), slog.String("code", code))
	return &category, nil
}

func (s *feeCatalogService) ListFeeCategories(ctx context.Context, activeOnly bool) ([]domain.FeeCategory, error) {
	categories, err := s.catalogRepo.ListFeeCategories(ctx, activeOnly)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee categories")
		return nil, fmt.Errorf("failed to list fee categories: %w", err)
	}
	if categories == nil {
		return []domain.FeeCategory{}, nil
	}
	return categories, nil
}

func (s *feeCatalogService) CreateFeeStructure(ctx context.Context, req dto.CreateFeeStructureRequest, userID string) (*domain.FeeStructure, error) {
	frequency := domain.Frequency(req.Frequency)
	switch {
	case !req.Amount.IsPositive():
		return nil, apperrors.NewValidationError("fee_structure_amount_positive", "fee structure amount must be greater than zero")
	case !utils.HasAmountPrecision(req.Amount):
		return nil, apperrors.NewValidationError("fee_structure_amount_precision", "fee structure amount has more than two decimal places")
	case !frequency.IsValid():
		return nil, apperrors.NewValidationError("fee_structure_frequency", "unsupported frequency "+req.Frequency)
	case req.DueDay < 1 || req.DueDay > 31:
		return nil, apperrors.NewValidationError("fee_structure_due_day", "due day must be between 1 and 31")
	}

	if _, err := s.yearRepo.FindAcademicYearByID(ctx, req.AcademicYearID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("academic_year", "academic year "+req.AcademicYearID+" not found")
		}
		s.LogError(ctx, err, "Failed to load academic year", slog.String("academic_year_id", req.AcademicYearID))
		return nil, fmt.Errorf("failed to load academic year: %w", err)
	}

	category, err := s.catalogRepo.FindFeeCategoryByID(ctx, req.FeeCategoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("fee_category", "fee category "+req.FeeCategoryID+" not found")
		}
		s.LogError(ctx, err, "Failed to load fee category", slog.String("fee_category_id", req.FeeCategoryID))
		return nil, fmt.Errorf("failed to load fee category: %w", err)
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("fee_category_inactive", "fee category "+category.Code+" is inactive")
	}

	structure := domain.FeeStructure{
		FeeStructureID: uuid.NewString(),
		AcademicYearID: req.AcademicYearID,
		ClassID:        req.ClassID,
		FeeCategoryID:  req.FeeCategoryID,
		Amount:         req.Amount,
		Frequency:      frequency,
		DueDay:         req.DueDay,
		IsActive:       true,
		AuditFields:    domain.NewAuditFields(userID, s.CurrentTime()),
	}

	if err := s.catalogRepo.SaveFeeStructure(ctx, structure); err != nil {
		s.LogError(ctx, err, "Failed to save fee structure", slog.String("fee_category_id", req.FeeCategoryID))
		return nil, fmt.Errorf("failed to create fee structure: %w", err)
	}

	s.LogInfo(ctx, "Fee structure created",
		slog.String("fee_structure_id", structure.FeeStructureID),
		slog.String("academic_year_id", structure.AcademicYearID),
		slog.String("class_id", structure.ClassID))
	return &structure, nil
}

func (s *feeCatalogService) ListFeeStructures(ctx context.Context, academicYearID string, classID string) ([]domain.FeeStructure, error) {
	structures, err := s.catalogRepo.ListFeeStructures(ctx, academicYearID, classID, false)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee structures", slog.String("academic_year_id", academicYearID))
		return nil, fmt.Errorf("failed to list fee structures: %w", err)
	}
	if structures == nil {
		return []domain.FeeStructure{}, nil
	}
	return structures, nil
}

func (s *feeCatalogService) DeactivateFeeStructure(ctx context.Context, feeStructureID string, userID string) error {
	err := s.catalogRepo.DeactivateFeeStructure(ctx, feeStructureID, userID, s.CurrentTime())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to deactivate fee structure", slog.String("fee_structure_id", feeStructureID))
		}
		return err
	}
	s.LogInfo(ctx, "Fee structure deactivated", slog.String("fee_structure_id", feeStructureID))
	return nil
}
