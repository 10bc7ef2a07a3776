package services

import (
	"context"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
)

// FeeCatalogReaderSvc defines read operations on the fee catalog
type FeeCatalogReaderSvc interface {
	// ListFeeCategories lists fee categories, optionally only the active ones.
	ListFeeCategories(ctx context.Context, activeOnly bool) ([]domain.FeeCategory, error)

	// ListFeeStructures lists the fee structures of an academic year, optionally for one class.
	ListFeeStructures(ctx context.Context, academicYearID string, classID string) ([]domain.FeeStructure, error)
}

// FeeCatalogWriterSvc defines write operations on the fee catalog
type FeeCatalogWriterSvc interface {
	// CreateFeeCategory creates a new fee category with a unique code.
	CreateFeeCategory(ctx context.Context, req dto.CreateFeeCategoryRequest, userID string) (*domain.FeeCategory, error)

	// CreateFeeStructure creates a fee structure for a class in an academic year.
	CreateFeeStructure(ctx context.Context, req dto.CreateFeeStructureRequest, userID string) (*domain.FeeStructure, error)

	// DeactivateFeeStructure stops a structure from generating new charges. Existing charges are untouched.
	DeactivateFeeStructure(ctx context.Context, feeStructureID string, userID string) error
}

// FeeCatalogSvcFacade combines all fee catalog service interfaces
type FeeCatalogSvcFacade interface {
	FeeCatalogReaderSvc
	FeeCatalogWriterSvc
}

// ObligationSvc turns fee structures into per-student charges.
type ObligationSvc interface {
	// GenerateObligations creates the missing charges for the scope. Re-running it creates nothing new.
	GenerateObligations(ctx context.Context, scope domain.GenerationScope, userID string) (*domain.GenerationResult, error)
}
