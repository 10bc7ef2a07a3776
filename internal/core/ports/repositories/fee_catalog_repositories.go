package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

// FeeCatalogReader defines read operations for fee categories and structures
type FeeCatalogReader interface {
	// FindFeeCategoryByID retrieves a fee category by its id.
	FindFeeCategoryByID(ctx context.Context, feeCategoryID string) (*domain.FeeCategory, error)

	// FindFeeCategoriesByIDs retrieves several categories keyed by id. Missing ids are skipped.
	FindFeeCategoriesByIDs(ctx context.Context, feeCategoryIDs []string) (map[string]domain.FeeCategory, error)

	// ListFeeCategories lists categories ordered by code.
	ListFeeCategories(ctx context.Context, activeOnly bool) ([]domain.FeeCategory, error)

	// FindFeeStructureByID retrieves a fee structure by its id.
	FindFeeStructureByID(ctx context.Context, feeStructureID string) (*domain.FeeStructure, error)

	// ListFeeStructures lists the structures of an academic year. An empty classID means all classes.
	ListFeeStructures(ctx context.Context, academicYearID string, classID string, activeOnly bool) ([]domain.FeeStructure, error)
}

// FeeCatalogWriter defines write operations for fee categories and structures
type FeeCatalogWriter interface {
	// SaveFeeCategory inserts a category. A duplicate code yields apperrors.ErrDuplicate.
	SaveFeeCategory(ctx context.Context, category domain.FeeCategory) error

	// SaveFeeStructure inserts a fee structure.
	SaveFeeStructure(ctx context.Context, structure domain.FeeStructure) error

	// DeactivateFeeStructure stops a structure from generating further charges.
	DeactivateFeeStructure(ctx context.Context, feeStructureID string, userID string, now time.Time) error
}

// FeeCatalogRepositoryFacade combines all fee catalog repository interfaces
type FeeCatalogRepositoryFacade interface {
	FeeCatalogReader
	FeeCatalogWriter
}
