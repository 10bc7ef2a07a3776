package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxFeeCatalogRepository implements the fee catalog repository interfaces using pgx.
type PgxFeeCatalogRepository struct {
	BaseRepository
}

func newPgxFeeCatalogRepository(pool *pgxpool.Pool) portsrepo.FeeCatalogRepositoryFacade {
	return &PgxFeeCatalogRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FeeCatalogRepositoryFacade = (*PgxFeeCatalogRepository)(nil)

const feeCategoryColumns = `fee_category_id, name, code, is_mandatory, is_active,
	created_at, created_by, last_updated_at, last_updated_by, version`

const feeStructureColumns = `fee_structure_id, academic_year_id, class_id, fee_category_id, amount, frequency, due_day, is_active,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanFeeCategory(row pgx.Row) (domain.FeeCategory, error) {
	var c domain.FeeCategory
	err := row.Scan(&c.FeeCategoryID, &c.Name, &c.Code, &c.IsMandatory, &c.IsActive,
		&c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy, &c.Version)
	return c, err
}

func scanFeeStructure(row pgx.Row) (domain.FeeStructure, error) {
	var fs domain.FeeStructure
	var frequency string
	err := row.Scan(&fs.FeeStructureID, &fs.AcademicYearID, &fs.ClassID, &fs.FeeCategoryID, &fs.Amount, &frequency, &fs.DueDay, &fs.IsActive,
		&fs.CreatedAt, &fs.CreatedBy, &fs.LastUpdatedAt, &fs.LastUpdatedBy, &fs.Version)
	fs.Frequency = domain.Frequency(frequency)
	return fs, err
}

// SaveFeeCategory inserts a new fee category. The code is unique case-insensitively.
func (r *PgxFeeCatalogRepository) SaveFeeCategory(ctx context.Context, category domain.FeeCategory) error {
	query := `INSERT INTO fee_categories (` + feeCategoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err := r.Pool.Exec(ctx, query,
		category.FeeCategoryID, category.Name, category.Code, category.IsMandatory, category.IsActive,
		category.CreatedAt, category.CreatedBy, category.LastUpdatedAt, category.LastUpdatedBy, category.Version)
	if err != nil {
		if mapped := mapPgError(err); errors.Is(mapped, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: fee category code %s", apperrors.ErrDuplicate, category.Code)
		}
		return fmt.Errorf("failed to insert fee category %s: %w", category.FeeCategoryID, err)
	}
	return nil
}

// FindFeeCategoryByID retrieves a fee category by its ID.
func (r *PgxFeeCatalogRepository) FindFeeCategoryByID(ctx context.Context, feeCategoryID string) (*domain.FeeCategory, error) {
	query := `SELECT ` + feeCategoryColumns + ` FROM fee_categories WHERE fee_category_id = $1;`
	category, err := scanFeeCategory(r.Pool.QueryRow(ctx, query, feeCategoryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fee category by ID %s: %w", feeCategoryID, err)
	}
	return &category, nil
}

// FindFeeCategoriesByIDs retrieves multiple fee categories by their IDs.
func (r *PgxFeeCatalogRepository) FindFeeCategoriesByIDs(ctx context.Context, feeCategoryIDs []string) (map[string]domain.FeeCategory, error) {
	result := make(map[string]domain.FeeCategory, len(feeCategoryIDs))
	if len(feeCategoryIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + feeCategoryColumns + ` FROM fee_categories WHERE fee_category_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, feeCategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee categories by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanFeeCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee category: %w", err)
		}
		result[c.FeeCategoryID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee category rows: %w", err)
	}
	return result, nil
}

// ListFeeCategories lists fee categories ordered by code.
func (r *PgxFeeCatalogRepository) ListFeeCategories(ctx context.Context, activeOnly bool) ([]domain.FeeCategory, error) {
	query := `SELECT ` + feeCategoryColumns + ` FROM fee_categories
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY code;`
	rows, err := r.Pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list fee categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.FeeCategory{}
	for rows.Next() {
		c, err := scanFeeCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee category rows: %w", err)
	}
	return categories, nil
}

// SaveFeeStructure inserts a new fee structure.
func (r *PgxFeeCatalogRepository) SaveFeeStructure(ctx context.Context, structure domain.FeeStructure) error {
	query := `INSERT INTO fee_structures (` + feeStructureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`
	_, err := r.Pool.Exec(ctx, query,
		structure.FeeStructureID, structure.AcademicYearID, structure.ClassID, structure.FeeCategoryID,
		structure.Amount, string(structure.Frequency), structure.DueDay, structure.IsActive,
		structure.CreatedAt, structure.CreatedBy, structure.LastUpdatedAt, structure.LastUpdatedBy, structure.Version)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil && (errors.Is(mapped, apperrors.ErrDuplicate) || errors.Is(mapped, apperrors.ErrNotFound)) {
			return fmt.Errorf("failed to insert fee structure %s: %w", structure.FeeStructureID, mapped)
		}
		return fmt.Errorf("failed to insert fee structure %s: %w", structure.FeeStructureID, err)
	}
	return nil
}

// FindFeeStructureByID retrieves a fee structure by its ID.
func (r *PgxFeeCatalogRepository) FindFeeStructureByID(ctx context.Context, feeStructureID string) (*domain.FeeStructure, error) {
	query := `SELECT ` + feeStructureColumns + ` FROM fee_structures WHERE fee_structure_id = $1;`
	structure, err := scanFeeStructure(r.Pool.QueryRow(ctx, query, feeStructureID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fee structure by ID %s: %w", feeStructureID, err)
	}
	return &structure, nil
}

// ListFeeStructures lists the structures of an academic year, optionally narrowed to a class.
func (r *PgxFeeCatalogRepository) ListFeeStructures(ctx context.Context, academicYearID string, classID string, activeOnly bool) ([]domain.FeeStructure, error) {
	query := `SELECT ` + feeStructureColumns + ` FROM fee_structures
		WHERE academic_year_id = $1
			AND ($2 = '' OR class_id = $2)
			AND ($3 = FALSE OR is_active = TRUE)
		ORDER BY class_id, fee_structure_id;`
	rows, err := r.Pool.Query(ctx, query, academicYearID, classID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list fee structures for year %s: %w", academicYearID, err)
	}
	defer rows.Close()

	structures := []domain.FeeStructure{}
	for rows.Next() {
		fs, err := scanFeeStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee structure: %w", err)
		}
		structures = append(structures, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee structure rows: %w", err)
	}
	return structures, nil
}

// DeactivateFeeStructure marks a structure inactive.
func (r *PgxFeeCatalogRepository) DeactivateFeeStructure(ctx context.Context, feeStructureID string, userID string, now time.Time) error {
	query := `UPDATE fee_structures
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3, version = version + 1
		WHERE fee_structure_id = $1;`
	cmdTag, err := r.Pool.Exec(ctx, query, feeStructureID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate fee structure %s: %w", feeStructureID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
