package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_fee_ledger/internal/models"
	"github.com/SscSPs/school_fee_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxStudentFeeRepository implements the charge repository interfaces using pgx.
type PgxStudentFeeRepository struct {
	BaseRepository
}

func newPgxStudentFeeRepository(pool *pgxpool.Pool) portsrepo.StudentFeeRepositoryFacade {
	return &PgxStudentFeeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StudentFeeRepositoryFacade = (*PgxStudentFeeRepository)(nil)

const studentFeeColumns = `student_fee_id, student_id, fee_structure_id, fee_category_id, academic_year_id, billing_period, due_date,
	total_amount, paid_amount, waived_amount, balance_amount, status, waiver_reason,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanStudentFee(row pgx.Row) (domain.StudentFee, error) {
	var m models.StudentFee
	err := row.Scan(&m.StudentFeeID, &m.StudentID, &m.FeeStructureID, &m.FeeCategoryID, &m.AcademicYearID, &m.BillingPeriod, &m.DueDate,
		&m.TotalAmount, &m.PaidAmount, &m.WaivedAmount, &m.BalanceAmount, &m.Status, &m.WaiverReason,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version)
	if err != nil {
		return domain.StudentFee{}, err
	}
	return mapping.ToDomainStudentFee(m), nil
}

func collectStudentFees(rows pgx.Rows) ([]domain.StudentFee, error) {
	defer rows.Close()
	fees := []domain.StudentFee{}
	for rows.Next() {
		f, err := scanStudentFee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student fee: %w", err)
		}
		fees = append(fees, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student fee rows: %w", err)
	}
	return fees, nil
}

// FindStudentFeeByID retrieves a charge by its ID.
func (r *PgxStudentFeeRepository) FindStudentFeeByID(ctx context.Context, studentFeeID string) (*domain.StudentFee, error) {
	query := `SELECT ` + studentFeeColumns + ` FROM student_fees WHERE student_fee_id = $1;`
	fee, err := scanStudentFee(r.Pool.QueryRow(ctx, query, studentFeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find student fee by ID %s: %w", studentFeeID, err)
	}
	return &fee, nil
}

// FindStudentFeesByIDs retrieves several charges keyed by ID.
func (r *PgxStudentFeeRepository) FindStudentFeesByIDs(ctx context.Context, studentFeeIDs []string) (map[string]domain.StudentFee, error) {
	result := make(map[string]domain.StudentFee, len(studentFeeIDs))
	if len(studentFeeIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + studentFeeColumns + ` FROM student_fees WHERE student_fee_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, studentFeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query student fees by IDs: %w", err)
	}
	fees, err := collectStudentFees(rows)
	if err != nil {
		return nil, err
	}
	for _, f := range fees {
		result[f.StudentFeeID] = f
	}
	return result, nil
}

// ListStudentFeesByStudent lists a student's charges by due date.
func (r *PgxStudentFeeRepository) ListStudentFeesByStudent(ctx context.Context, studentID string) ([]domain.StudentFee, error) {
	query := `SELECT ` + studentFeeColumns + ` FROM student_fees
		WHERE student_id = $1
		ORDER BY due_date, created_at, student_fee_id;`
	rows, err := r.Pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student fees for %s: %w", studentID, err)
	}
	return collectStudentFees(rows)
}

// InsertStudentFees inserts charges in one batch. Rows whose natural key already exists are skipped
// by the unique constraint, so concurrent generators never double-bill.
func (r *PgxStudentFeeRepository) InsertStudentFees(ctx context.Context, fees []domain.StudentFee) ([]string, error) {
	if len(fees) == 0 {
		return []string{}, nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `INSERT INTO student_fees (` + studentFeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (student_id, fee_structure_id, billing_period) DO NOTHING
		RETURNING student_fee_id;`

	batch := &pgx.Batch{}
	for _, f := range fees {
		m := mapping.ToModelStudentFee(f)
		batch.Queue(query,
			m.StudentFeeID, m.StudentID, m.FeeStructureID, m.FeeCategoryID, m.AcademicYearID, m.BillingPeriod, m.DueDate,
			m.TotalAmount, m.PaidAmount, m.WaivedAmount, m.BalanceAmount, m.Status, m.WaiverReason,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version)
	}

	br := tx.SendBatch(ctx, batch)
	inserted := make([]string, 0, len(fees))
	for range fees {
		var id string
		if err := br.QueryRow().Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			br.Close()
			return nil, fmt.Errorf("failed to insert student fee: %w", mapPgError(err))
		}
		inserted = append(inserted, id)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to close student fee batch: %w", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return inserted, nil
}
