package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxEnrolmentRepository reads academic years, students and fee overrides.
// These tables are owned by admissions; the ledger never writes them.
type PgxEnrolmentRepository struct {
	BaseRepository
}

func newPgxEnrolmentRepository(pool *pgxpool.Pool) portsrepo.EnrolmentRepositoryFacade {
	return &PgxEnrolmentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EnrolmentRepositoryFacade = (*PgxEnrolmentRepository)(nil)

const studentColumns = `student_id, admission_number, name, class_id, academic_year_id, is_active`

func scanStudent(row pgx.Row) (domain.Student, error) {
	var s domain.Student
	err := row.Scan(&s.StudentID, &s.AdmissionNumber, &s.Name, &s.ClassID, &s.AcademicYearID, &s.IsActive)
	return s, err
}

func (r *PgxEnrolmentRepository) FindAcademicYearByID(ctx context.Context, academicYearID string) (*domain.AcademicYear, error) {
	query := `SELECT academic_year_id, name, start_date, end_date FROM academic_years WHERE academic_year_id = $1;`
	var y domain.AcademicYear
	err := r.Pool.QueryRow(ctx, query, academicYearID).Scan(&y.AcademicYearID, &y.Name, &y.StartDate, &y.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find academic year %s: %w", academicYearID, err)
	}
	y.StartDate = y.StartDate.UTC()
	y.EndDate = y.EndDate.UTC()
	return &y, nil
}

func (r *PgxEnrolmentRepository) FindStudentByID(ctx context.Context, studentID string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_id = $1;`
	s, err := scanStudent(r.Pool.QueryRow(ctx, query, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find student %s: %w", studentID, err)
	}
	return &s, nil
}

func (r *PgxEnrolmentRepository) ListActiveStudents(ctx context.Context, academicYearID string, classID string) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE is_active = TRUE AND academic_year_id = $1 AND ($2 = '' OR class_id = $2)
		ORDER BY student_id;`
	rows, err := r.Pool.Query(ctx, query, academicYearID, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students for year %s: %w", academicYearID, err)
	}
	defer rows.Close()

	students := []domain.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}

func (r *PgxEnrolmentRepository) ListFeeOverrides(ctx context.Context, studentIDs []string) ([]domain.FeeOverride, error) {
	if len(studentIDs) == 0 {
		return []domain.FeeOverride{}, nil
	}
	query := `SELECT fee_override_id, student_id, fee_structure_id, discount_type, value, reason
		FROM fee_overrides WHERE student_id = ANY($1)
		ORDER BY student_id, fee_override_id;`
	rows, err := r.Pool.Query(ctx, query, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list fee overrides: %w", err)
	}
	defer rows.Close()

	overrides := []domain.FeeOverride{}
	for rows.Next() {
		var o domain.FeeOverride
		var structureID sql.NullString
		var discountType string
		if err := rows.Scan(&o.FeeOverrideID, &o.StudentID, &structureID, &discountType, &o.Value, &o.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan fee override: %w", err)
		}
		o.FeeStructureID = structureID.String
		o.DiscountType = domain.DiscountType(discountType)
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee override rows: %w", err)
	}
	return overrides, nil
}
