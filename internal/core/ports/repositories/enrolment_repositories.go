package repositories

import (
	"context"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

// AcademicYearReader resolves academic years.
type AcademicYearReader interface {
	FindAcademicYearByID(ctx context.Context, academicYearID string) (*domain.AcademicYear, error)
}

// StudentDirectory is the read-only view of enrolment owned by the admissions side.
type StudentDirectory interface {
	// FindStudentByID retrieves a student regardless of enrolment state.
	FindStudentByID(ctx context.Context, studentID string) (*domain.Student, error)

	// ListActiveStudents lists students enrolled in the academic year. An empty classID means all classes.
	ListActiveStudents(ctx context.Context, academicYearID string, classID string) ([]domain.Student, error)
}

// FeeOverrideReader loads scholarships and discounts.
type FeeOverrideReader interface {
	// ListFeeOverrides returns the overrides of the given students.
	ListFeeOverrides(ctx context.Context, studentIDs []string) ([]domain.FeeOverride, error)
}

// EnrolmentRepositoryFacade combines the enrolment-facing read interfaces
type EnrolmentRepositoryFacade interface {
	AcademicYearReader
	StudentDirectory
	FeeOverrideReader
}
