package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/core/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/repositories/memory"
)

func newCatalogFixture(t *testing.T) (*memory.Store, *domain.FeeCategory, func(dto.CreateFeeStructureRequest) (*domain.FeeStructure, error)) {
	t.Helper()
	store := memory.NewStore()
	store.AddAcademicYear(domain.AcademicYear{
		AcademicYearID: "ay-1",
		StartDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	svc := services.NewFeeCatalogService(store, store)
	category, err := svc.CreateFeeCategory(context.Background(), dto.CreateFeeCategoryRequest{Name: "Transport", Code: " bus "}, "u1")
	require.NoError(t, err)
	create := func(req dto.CreateFeeStructureRequest) (*domain.FeeStructure, error) {
		return svc.CreateFeeStructure(context.Background(), req, "u1")
	}
	return store, category, create
}

func TestCreateFeeCategory_NormalizesAndRejectsDuplicateCode(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewFeeCatalogService(store, store)
	ctx := context.Background()

	category, err := svc.CreateFeeCategory(ctx, dto.CreateFeeCategoryRequest{Name: "Library", Code: " lib "}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "LIB", category.Code)
	assert.True(t, category.IsActive)

	_, err = svc.CreateFeeCategory(ctx, dto.CreateFeeCategoryRequest{Name: "Library again", Code: "LIB"}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = svc.CreateFeeCategory(ctx, dto.CreateFeeCategoryRequest{Name: "  ", Code: "X"}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	categories, err := svc.ListFeeCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCreateFeeStructure_Validation(t *testing.T) {
	_, category, create := newCatalogFixture(t)
	valid := dto.CreateFeeStructureRequest{
		AcademicYearID: "ay-1",
		ClassID:        "grade-1",
		FeeCategoryID:  category.FeeCategoryID,
		Amount:         decimal.RequireFromString("250.50"),
		Frequency:      "MONTHLY",
		DueDay:         5,
	}

	tests := []struct {
		name      string
		mutate    func(r *dto.CreateFeeStructureRequest)
		wantErr   error
		wantConst string
	}{
		{"zero amount", func(r *dto.CreateFeeStructureRequest) { r.Amount = decimal.Zero }, apperrors.ErrValidation, "fee_structure_amount_positive"},
		{"sub cent amount", func(r *dto.CreateFeeStructureRequest) { r.Amount = decimal.RequireFromString("1.001") }, apperrors.ErrValidation, "fee_structure_amount_precision"},
		{"bad frequency", func(r *dto.CreateFeeStructureRequest) { r.Frequency = "WEEKLY" }, apperrors.ErrValidation, "fee_structure_frequency"},
		{"bad due day", func(r *dto.CreateFeeStructureRequest) { r.DueDay = 32 }, apperrors.ErrValidation, "fee_structure_due_day"},
		{"unknown year", func(r *dto.CreateFeeStructureRequest) { r.AcademicYearID = "ay-x" }, apperrors.ErrNotFound, "academic_year"},
		{"unknown category", func(r *dto.CreateFeeStructureRequest) { r.FeeCategoryID = "cat-x" }, apperrors.ErrNotFound, "fee_category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := create(req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantConst, constraintOf(err))
		})
	}

	structure, err := create(valid)
	require.NoError(t, err)
	assert.Equal(t, domain.Monthly, structure.Frequency)
	assert.True(t, structure.IsActive)
}

func TestDeactivateFeeStructure_StopsGeneration(t *testing.T) {
	store, category, create := newCatalogFixture(t)
	ctx := context.Background()
	store.AddStudent(domain.Student{StudentID: "s1", ClassID: "grade-1", AcademicYearID: "ay-1", IsActive: true})

	structure, err := create(dto.CreateFeeStructureRequest{
		AcademicYearID: "ay-1", ClassID: "grade-1", FeeCategoryID: category.FeeCategoryID,
		Amount: decimal.NewFromInt(100), Frequency: "QUARTERLY", DueDay: 31,
	})
	require.NoError(t, err)

	catalog := services.NewFeeCatalogService(store, store)
	require.NoError(t, catalog.DeactivateFeeStructure(ctx, structure.FeeStructureID, "u1"))
	assert.ErrorIs(t, catalog.DeactivateFeeStructure(ctx, "missing", "u1"), apperrors.ErrNotFound)

	generator := services.NewObligationService(store, store, store)
	result, err := generator.GenerateObligations(ctx, domain.GenerationScope{AcademicYearID: "ay-1"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
}

func TestGenerateObligations_QuarterlyPeriodsAndOverrides(t *testing.T) {
	store, category, create := newCatalogFixture(t)
	ctx := context.Background()
	store.AddStudent(domain.Student{StudentID: "s1", ClassID: "grade-1", AcademicYearID: "ay-1", IsActive: true})
	store.AddStudent(domain.Student{StudentID: "s2", ClassID: "grade-1", AcademicYearID: "ay-1", IsActive: true})
	store.AddStudent(domain.Student{StudentID: "s3", ClassID: "grade-1", AcademicYearID: "ay-1", IsActive: false})

	structure, err := create(dto.CreateFeeStructureRequest{
		AcademicYearID: "ay-1", ClassID: "grade-1", FeeCategoryID: category.FeeCategoryID,
		Amount: decimal.NewFromInt(1000), Frequency: "QUARTERLY", DueDay: 31,
	})
	require.NoError(t, err)

	// the structure-specific override wins over the blanket one
	store.AddFeeOverride(domain.FeeOverride{FeeOverrideID: "o1", StudentID: "s2", DiscountType: domain.DiscountPercentage, Value: decimal.NewFromInt(50)})
	store.AddFeeOverride(domain.FeeOverride{FeeOverrideID: "o2", StudentID: "s2", FeeStructureID: structure.FeeStructureID, DiscountType: domain.DiscountFixed, Value: decimal.NewFromInt(100)})

	generator := services.NewObligationService(store, store, store)
	result, err := generator.GenerateObligations(ctx, domain.GenerationScope{AcademicYearID: "ay-1", ClassID: "grade-1"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 8, result.Created)
	assert.Equal(t, 0, result.Skipped)

	s1, err := store.ListStudentFeesByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 4)
	assert.Equal(t, "2025-04", s1[0].BillingPeriod)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), s1[0].DueDate, "due day is clamped to the month length")
	assert.Equal(t, "2026-01", s1[3].BillingPeriod)

	s2, err := store.ListStudentFeesByStudent(ctx, "s2")
	require.NoError(t, err)
	for _, f := range s2 {
		assert.True(t, f.TotalAmount.Equal(decimal.NewFromInt(900)), "got %s", f.TotalAmount)
	}

	s3, err := store.ListStudentFeesByStudent(ctx, "s3")
	require.NoError(t, err)
	assert.Empty(t, s3)

	_, err = generator.GenerateObligations(ctx, domain.GenerationScope{AcademicYearID: "ay-1", StudentID: "s3"}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = generator.GenerateObligations(ctx, domain.GenerationScope{}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = generator.GenerateObligations(ctx, domain.GenerationScope{AcademicYearID: "ay-x"}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
