package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
)

func (s *Store) FindFeeCategoryByID(_ context.Context, feeCategoryID string) (*domain.FeeCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[feeCategoryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (s *Store) FindFeeCategoriesByIDs(_ context.Context, feeCategoryIDs []string) (map[string]domain.FeeCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]domain.FeeCategory, len(feeCategoryIDs))
	for _, id := range feeCategoryIDs {
		if c, ok := s.categories[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (s *Store) ListFeeCategories(_ context.Context, activeOnly bool) ([]domain.FeeCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.FeeCategory, 0, len(s.categories))
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (s *Store) FindFeeStructureByID(_ context.Context, feeStructureID string) (*domain.FeeStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fs, ok := s.structures[feeStructureID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &fs, nil
}

func (s *Store) ListFeeStructures(_ context.Context, academicYearID string, classID string, activeOnly bool) ([]domain.FeeStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FeeStructure
	for _, fs := range s.structures {
		if fs.AcademicYearID != academicYearID || (classID != "" && fs.ClassID != classID) {
			continue
		}
		if activeOnly && !fs.IsActive {
			continue
		}
		result = append(result, fs)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ClassID != result[j].ClassID {
			return result[i].ClassID < result[j].ClassID
		}
		return result[i].FeeStructureID < result[j].FeeStructureID
	})
	return result, nil
}

func (s *Store) SaveFeeCategory(_ context.Context, category domain.FeeCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Code, category.Code) {
			return fmt.Errorf("%w: fee category code %s", apperrors.ErrDuplicate, category.Code)
		}
	}
	s.categories[category.FeeCategoryID] = category
	return nil
}

func (s *Store) SaveFeeStructure(_ context.Context, structure domain.FeeStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.structures[structure.FeeStructureID]; exists {
		return fmt.Errorf("%w: fee structure %s", apperrors.ErrDuplicate, structure.FeeStructureID)
	}
	s.structures[structure.FeeStructureID] = structure
	return nil
}

func (s *Store) DeactivateFeeStructure(_ context.Context, feeStructureID string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.structures[feeStructureID]
	if !ok {
		return apperrors.ErrNotFound
	}
	fs.IsActive = false
	fs.Touch(userID, now)
	s.structures[feeStructureID] = fs
	return nil
}

func (s *Store) FindAcademicYearByID(_ context.Context, academicYearID string) (*domain.AcademicYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.years[academicYearID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &y, nil
}

func (s *Store) FindStudentByID(_ context.Context, studentID string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[studentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &st, nil
}

func (s *Store) ListActiveStudents(_ context.Context, academicYearID string, classID string) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Student
	for _, st := range s.students {
		if !st.IsActive || st.AcademicYearID != academicYearID || (classID != "" && st.ClassID != classID) {
			continue
		}
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (s *Store) ListFeeOverrides(_ context.Context, studentIDs []string) ([]domain.FeeOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FeeOverride
	for _, o := range s.overrides {
		if slices.Contains(studentIDs, o.StudentID) {
			result = append(result, o)
		}
	}
	return result, nil
}
