// Package memory is an in-process implementation of every repository port.
// It backs the memory store driver and the ledger engine tests.
package memory

import (
	"sync"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
)

// Store keeps all ledger state in maps.
// mu guards the maps; txMu serializes units of work so a locked charge cannot change underneath
// a running transaction; seqMu guards receipt sequences, which commit on their own.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	seqMu sync.Mutex

	years      map[string]domain.AcademicYear
	students   map[string]domain.Student
	overrides  []domain.FeeOverride
	categories map[string]domain.FeeCategory
	structures map[string]domain.FeeStructure

	fees    map[string]domain.StudentFee
	feeKeys map[string]string // natural key -> student fee id

	payments        map[string]domain.Payment
	paymentsByKey   map[string]string // idempotency key -> payment id
	paymentsByRcpt  map[string]string // receipt number -> payment id
	receiptSequence map[int]int64

	expenses []domain.Expense
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		years:           make(map[string]domain.AcademicYear),
		students:        make(map[string]domain.Student),
		categories:      make(map[string]domain.FeeCategory),
		structures:      make(map[string]domain.FeeStructure),
		fees:            make(map[string]domain.StudentFee),
		feeKeys:         make(map[string]string),
		payments:        make(map[string]domain.Payment),
		paymentsByKey:   make(map[string]string),
		paymentsByRcpt:  make(map[string]string),
		receiptSequence: make(map[int]int64),
	}
}

// NewRepositoryProvider wires one store into every repository port.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		FeeCatalogRepo:   store,
		EnrolmentRepo:    store,
		StudentFeeRepo:   store,
		PaymentRepo:      store,
		ReportingRepo:    store,
		ExpenseRepo:      store,
		ReceiptSequencer: store,
		UnitOfWork:       store,
	}
}

var (
	_ portsrepo.FeeCatalogRepositoryFacade = (*Store)(nil)
	_ portsrepo.EnrolmentRepositoryFacade  = (*Store)(nil)
	_ portsrepo.StudentFeeRepositoryFacade = (*Store)(nil)
	_ portsrepo.PaymentReader              = (*Store)(nil)
	_ portsrepo.ReportingRepository        = (*Store)(nil)
	_ portsrepo.ExpenseReader              = (*Store)(nil)
	_ portsrepo.ReceiptSequencer           = (*Store)(nil)
	_ portsrepo.UnitOfWork                 = (*Store)(nil)
)

// AddAcademicYear seeds an academic year. Enrolment is owned elsewhere, so there is no port for it.
func (s *Store) AddAcademicYear(year domain.AcademicYear) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[year.AcademicYearID] = year
}

// AddStudent seeds a student.
func (s *Store) AddStudent(student domain.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[student.StudentID] = student
}

// AddFeeOverride seeds a scholarship or discount.
func (s *Store) AddFeeOverride(override domain.FeeOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, override)
}

// AddExpense seeds an expense.
func (s *Store) AddExpense(expense domain.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, expense)
}

func clonePayment(p domain.Payment) domain.Payment {
	p.Allocations = append([]domain.FeeAllocation(nil), p.Allocations...)
	return p
}
