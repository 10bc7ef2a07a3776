package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
)

// MockStudentFeeRepository is a mock type for the StudentFeeRepositoryFacade interface
type MockStudentFeeRepository struct {
	mock.Mock
}

func (m *MockStudentFeeRepository) FindStudentFeeByID(ctx context.Context, studentFeeID string) (*domain.StudentFee, error) {
	args := m.Called(ctx, studentFeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) FindStudentFeesByIDs(ctx context.Context, studentFeeIDs []string) (map[string]domain.StudentFee, error) {
	args := m.Called(ctx, studentFeeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) ListStudentFeesByStudent(ctx context.Context, studentID string) ([]domain.StudentFee, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) InsertStudentFees(ctx context.Context, fees []domain.StudentFee) ([]string, error) {
	args := m.Called(ctx, fees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPaymentRepository is a mock type for the PaymentReader interface
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPayments(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	args := m.Called(ctx, studentID, limit, nextToken)
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, token, args.Error(2)
	}
	return args.Get(0).([]domain.Payment), token, args.Error(2)
}

func (m *MockPaymentRepository) ListPaymentsByStudent(ctx context.Context, studentID string) ([]domain.Payment, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockEnrolmentRepository is a mock type for the EnrolmentRepositoryFacade interface
type MockEnrolmentRepository struct {
	mock.Mock
}

func (m *MockEnrolmentRepository) FindAcademicYearByID(ctx context.Context, academicYearID string) (*domain.AcademicYear, error) {
	args := m.Called(ctx, academicYearID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AcademicYear), args.Error(1)
}

func (m *MockEnrolmentRepository) FindStudentByID(ctx context.Context, studentID string) (*domain.Student, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockEnrolmentRepository) ListActiveStudents(ctx context.Context, academicYearID string, classID string) ([]domain.Student, error) {
	args := m.Called(ctx, academicYearID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockEnrolmentRepository) ListFeeOverrides(ctx context.Context, studentIDs []string) ([]domain.FeeOverride, error) {
	args := m.Called(ctx, studentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeOverride), args.Error(1)
}

// MockUnitOfWork is a mock type for the UnitOfWork interface.
// When the expectation returns nil, fn runs against Tx.
type MockUnitOfWork struct {
	mock.Mock
	Tx portsrepo.LedgerTx
}

func (m *MockUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Tx)
}

// MockReceiptSequencer is a mock type for the ReceiptSequencer interface
type MockReceiptSequencer struct {
	mock.Mock
}

func (m *MockReceiptSequencer) NextReceiptSequence(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerTx is a mock type for the LedgerTx interface
type MockLedgerTx struct {
	mock.Mock
}

func (m *MockLedgerTx) LockStudentFees(ctx context.Context, studentFeeIDs []string) ([]domain.StudentFee, error) {
	args := m.Called(ctx, studentFeeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so a retried attempt starts from the stored state
	return append([]domain.StudentFee(nil), args.Get(0).([]domain.StudentFee)...), args.Error(1)
}

func (m *MockLedgerTx) SaveStudentFees(ctx context.Context, fees []domain.StudentFee) error {
	args := m.Called(ctx, fees)
	return args.Error(0)
}

func (m *MockLedgerTx) InsertPayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLedgerTx) LockPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerTx) MarkPaymentReversed(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func pendingCharge(id, studentID string, total int64, due time.Time) domain.StudentFee {
	fee := domain.StudentFee{
		StudentFeeID:   id,
		StudentID:      studentID,
		FeeStructureID: "fs-1",
		FeeCategoryID:  "cat-1",
		AcademicYearID: "ay-1",
		BillingPeriod:  "ONCE",
		DueDate:        due,
		TotalAmount:    decimal.NewFromInt(total),
		PaidAmount:     decimal.Zero,
		WaivedAmount:   decimal.Zero,
		Status:         domain.FeePending,
	}
	fee.Recompute(due.AddDate(0, 0, -1))
	return fee
}
