package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/core/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
)

type CollectionServiceTestSuite struct {
	suite.Suite
	mockFees      *MockStudentFeeRepository
	mockPayments  *MockPaymentRepository
	mockEnrolment *MockEnrolmentRepository
	mockUoW       *MockUnitOfWork
	mockTx        *MockLedgerTx
	mockSequencer *MockReceiptSequencer
	service       portssvc.CollectionSvcFacade

	now       time.Time
	studentID string
	userID    string
}

func TestCollectionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CollectionServiceTestSuite))
}

func (suite *CollectionServiceTestSuite) SetupTest() {
	suite.mockFees = new(MockStudentFeeRepository)
	suite.mockPayments = new(MockPaymentRepository)
	suite.mockEnrolment = new(MockEnrolmentRepository)
	suite.mockTx = new(MockLedgerTx)
	suite.mockUoW = &MockUnitOfWork{Tx: suite.mockTx}
	suite.mockSequencer = new(MockReceiptSequencer)

	suite.now = time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	suite.studentID = "stu-1"
	suite.userID = "user-1"

	repos := portsrepo.RepositoryProvider{
		StudentFeeRepo:   suite.mockFees,
		PaymentRepo:      suite.mockPayments,
		EnrolmentRepo:    suite.mockEnrolment,
		UnitOfWork:       suite.mockUoW,
		ReceiptSequencer: suite.mockSequencer,
	}
	suite.service = services.NewCollectionService(repos,
		services.CollectionConfig{ReceiptPrefix: "RC", MaxAttempts: 3, TxTimeout: time.Second},
		services.WithClock(func() time.Time { return suite.now }))
}

func (suite *CollectionServiceTestSuite) command(amount int64, lines ...domain.AllocationLine) domain.CollectPaymentCommand {
	return domain.CollectPaymentCommand{
		StudentID:   suite.studentID,
		Amount:      decimal.NewFromInt(amount),
		Method:      domain.MethodCash,
		Allocations: lines,
	}
}

func line(feeID string, amount int64) domain.AllocationLine {
	return domain.AllocationLine{StudentFeeID: feeID, Amount: decimal.NewFromInt(amount)}
}

// Validation failures must be reported before any repository is touched; the mocks
// have no expectations, so any call would fail the test.
func (suite *CollectionServiceTestSuite) TestCollectPayment_ValidationOrder() {
	future := suite.now.Add(72 * time.Hour)
	tomorrow := time.Date(2025, 7, 2, 0, 30, 0, 0, time.UTC)
	tests := []struct {
		name       string
		cmd        domain.CollectPaymentCommand
		constraint string
	}{
		{"zero amount", suite.command(0, line("f1", 0)), "amount_positive"},
		{"sub cent amount", domain.CollectPaymentCommand{StudentID: suite.studentID, Amount: decimal.RequireFromString("10.005"), Allocations: []domain.AllocationLine{line("f1", 10)}}, "amount_precision"},
		{"missing student", domain.CollectPaymentCommand{Amount: decimal.NewFromInt(10), Allocations: []domain.AllocationLine{line("f1", 10)}}, "student_required"},
		{"no lines", suite.command(10), "allocations_required"},
		{"blank fee id", suite.command(10, line("", 10)), "allocation_fee_required"},
		{"duplicate fee", suite.command(10, line("f1", 5), line("f1", 5)), "allocation_duplicate_fee"},
		{"negative line", suite.command(10, line("f1", 15), line("f2", -5)), "allocation_amount_invalid"},
		{"sum mismatch", suite.command(10, line("f1", 4), line("f2", 4)), "allocation_sum_mismatch"},
		{"future date", func() domain.CollectPaymentCommand {
			c := suite.command(10, line("f1", 10))
			c.PaymentDate = &future
			return c
		}(), "payment_date_future"},
		{"next calendar day", func() domain.CollectPaymentCommand {
			c := suite.command(10, line("f1", 10))
			c.PaymentDate = &tomorrow
			return c
		}(), "payment_date_future"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.CollectPayment(context.Background(), tt.cmd, suite.userID)
			suite.ErrorIs(err, apperrors.ErrValidation)
			suite.Equal(tt.constraint, constraintOf(err))
		})
	}
	suite.mockFees.AssertNotCalled(suite.T(), "FindStudentFeesByIDs", mock.Anything, mock.Anything)
	suite.mockUoW.AssertNotCalled(suite.T(), "WithinTx", mock.Anything)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_TransactionRefCheckedAfterCharges() {
	ctx := context.Background()
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil).Once()
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil).Once()

	cmd := suite.command(100, line("f1", 100))
	cmd.Method = domain.MethodCheque
	_, err := suite.service.CollectPayment(ctx, cmd, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal("transaction_ref_required", constraintOf(err))
	suite.mockUoW.AssertNotCalled(suite.T(), "WithinTx", mock.Anything)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_RetriesConcurrentUpdate() {
	ctx := context.Background()
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)

	suite.mockUoW.On("WithinTx", mock.Anything).Return(apperrors.ErrConcurrentUpdate).Twice()
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockStudentFees", mock.Anything, []string{"f1"}).Return([]domain.StudentFee{charge}, nil).Once()
	suite.mockSequencer.On("NextReceiptSequence", mock.Anything, 2025).Return(int64(42), nil).Once()
	suite.mockTx.On("InsertPayment", mock.Anything, mock.MatchedBy(func(p domain.Payment) bool {
		return p.ReceiptNumber == "RC-2025-000042" && len(p.Allocations) == 1 && p.Status == domain.PaymentCompleted
	})).Return(nil).Once()
	suite.mockTx.On("SaveStudentFees", mock.Anything, mock.MatchedBy(func(fees []domain.StudentFee) bool {
		return len(fees) == 1 && fees[0].PaidAmount.Equal(decimal.NewFromInt(100)) && fees[0].Status == domain.FeePartial
	})).Return(nil).Once()

	payment, err := suite.service.CollectPayment(ctx, suite.command(100, line("f1", 100)), suite.userID)

	suite.Require().NoError(err)
	suite.Equal("RC-2025-000042", payment.ReceiptNumber)
	suite.mockUoW.AssertNumberOfCalls(suite.T(), "WithinTx", 3)
	suite.mockTx.AssertExpectations(suite.T())
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_GivesUpAfterMaxAttempts() {
	ctx := context.Background()
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)
	suite.mockUoW.On("WithinTx", mock.Anything).Return(apperrors.ErrConcurrentUpdate)

	_, err := suite.service.CollectPayment(ctx, suite.command(100, line("f1", 100)), suite.userID)

	suite.ErrorIs(err, apperrors.ErrConcurrentUpdate)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Equal("concurrent_update", constraintOf(err))
	suite.mockUoW.AssertNumberOfCalls(suite.T(), "WithinTx", 3)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_DuplicateReceiptIsNotRetried() {
	ctx := context.Background()
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockStudentFees", mock.Anything, []string{"f1"}).Return([]domain.StudentFee{charge}, nil).Once()
	suite.mockSequencer.On("NextReceiptSequence", mock.Anything, 2025).Return(int64(7), nil).Once()
	suite.mockTx.On("InsertPayment", mock.Anything, mock.Anything).Return(apperrors.ErrDuplicateReceipt).Once()

	_, err := suite.service.CollectPayment(ctx, suite.command(100, line("f1", 100)), suite.userID)

	suite.ErrorIs(err, apperrors.ErrDuplicateReceipt)
	suite.mockUoW.AssertNumberOfCalls(suite.T(), "WithinTx", 1)
	suite.mockTx.AssertNotCalled(suite.T(), "SaveStudentFees", mock.Anything, mock.Anything)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_LostIdempotencyRaceReplays() {
	ctx := context.Background()
	key := "k-1"
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	winner := &domain.Payment{PaymentID: "p-winner", StudentID: suite.studentID, Amount: decimal.NewFromInt(100), ReceiptNumber: "RC-2025-000001"}

	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockStudentFees", mock.Anything, []string{"f1"}).Return([]domain.StudentFee{charge}, nil).Once()
	suite.mockSequencer.On("NextReceiptSequence", mock.Anything, 2025).Return(int64(2), nil).Once()
	suite.mockTx.On("InsertPayment", mock.Anything, mock.Anything).Return(apperrors.ErrDuplicate).Once()
	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(winner, nil).Once()

	cmd := suite.command(100, line("f1", 100))
	cmd.IdempotencyKey = &key
	payment, err := suite.service.CollectPayment(ctx, cmd, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("p-winner", payment.PaymentID)
	suite.mockPayments.AssertExpectations(suite.T())
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_SettledUnderLockReplaysSameKey() {
	ctx := context.Background()
	key := "k-2"
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	settled := charge
	settled.PaidAmount = decimal.NewFromInt(1000)
	first := &domain.Payment{PaymentID: "p-first", StudentID: suite.studentID, Amount: decimal.NewFromInt(1000), ReceiptNumber: "RC-2025-000001"}

	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockStudentFees", mock.Anything, []string{"f1"}).Return([]domain.StudentFee{settled}, nil).Once()
	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(first, nil).Once()

	cmd := suite.command(1000, line("f1", 1000))
	cmd.IdempotencyKey = &key
	payment, err := suite.service.CollectPayment(ctx, cmd, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("p-first", payment.PaymentID)
	suite.mockPayments.AssertExpectations(suite.T())
	suite.mockTx.AssertNotCalled(suite.T(), "InsertPayment", mock.Anything, mock.Anything)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_ExhaustedRetriesReplaySameKey() {
	ctx := context.Background()
	key := "k-3"
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))
	first := &domain.Payment{PaymentID: "p-first", StudentID: suite.studentID, Amount: decimal.NewFromInt(100), ReceiptNumber: "RC-2025-000001"}

	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)
	suite.mockUoW.On("WithinTx", mock.Anything).Return(apperrors.ErrConcurrentUpdate)
	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(first, nil).Once()

	cmd := suite.command(100, line("f1", 100))
	cmd.IdempotencyKey = &key
	payment, err := suite.service.CollectPayment(ctx, cmd, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("p-first", payment.PaymentID)
	suite.mockUoW.AssertNumberOfCalls(suite.T(), "WithinTx", 3)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_ConflictWithoutStoredKeyIsReturned() {
	ctx := context.Background()
	key := "k-4"
	charge := pendingCharge("f1", suite.studentID, 1000, suite.now.AddDate(0, 1, 0))

	suite.mockPayments.On("FindPaymentByIdempotencyKey", mock.Anything, key).Return(nil, apperrors.ErrNotFound).Twice()
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(&domain.Student{StudentID: suite.studentID}, nil)
	suite.mockFees.On("FindStudentFeesByIDs", mock.Anything, []string{"f1"}).Return(map[string]domain.StudentFee{"f1": charge}, nil)

	cmd := suite.command(1200, line("f1", 1200))
	cmd.IdempotencyKey = &key
	_, err := suite.service.CollectPayment(ctx, cmd, suite.userID)

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Equal("allocation_exceeds_balance", constraintOf(err))
	suite.mockPayments.AssertExpectations(suite.T())
	suite.mockUoW.AssertNotCalled(suite.T(), "WithinTx", mock.Anything)
}

func (suite *CollectionServiceTestSuite) TestCollectPayment_UnknownStudent() {
	suite.mockEnrolment.On("FindStudentByID", mock.Anything, suite.studentID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CollectPayment(context.Background(), suite.command(100, line("f1", 100)), suite.userID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Equal("student", constraintOf(err))
}

func (suite *CollectionServiceTestSuite) TestReversePayment_NotFound() {
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockPayment", mock.Anything, "p-404").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ReversePayment(context.Background(), "p-404", "typo", suite.userID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *CollectionServiceTestSuite) TestReversePayment_RepositoryFailureIsWrapped() {
	dbErr := errors.New("connection reset")
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockPayment", mock.Anything, "p-1").Return(nil, dbErr).Once()

	_, err := suite.service.ReversePayment(context.Background(), "p-1", "typo", suite.userID)

	suite.ErrorIs(err, dbErr)
	suite.Contains(err.Error(), "failed to reverse payment")
}

func (suite *CollectionServiceTestSuite) TestWaiveStudentFee_UnknownCharge() {
	suite.mockUoW.On("WithinTx", mock.Anything).Return(nil).Once()
	suite.mockTx.On("LockStudentFees", mock.Anything, []string{"f-404"}).Return([]domain.StudentFee{}, nil).Once()

	_, err := suite.service.WaiveStudentFee(context.Background(), "f-404", "hardship", suite.userID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *CollectionServiceTestSuite) TestListPayments_ClampsLimit() {
	suite.mockPayments.On("ListPayments", mock.Anything, "", 100, (*string)(nil)).Return([]domain.Payment{}, nil, nil).Once()

	resp, err := suite.service.ListPayments(context.Background(), dto.ListPaymentsParams{Limit: 500})

	suite.Require().NoError(err)
	suite.Empty(resp.Payments)
	suite.Nil(resp.NextToken)
	suite.mockPayments.AssertExpectations(suite.T())
}
