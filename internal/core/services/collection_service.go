package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	"github.com/SscSPs/school_fee_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_fee_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_fee_ledger/internal/dto"
	"github.com/SscSPs/school_fee_ledger/internal/utils"
)

const (
	defaultPaymentPageSize = 20
	maxPaymentPageSize     = 100
)

// errIdempotentReplay marks a payment insert that lost the race for its idempotency key.
var errIdempotentReplay = errors.New("idempotency key claimed by a concurrent request")

// CollectionConfig tunes the allocation engine.
type CollectionConfig struct {
	ReceiptPrefix string
	MaxAttempts   int           // attempts per unit of work when a concurrent update is detected
	TxTimeout     time.Duration // upper bound for one collect, reverse or waive call
}

// collectionService is the ledger allocation engine: it collects, reverses and waives.
type collectionService struct {
	BaseService
	cfg            CollectionConfig
	studentFeeRepo portsrepo.StudentFeeReader
	paymentRepo    portsrepo.PaymentReader
	students       portsrepo.StudentDirectory
	uow            portsrepo.UnitOfWork
	sequencer      portsrepo.ReceiptSequencer
}

// NewCollectionService creates a new allocation engine.
func NewCollectionService(repos portsrepo.RepositoryProvider, cfg CollectionConfig, options ...ServiceOption) portssvc.CollectionSvcFacade {
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "RC"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 10 * time.Second
	}
	svc := &collectionService{
		cfg:            cfg,
		studentFeeRepo: repos.StudentFeeRepo,
		paymentRepo:    repos.PaymentRepo,
		students:       repos.EnrolmentRepo,
		uow:            repos.UnitOfWork,
		sequencer:      repos.ReceiptSequencer,
	}
	applyOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.CollectionSvcFacade = (*collectionService)(nil)

// CollectPayment validates the command, then applies every allocation line, issues a receipt
// number and stores the payment in one unit of work.
func (s *collectionService) CollectPayment(ctx context.Context, cmd domain.CollectPaymentCommand, userID string) (*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	now := s.CurrentTime()
	if err := validateCollectCommand(cmd, now); err != nil {
		s.LogWarn(ctx, err, "Payment rejected by validation", slog.String("student_id", cmd.StudentID))
		return nil, err
	}

	key := normalizeKey(cmd.IdempotencyKey)
	if key != nil {
		existing, err := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, *key)
		switch {
		case err == nil:
			return s.replay(ctx, existing, cmd)
		case !errors.Is(err, apperrors.ErrNotFound):
			s.LogError(ctx, err, "Failed to look up idempotency key", slog.String("idempotency_key", *key))
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	if _, err := s.students.FindStudentByID(ctx, cmd.StudentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("student", "student "+cmd.StudentID+" not found")
		}
		s.LogError(ctx, err, "Failed to load student", slog.String("student_id", cmd.StudentID))
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	feeIDs := allocationFeeIDs(cmd.Allocations)

	// Fail fast on the unlocked view; the same checks run again under lock.
	current, err := s.studentFeeRepo.FindStudentFeesByIDs(ctx, feeIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to load charges", slog.String("student_id", cmd.StudentID))
		return nil, fmt.Errorf("failed to load charges: %w", err)
	}
	snapshot := make(map[string]*domain.StudentFee, len(current))
	for id, fee := range current {
		fee := fee
		snapshot[id] = &fee
	}
	if err := checkCharges(cmd.StudentID, cmd.Allocations, snapshot, now); err != nil {
		if existing := s.claimedBy(ctx, key, err); existing != nil {
			return s.replay(ctx, existing, cmd)
		}
		s.LogWarn(ctx, err, "Payment rejected by charge checks", slog.String("student_id", cmd.StudentID))
		return nil, err
	}

	paymentDate := now
	if cmd.PaymentDate != nil {
		paymentDate = cmd.PaymentDate.UTC()
	}
	payment := domain.Payment{
		StudentID:      cmd.StudentID,
		Amount:         cmd.Amount,
		PaymentMethod:  cmd.Method,
		TransactionRef: trimmedPtr(cmd.TransactionRef),
		PaymentDate:    paymentDate,
		Status:         domain.PaymentCompleted,
		Remarks:        strings.TrimSpace(cmd.Remarks),
		IdempotencyKey: key,
		AuditFields:    domain.NewAuditFields(userID, now),
	}
	if err := payment.Validate(); err != nil {
		s.LogWarn(ctx, err, "Payment rejected by validation", slog.String("student_id", cmd.StudentID))
		return nil, err
	}

	var committed domain.Payment
	err = s.runInTx(ctx, "collect_payment", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		locked, err := tx.LockStudentFees(ctx, feeIDs)
		if err != nil {
			return err
		}
		fees := indexFees(locked)
		if err := checkCharges(cmd.StudentID, cmd.Allocations, fees, now); err != nil {
			return err
		}

		attempt := payment
		attempt.PaymentID = uuid.NewString()
		attempt.Allocations = make([]domain.FeeAllocation, 0, len(cmd.Allocations))
		for _, line := range cmd.Allocations {
			fee := fees[line.StudentFeeID]
			if err := fee.ApplyPayment(line.Amount, now); err != nil {
				return err
			}
			fee.Touch(userID, now)
			attempt.Allocations = append(attempt.Allocations, domain.FeeAllocation{
				AllocationID: uuid.NewString(),
				PaymentID:    attempt.PaymentID,
				StudentFeeID: line.StudentFeeID,
				Amount:       line.Amount,
				CreatedAt:    now,
			})
		}

		seq, err := s.sequencer.NextReceiptSequence(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate receipt number: %w", err)
		}
		attempt.ReceiptNumber = domain.FormatReceiptNumber(s.cfg.ReceiptPrefix, now.Year(), seq)

		if err := tx.InsertPayment(ctx, attempt); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) && key != nil {
				return errIdempotentReplay
			}
			return err
		}
		if err := tx.SaveStudentFees(ctx, locked); err != nil {
			return err
		}
		committed = attempt
		return nil
	})

	if err != nil {
		if existing := s.claimedBy(ctx, key, err); existing != nil {
			return s.replay(ctx, existing, cmd)
		}
		switch {
		case errors.Is(err, errIdempotentReplay):
			existing, findErr := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, *key)
			if findErr != nil {
				s.LogError(ctx, findErr, "Failed to load payment for idempotency key", slog.String("idempotency_key", *key))
				return nil, fmt.Errorf("failed to load payment for idempotency key: %w", findErr)
			}
			return s.replay(ctx, existing, cmd)
		case errors.Is(err, apperrors.ErrDuplicateReceipt):
			s.LogError(ctx, err, "Receipt sequence produced a duplicate number",
				slog.Bool("alert", true),
				slog.String("student_id", cmd.StudentID))
			return nil, err
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrConflict):
			s.LogWarn(ctx, err, "Payment rejected", slog.String("student_id", cmd.StudentID))
			return nil, err
		default:
			s.LogError(ctx, err, "Failed to collect payment", slog.String("student_id", cmd.StudentID))
			return nil, fmt.Errorf("failed to collect payment: %w", err)
		}
	}

	s.LogInfo(ctx, "Payment collected",
		slog.String("payment_id", committed.PaymentID),
		slog.String("receipt_number", committed.ReceiptNumber),
		slog.String("student_id", committed.StudentID),
		slog.String("amount", utils.FormatAmount(committed.Amount)),
		slog.Int("allocation_count", len(committed.Allocations)))
	s.PublishEvent(ctx, events.PaymentCollected, userID, committed)
	return &committed, nil
}

// ReversePayment flips a completed payment to REVERSED and removes its allocations from every charge.
func (s *collectionService) ReversePayment(ctx context.Context, paymentID string, reason string, userID string) (*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reversal_reason_required", "a reversal reason is required")
	}

	now := s.CurrentTime()
	var reversed domain.Payment
	err := s.runInTx(ctx, "reverse_payment", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		payment, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("payment", "payment "+paymentID+" not found")
			}
			return err
		}
		if payment.Status == domain.PaymentReversed {
			conflict := apperrors.NewConflictError("payment_already_reversed", "", "payment "+payment.ReceiptNumber+" is already reversed")
			conflict.PaymentID = payment.PaymentID
			return conflict
		}

		ids := make([]string, 0, len(payment.Allocations))
		for _, a := range payment.Allocations {
			ids = append(ids, a.StudentFeeID)
		}
		locked, err := tx.LockStudentFees(ctx, ids)
		if err != nil {
			return err
		}
		fees := indexFees(locked)
		for _, a := range payment.Allocations {
			fee, ok := fees[a.StudentFeeID]
			if !ok {
				return fmt.Errorf("%w: allocation %s references missing charge %s", apperrors.ErrInternal, a.AllocationID, a.StudentFeeID)
			}
			if err := fee.RevertPayment(a.Amount, now); err != nil {
				return err
			}
			fee.Touch(userID, now)
		}

		payment.Status = domain.PaymentReversed
		payment.ReversalReason = &reason
		payment.ReversedAt = &now
		payment.ReversedBy = &userID
		payment.Touch(userID, now)

		if err := tx.MarkPaymentReversed(ctx, *payment); err != nil {
			return err
		}
		if err := tx.SaveStudentFees(ctx, locked); err != nil {
			return err
		}
		reversed = *payment
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) {
			s.LogWarn(ctx, err, "Payment reversal rejected", slog.String("payment_id", paymentID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to reverse payment", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to reverse payment: %w", err)
	}

	s.LogInfo(ctx, "Payment reversed",
		slog.String("payment_id", reversed.PaymentID),
		slog.String("receipt_number", reversed.ReceiptNumber),
		slog.String("student_id", reversed.StudentID))
	s.PublishEvent(ctx, events.PaymentReversed, userID, reversed)
	return &reversed, nil
}

// WaiveStudentFee writes off what is left of a charge.
func (s *collectionService) WaiveStudentFee(ctx context.Context, studentFeeID string, reason string, userID string) (*domain.StudentFee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("waiver_reason_required", "a waiver reason is required")
	}

	now := s.CurrentTime()
	var waived domain.StudentFee
	err := s.runInTx(ctx, "waive_student_fee", func(ctx context.Context, tx portsrepo.LedgerTx) error {
		locked, err := tx.LockStudentFees(ctx, []string{studentFeeID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperrors.NewNotFoundError("student_fee", "student fee "+studentFeeID+" not found")
		}
		fee := &locked[0]
		if err := fee.Waive(reason, now); err != nil {
			return err
		}
		fee.Touch(userID, now)
		if err := tx.SaveStudentFees(ctx, locked); err != nil {
			return err
		}
		waived = *fee
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrValidation) {
			s.LogWarn(ctx, err, "Waiver rejected", slog.String("student_fee_id", studentFeeID))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to waive student fee", slog.String("student_fee_id", studentFeeID))
		return nil, fmt.Errorf("failed to waive student fee: %w", err)
	}

	s.LogInfo(ctx, "Student fee waived",
		slog.String("student_fee_id", waived.StudentFeeID),
		slog.String("student_id", waived.StudentID),
		slog.String("waived_amount", utils.FormatAmount(waived.WaivedAmount)))
	s.PublishEvent(ctx, events.StudentFeeWaived, userID, waived)
	return &waived, nil
}

// GetStudentFees lists a student's charges. Status is evaluated against the current date,
// so a charge past its due date reads as OVERDUE even if nothing was written since.
func (s *collectionService) GetStudentFees(ctx context.Context, studentID string, status *domain.StudentFeeStatus) ([]domain.StudentFee, error) {
	if status != nil && !status.IsValid() {
		return nil, apperrors.NewValidationError("student_fee_status", "unknown status "+string(*status))
	}
	if _, err := s.students.FindStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("student", "student "+studentID+" not found")
		}
		s.LogError(ctx, err, "Failed to load student", slog.String("student_id", studentID))
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	fees, err := s.studentFeeRepo.ListStudentFeesByStudent(ctx, studentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list student fees", slog.String("student_id", studentID))
		return nil, fmt.Errorf("failed to list student fees: %w", err)
	}

	now := s.CurrentTime()
	result := make([]domain.StudentFee, 0, len(fees))
	for _, fee := range fees {
		fee.Recompute(now)
		if status != nil && fee.Status != *status {
			continue
		}
		result = append(result, fee)
	}
	return result, nil
}

func (s *collectionService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("payment", "payment "+paymentID+" not found")
		}
		s.LogError(ctx, err, "Failed to load payment", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return payment, nil
}

func (s *collectionService) ListPayments(ctx context.Context, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPaymentPageSize
	}
	if limit > maxPaymentPageSize {
		limit = maxPaymentPageSize
	}

	payments, nextToken, err := s.paymentRepo.ListPayments(ctx, params.StudentID, limit, params.NextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to list payments", slog.String("student_id", params.StudentID))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &dto.ListPaymentsResponse{
		Payments:  dto.ToPaymentResponses(payments),
		NextToken: nextToken,
	}, nil
}

// runInTx runs fn in a unit of work, starting over when a concurrent writer won the race.
func (s *collectionService) runInTx(ctx context.Context, operation string, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	var err error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err = s.uow.WithinTx(ctx, fn)
		if err == nil || !errors.Is(err, apperrors.ErrConcurrentUpdate) || ctx.Err() != nil {
			return err
		}
		s.LogWarn(ctx, err, "Ledger transaction lost a concurrent update",
			slog.String("operation", operation),
			slog.Int("attempt", attempt))
	}
	conflict := apperrors.NewConflictError("concurrent_update", "", "the charges changed while the request was processed, reload and retry")
	conflict.Kind = apperrors.ErrConcurrentUpdate
	return conflict
}

// replay answers a retried request with the payment stored under its idempotency key.
func (s *collectionService) replay(ctx context.Context, existing *domain.Payment, cmd domain.CollectPaymentCommand) (*domain.Payment, error) {
	if existing.StudentID != cmd.StudentID || !existing.Amount.Equal(cmd.Amount) {
		conflict := apperrors.NewConflictError("idempotency_key_reused", "", "idempotency key was already used for a different payment")
		conflict.PaymentID = existing.PaymentID
		s.LogWarn(ctx, conflict, "Idempotency key reused with a different payload", slog.String("payment_id", existing.PaymentID))
		return nil, conflict
	}
	s.LogInfo(ctx, "Returning payment for repeated idempotency key",
		slog.String("payment_id", existing.PaymentID),
		slog.String("receipt_number", existing.ReceiptNumber))
	return existing, nil
}

// claimedBy returns the payment stored under key when err is a conflict that a request carrying
// the same key caused by committing first. It returns nil in every other case.
func (s *collectionService) claimedBy(ctx context.Context, key *string, err error) *domain.Payment {
	if key == nil || !(errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrConcurrentUpdate)) {
		return nil
	}
	existing, findErr := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, *key)
	if findErr != nil {
		if !errors.Is(findErr, apperrors.ErrNotFound) {
			s.LogError(ctx, findErr, "Failed to look up idempotency key after conflict", slog.String("idempotency_key", *key))
		}
		return nil
	}
	return existing
}

// validateCollectCommand runs the checks that need no stored state, in the order callers see them.
func validateCollectCommand(cmd domain.CollectPaymentCommand, now time.Time) error {
	if !cmd.Amount.IsPositive() {
		return apperrors.NewValidationError("amount_positive", "payment amount must be greater than zero")
	}
	if hasSubCent(cmd.Amount) {
		return apperrors.NewValidationError("amount_precision", "payment amount has more than two decimal places")
	}
	if strings.TrimSpace(cmd.StudentID) == "" {
		return apperrors.NewValidationError("student_required", "student is required")
	}
	if len(cmd.Allocations) == 0 {
		return apperrors.NewValidationError("allocations_required", "at least one allocation line is required")
	}

	seen := make(map[string]struct{}, len(cmd.Allocations))
	sum := decimal.Zero
	for _, line := range cmd.Allocations {
		if line.StudentFeeID == "" {
			return apperrors.NewValidationError("allocation_fee_required", "every allocation line needs a student fee")
		}
		if _, dup := seen[line.StudentFeeID]; dup {
			err := apperrors.NewValidationError("allocation_duplicate_fee", "a charge may appear only once per payment")
			err.StudentFeeID = line.StudentFeeID
			return err
		}
		seen[line.StudentFeeID] = struct{}{}
		if !line.Amount.IsPositive() || hasSubCent(line.Amount) {
			err := apperrors.NewValidationError("allocation_amount_invalid", "allocation amounts must be positive with at most two decimal places")
			err.StudentFeeID = line.StudentFeeID
			return err
		}
		sum = sum.Add(line.Amount)
	}
	if !sum.Equal(cmd.Amount) {
		err := apperrors.NewValidationError("allocation_sum_mismatch", "allocations must add up to the payment amount")
		err.Expected = utils.FormatAmount(cmd.Amount)
		err.Actual = utils.FormatAmount(sum)
		return err
	}

	if cmd.PaymentDate != nil && calendarDay(*cmd.PaymentDate).After(calendarDay(now)) {
		return apperrors.NewValidationError("payment_date_future", "payment date cannot be in the future")
	}
	return nil
}

// calendarDay truncates t to midnight UTC.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// checkCharges verifies ownership and settlement of every referenced charge, then that no
// line exceeds its charge's balance. Statuses are recomputed as of asOf first.
func checkCharges(studentID string, lines []domain.AllocationLine, fees map[string]*domain.StudentFee, asOf time.Time) error {
	for _, line := range lines {
		fee, ok := fees[line.StudentFeeID]
		if !ok {
			err := apperrors.NewNotFoundError("student_fee", "student fee "+line.StudentFeeID+" not found")
			err.StudentFeeID = line.StudentFeeID
			return err
		}
		if fee.StudentID != studentID {
			err := apperrors.NewValidationError("charge_student_mismatch", "charge does not belong to the student")
			err.StudentFeeID = fee.StudentFeeID
			return err
		}
		fee.Recompute(asOf)
		if fee.Status.IsSettled() {
			return apperrors.NewConflictError("charge_settled", fee.StudentFeeID, "charge is already "+string(fee.Status))
		}
	}
	for _, line := range lines {
		fee := fees[line.StudentFeeID]
		if line.Amount.GreaterThan(fee.BalanceAmount) {
			err := apperrors.NewConflictError("allocation_exceeds_balance", fee.StudentFeeID, "allocation exceeds the current balance")
			err.Expected = utils.FormatAmount(fee.BalanceAmount)
			err.Actual = utils.FormatAmount(line.Amount)
			return err
		}
	}
	return nil
}

func allocationFeeIDs(lines []domain.AllocationLine) []string {
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.StudentFeeID
	}
	slices.Sort(ids)
	return ids
}

func indexFees(fees []domain.StudentFee) map[string]*domain.StudentFee {
	index := make(map[string]*domain.StudentFee, len(fees))
	for i := range fees {
		index[fees[i].StudentFeeID] = &fees[i]
	}
	return index
}

func hasSubCent(d decimal.Decimal) bool {
	return !utils.HasAmountPrecision(d)
}

func normalizeKey(key *string) *string {
	if key == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*key)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
