package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_fee_ledger/internal/utils/pagination"
)

func (s *Store) FindStudentFeeByID(_ context.Context, studentFeeID string) (*domain.StudentFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fees[studentFeeID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &f, nil
}

func (s *Store) FindStudentFeesByIDs(_ context.Context, studentFeeIDs []string) (map[string]domain.StudentFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]domain.StudentFee, len(studentFeeIDs))
	for _, id := range studentFeeIDs {
		if f, ok := s.fees[id]; ok {
			result[id] = f
		}
	}
	return result, nil
}

func (s *Store) ListStudentFeesByStudent(_ context.Context, studentID string) ([]domain.StudentFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.StudentFee
	for _, f := range s.fees {
		if f.StudentID == studentID {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.StudentFeeID < b.StudentFeeID
	})
	return result, nil
}

func (s *Store) InsertStudentFees(_ context.Context, fees []domain.StudentFee) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := make([]string, 0, len(fees))
	for _, f := range fees {
		key := f.NaturalKey()
		if _, exists := s.feeKeys[key]; exists {
			continue
		}
		s.fees[f.StudentFeeID] = f
		s.feeKeys[key] = f.StudentFeeID
		inserted = append(inserted, f.StudentFeeID)
	}
	return inserted, nil
}

func (s *Store) FindPaymentByID(_ context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p = clonePayment(p)
	return &p, nil
}

func (s *Store) FindPaymentByIdempotencyKey(_ context.Context, key string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.paymentsByKey[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p := clonePayment(s.payments[id])
	return &p, nil
}

func (s *Store) ListPayments(_ context.Context, studentID string, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		cursor = &c
	}

	s.mu.RLock()
	all := make([]domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if studentID != "" && p.StudentID != studentID {
			continue
		}
		if cursor != nil && !cursor.Before(p.PaymentDate, p.CreatedAt, p.PaymentID) {
			continue
		}
		all = append(all, clonePayment(p))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.After(b.PaymentDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.PaymentID > b.PaymentID
	})

	if len(all) <= limit {
		return all, nil, nil
	}
	page := all[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{Date: last.PaymentDate, CreatedAt: last.CreatedAt, ID: last.PaymentID})
	return page, &token, nil
}

func (s *Store) ListPaymentsByStudent(_ context.Context, studentID string) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Payment
	for _, p := range s.payments {
		if p.StudentID == studentID {
			result = append(result, clonePayment(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.Before(b.PaymentDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.PaymentID < b.PaymentID
	})
	return result, nil
}

// NextReceiptSequence increments the per-year counter. It never takes the unit of work lock,
// so it can be called from inside WithinTx.
func (s *Store) NextReceiptSequence(ctx context.Context, year int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.receiptSequence[year]++
	return s.receiptSequence[year], nil
}

// WithinTx stages every write of fn and applies them only if fn and the context both succeed.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		store:    s,
		fees:     make(map[string]domain.StudentFee),
		payments: make(map[string]domain.Payment),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("unit of work abandoned before commit: %w", err)
	}
	tx.commit()
	return nil
}

// memTx is the staging area of one unit of work.
type memTx struct {
	store    *Store
	fees     map[string]domain.StudentFee
	payments map[string]domain.Payment
	inserted []string // payment ids new in this tx
}

var _ portsrepo.LedgerTx = (*memTx)(nil)

func (t *memTx) LockStudentFees(_ context.Context, studentFeeIDs []string) ([]domain.StudentFee, error) {
	ids := slices.Clone(studentFeeIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	result := make([]domain.StudentFee, 0, len(ids))
	for _, id := range ids {
		if f, ok := t.fees[id]; ok {
			result = append(result, f)
			continue
		}
		if f, ok := t.store.fees[id]; ok {
			result = append(result, f)
		}
	}
	return result, nil
}

func (t *memTx) SaveStudentFees(_ context.Context, fees []domain.StudentFee) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, f := range fees {
		if _, ok := t.store.fees[f.StudentFeeID]; !ok {
			return fmt.Errorf("%w: student fee %s", apperrors.ErrNotFound, f.StudentFeeID)
		}
		t.fees[f.StudentFeeID] = f
	}
	return nil
}

func (t *memTx) InsertPayment(_ context.Context, payment domain.Payment) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if payment.IdempotencyKey != nil {
		if _, taken := t.store.paymentsByKey[*payment.IdempotencyKey]; taken {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, *payment.IdempotencyKey)
		}
	}
	if _, taken := t.store.paymentsByRcpt[payment.ReceiptNumber]; taken {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateReceipt, payment.ReceiptNumber)
	}
	for _, id := range t.inserted {
		staged := t.payments[id]
		if staged.ReceiptNumber == payment.ReceiptNumber {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateReceipt, payment.ReceiptNumber)
		}
		if payment.IdempotencyKey != nil && staged.IdempotencyKey != nil && *staged.IdempotencyKey == *payment.IdempotencyKey {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, *payment.IdempotencyKey)
		}
	}
	t.payments[payment.PaymentID] = clonePayment(payment)
	t.inserted = append(t.inserted, payment.PaymentID)
	return nil
}

func (t *memTx) LockPayment(_ context.Context, paymentID string) (*domain.Payment, error) {
	if p, ok := t.payments[paymentID]; ok {
		p = clonePayment(p)
		return &p, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	p, ok := t.store.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p = clonePayment(p)
	return &p, nil
}

func (t *memTx) MarkPaymentReversed(_ context.Context, payment domain.Payment) error {
	current, ok := t.payments[payment.PaymentID]
	if !ok {
		t.store.mu.RLock()
		current, ok = t.store.payments[payment.PaymentID]
		t.store.mu.RUnlock()
	}
	if !ok {
		return fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, payment.PaymentID)
	}
	current.Status = payment.Status
	current.ReversalReason = payment.ReversalReason
	current.ReversedAt = payment.ReversedAt
	current.ReversedBy = payment.ReversedBy
	current.AuditFields = payment.AuditFields
	t.payments[payment.PaymentID] = current
	return nil
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range t.fees {
		s.fees[id] = f
	}
	for id, p := range t.payments {
		s.payments[id] = p
	}
	for _, id := range t.inserted {
		p := t.payments[id]
		s.paymentsByRcpt[p.ReceiptNumber] = id
		if p.IdempotencyKey != nil {
			s.paymentsByKey[*p.IdempotencyKey] = id
		}
	}
}
