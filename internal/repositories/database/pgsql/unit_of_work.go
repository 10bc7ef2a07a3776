package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_fee_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxUnitOfWork runs ledger writes in a serializable transaction and hands out receipt numbers.
type PgxUnitOfWork struct {
	BaseRepository
}

func newPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{BaseRepository: BaseRepository{Pool: pool}}
}

var (
	_ portsrepo.UnitOfWork       = (*PgxUnitOfWork)(nil)
	_ portsrepo.ReceiptSequencer = (*PgxUnitOfWork)(nil)
	_ portsrepo.LedgerTx         = (*pgxLedgerTx)(nil)
)

// WithinTx begins a serializable transaction, runs fn and commits. Any error rolls back.
func (u *PgxUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := u.BeginSerializable(ctx)
	if err != nil {
		return err
	}
	defer u.Rollback(ctx, tx)

	if err := fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}
	return u.Commit(ctx, tx)
}

// NextReceiptSequence bumps the per-year counter in its own statement on the pool, outside any
// caller transaction. A rolled back payment therefore leaves a gap, never a reused number.
func (u *PgxUnitOfWork) NextReceiptSequence(ctx context.Context, year int) (int64, error) {
	query := `INSERT INTO receipt_sequences (year, last_value) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = receipt_sequences.last_value + 1
		RETURNING last_value;`
	var next int64
	if err := u.Pool.QueryRow(ctx, query, year).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to allocate receipt sequence for %d: %w", year, err)
	}
	return next, nil
}

type pgxLedgerTx struct {
	tx pgx.Tx
}

// LockStudentFees selects the charges FOR UPDATE in id order so concurrent payers lock in the same order.
func (t *pgxLedgerTx) LockStudentFees(ctx context.Context, studentFeeIDs []string) ([]domain.StudentFee, error) {
	if len(studentFeeIDs) == 0 {
		return []domain.StudentFee{}, nil
	}
	query := `SELECT ` + studentFeeColumns + ` FROM student_fees
		WHERE student_fee_id = ANY($1)
		ORDER BY student_fee_id
		FOR UPDATE;`
	rows, err := t.tx.Query(ctx, query, studentFeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock student fees: %w", mapPgError(err))
	}
	fees, err := collectStudentFees(rows)
	if err != nil {
		return nil, mapPgError(err)
	}
	return fees, nil
}

// SaveStudentFees writes back the mutable columns, guarded by the version read under lock.
func (t *pgxLedgerTx) SaveStudentFees(ctx context.Context, fees []domain.StudentFee) error {
	query := `UPDATE student_fees
		SET paid_amount = $2, waived_amount = $3, balance_amount = $4, status = $5, waiver_reason = $6,
			last_updated_at = $7, last_updated_by = $8, version = $9
		WHERE student_fee_id = $1 AND version = $9 - 1;`

	batch := &pgx.Batch{}
	for _, f := range fees {
		m := mapping.ToModelStudentFee(f)
		batch.Queue(query, m.StudentFeeID, m.PaidAmount, m.WaivedAmount, m.BalanceAmount, m.Status, m.WaiverReason,
			m.LastUpdatedAt, m.LastUpdatedBy, m.Version)
	}
	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()

	for _, f := range fees {
		cmdTag, err := br.Exec()
		if err != nil {
			return fmt.Errorf("failed to update student fee %s: %w", f.StudentFeeID, mapPgError(err))
		}
		if cmdTag.RowsAffected() != 1 {
			return fmt.Errorf("%w: student fee %s changed underneath", apperrors.ErrConcurrentUpdate, f.StudentFeeID)
		}
	}
	return nil
}

// InsertPayment stores the payment header and its allocations.
func (t *pgxLedgerTx) InsertPayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`

	batch := &pgx.Batch{}
	batch.Queue(query,
		m.PaymentID, m.StudentID, m.ReceiptNumber, m.Amount, m.PaymentMethod, m.TransactionRef, m.PaymentDate, m.Status, m.Remarks,
		m.IdempotencyKey, m.ReversalReason, m.ReversedAt, m.ReversedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version)

	allocationQuery := `INSERT INTO fee_allocations (allocation_id, payment_id, student_fee_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5);`
	for _, a := range payment.Allocations {
		am := mapping.ToModelFeeAllocation(a)
		batch.Queue(allocationQuery, am.AllocationID, am.PaymentID, am.StudentFeeID, am.Amount, am.CreatedAt)
	}

	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert payment %s: %w", payment.PaymentID, mapPgError(err))
		}
	}
	return nil
}

// LockPayment selects a payment FOR UPDATE together with its allocations.
func (t *pgxLedgerTx) LockPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	rows, err := queryPaymentRows(ctx, t.tx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1 FOR UPDATE;`, paymentID)
	if err != nil {
		return nil, mapPgError(err)
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	payments, err := withAllocations(ctx, t.tx, rows)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &payments[0], nil
}

// MarkPaymentReversed stores the reversal. Only a completed payment can be reversed.
func (t *pgxLedgerTx) MarkPaymentReversed(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `UPDATE payments
		SET status = $2, reversal_reason = $3, reversed_at = $4, reversed_by = $5,
			last_updated_at = $6, last_updated_by = $7, version = $8
		WHERE payment_id = $1 AND status = 'COMPLETED';`
	cmdTag, err := t.tx.Exec(ctx, query, m.PaymentID, m.Status, m.ReversalReason, m.ReversedAt, m.ReversedBy,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version)
	if err != nil {
		return fmt.Errorf("failed to reverse payment %s: %w", payment.PaymentID, mapPgError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := t.LockPayment(ctx, payment.PaymentID); errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: payment %s is no longer completed", apperrors.ErrConcurrentUpdate, payment.PaymentID)
	}
	return nil
}
