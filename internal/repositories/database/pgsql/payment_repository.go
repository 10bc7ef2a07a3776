package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
	"github.com/SscSPs/school_fee_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_fee_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_fee_ledger/internal/models"
	"github.com/SscSPs/school_fee_ledger/internal/utils/mapping"
	"github.com/SscSPs/school_fee_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPaymentRepository implements PaymentReader using pgx.
type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentReader {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentReader = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, student_id, receipt_number, amount, payment_method, transaction_ref, payment_date, status, remarks,
	idempotency_key, reversal_reason, reversed_at, reversed_by,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanPaymentRow(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	err := row.Scan(&m.PaymentID, &m.StudentID, &m.ReceiptNumber, &m.Amount, &m.PaymentMethod, &m.TransactionRef, &m.PaymentDate, &m.Status, &m.Remarks,
		&m.IdempotencyKey, &m.ReversalReason, &m.ReversedAt, &m.ReversedBy,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version)
	return m, err
}

func queryPaymentRows(ctx context.Context, q querier, query string, args ...any) ([]models.Payment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var result []models.Payment
	for rows.Next() {
		m, err := scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return result, nil
}

// loadAllocations fetches the allocations of the given payments grouped by payment id.
func loadAllocations(ctx context.Context, q querier, paymentIDs []string) (map[string][]models.FeeAllocation, error) {
	grouped := make(map[string][]models.FeeAllocation, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return grouped, nil
	}
	query := `SELECT allocation_id, payment_id, student_fee_id, amount, created_at
		FROM fee_allocations WHERE payment_id = ANY($1)
		ORDER BY payment_id, allocation_id;`
	rows, err := q.Query(ctx, query, paymentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.FeeAllocation
		if err := rows.Scan(&a.AllocationID, &a.PaymentID, &a.StudentFeeID, &a.Amount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fee allocation: %w", err)
		}
		grouped[a.PaymentID] = append(grouped[a.PaymentID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee allocation rows: %w", err)
	}
	return grouped, nil
}

func withAllocations(ctx context.Context, q querier, rows []models.Payment) ([]domain.Payment, error) {
	ids := make([]string, len(rows))
	for i, m := range rows {
		ids[i] = m.PaymentID
	}
	allocations, err := loadAllocations(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.Payment, len(rows))
	for i, m := range rows {
		payments[i] = mapping.ToDomainPayment(m, allocations[m.PaymentID])
	}
	return payments, nil
}

func (r *PgxPaymentRepository) findOne(ctx context.Context, where string, arg any) (*domain.Payment, error) {
	rows, err := queryPaymentRows(ctx, r.Pool, `SELECT `+paymentColumns+` FROM payments WHERE `+where+`;`, arg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	payments, err := withAllocations(ctx, r.Pool, rows[:1])
	if err != nil {
		return nil, err
	}
	return &payments[0], nil
}

// FindPaymentByID retrieves a payment with its allocations.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := r.findOne(ctx, "payment_id = $1", paymentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return p, err
}

// FindPaymentByIdempotencyKey retrieves the payment recorded under the key.
func (r *PgxPaymentRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	p, err := r.findOne(ctx, "idempotency_key = $1", key)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find payment by idempotency key: %w", err)
	}
	return p, err
}

// ListPayments lists payments newest first. The cursor is the (payment_date, created_at, payment_id)
// of the last row on the previous page.
func (r *PgxPaymentRepository) ListPayments(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	args := []any{studentID}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ($1 = '' OR student_id = $1)`
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		query += ` AND (payment_date, created_at, payment_id) < ($2, $3, $4)`
		args = append(args, cursor.Date, cursor.CreatedAt, cursor.ID)
	}
	// one extra row tells us whether another page exists
	query += fmt.Sprintf(` ORDER BY payment_date DESC, created_at DESC, payment_id DESC LIMIT %d;`, limit+1)

	rows, err := queryPaymentRows(ctx, r.Pool, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		t := pagination.EncodeToken(pagination.Cursor{Date: last.PaymentDate, CreatedAt: last.CreatedAt, ID: last.PaymentID})
		token = &t
	}

	payments, err := withAllocations(ctx, r.Pool, rows)
	if err != nil {
		return nil, nil, err
	}
	return payments, token, nil
}

// ListPaymentsByStudent lists every payment of a student oldest first.
func (r *PgxPaymentRepository) ListPaymentsByStudent(ctx context.Context, studentID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE student_id = $1
		ORDER BY payment_date, created_at, payment_id;`
	rows, err := queryPaymentRows(ctx, r.Pool, query, studentID)
	if err != nil {
		return nil, err
	}
	return withAllocations(ctx, r.Pool, rows)
}
