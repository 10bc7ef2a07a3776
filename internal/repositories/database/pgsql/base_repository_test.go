package pgsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
)

func TestMapPgError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrNotFound},
		{"receipt number clash", &pgconn.PgError{Code: "23505", ConstraintName: "payments_receipt_number_key"}, apperrors.ErrDuplicateReceipt},
		{"idempotency key clash", &pgconn.PgError{Code: "23505", ConstraintName: "payments_idempotency_key_key"}, apperrors.ErrDuplicate},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperrors.ErrConcurrentUpdate},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperrors.ErrConcurrentUpdate},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "student_fees_balance_check"}, apperrors.ErrConflict},
		{"wrapped", fmt.Errorf("insert payment: %w", &pgconn.PgError{Code: "40001"}), apperrors.ErrConcurrentUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapPgError(tt.in), tt.want)
		})
	}

	assert.Same(t, plain, mapPgError(plain))
	assert.NoError(t, mapPgError(nil))
	assert.NotErrorIs(t, mapPgError(&pgconn.PgError{Code: "23505"}), apperrors.ErrDuplicateReceipt)
}
