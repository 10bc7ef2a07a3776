package pagination

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_fee_ledger/internal/apperrors"
)

func TestEncodeDecodeToken(t *testing.T) {
	cursor := Cursor{
		Date:      time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, 5, 15, 14, 30, 45, 123456789, time.UTC),
		ID:        "9b1f3c9e-1111-4c1e-9a51-000000000001",
	}

	token := EncodeToken(cursor)
	assert.NotEmpty(t, token)

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, cursor.Date.Equal(decoded.Date))
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)
}

func TestDecodeTokenError(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		errPart string
	}{
		{"not base64", "this is not base64!", "base64 decode"},
		{"missing fields", base64.RawURLEncoding.EncodeToString([]byte("2025-05-15T00:00:00Z")), "split"},
		{"bad date", base64.RawURLEncoding.EncodeToString([]byte("yesterday|2025-05-15T00:00:00Z|id")), "date parse"},
		{"bad created_at", base64.RawURLEncoding.EncodeToString([]byte("2025-05-15T00:00:00Z|later|id")), "created_at parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestCursorBefore(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created := day.Add(10 * time.Hour)
	c := Cursor{Date: day, CreatedAt: created, ID: "m"}

	assert.True(t, c.Before(day.AddDate(0, 0, -1), created, "z"), "older date is on the next page")
	assert.False(t, c.Before(day.AddDate(0, 0, 1), created, "a"), "newer date was on this page")
	assert.True(t, c.Before(day, created.Add(-time.Second), "z"))
	assert.True(t, c.Before(day, created, "a"))
	assert.False(t, c.Before(day, created, "m"), "the cursor row itself is excluded")
}
