package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1500.00", FormatAmount(decimal.NewFromInt(1500)))
	assert.Equal(t, "12.30", FormatAmount(decimal.RequireFromString("12.3")))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
}

func TestHasAmountPrecision(t *testing.T) {
	assert.True(t, HasAmountPrecision(decimal.RequireFromString("10.25")))
	assert.True(t, HasAmountPrecision(decimal.NewFromInt(7)))
	assert.False(t, HasAmountPrecision(decimal.RequireFromString("10.255")))
}
