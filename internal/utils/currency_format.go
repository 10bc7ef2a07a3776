package utils

import "github.com/shopspring/decimal"

// AmountPrecision is the number of decimal places every ledger amount carries.
const AmountPrecision = 2

// FormatAmount renders an amount with exactly AmountPrecision decimals.
// Example: 1500 returns "1500.00", 12.3 returns "12.30"
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountPrecision)
}

// HasAmountPrecision reports whether amount has no digits beyond AmountPrecision.
func HasAmountPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(AmountPrecision))
}
