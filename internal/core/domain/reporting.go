package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SummaryScope narrows the financial summary. Empty fields mean "all".
type SummaryScope struct {
	AcademicYearID string `json:"academicYearID,omitempty"`
	StudentID      string `json:"studentID,omitempty"`
}

// FeeTotals are the charge-side sums for a scope.
type FeeTotals struct {
	TotalFees    decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalWaived  decimal.Decimal
	TotalPending decimal.Decimal
}

// FinancialSummary is the dashboard rollup. It is derived on demand and never stored.
type FinancialSummary struct {
	TotalFees      decimal.Decimal `json:"totalFees"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	TotalWaived    decimal.Decimal `json:"totalWaived"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	NetBalance     decimal.Decimal `json:"netBalance"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// EntryType marks a statement line as a charge or a payment.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// StatementEntry is one line of a student statement.
type StatementEntry struct {
	EntryType      EntryType       `json:"entryType"`
	Date           time.Time       `json:"date"`
	Reference      string          `json:"reference"` // student fee id or receipt number
	SourceID       string          `json:"sourceID"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Statement is the chronological merge of a student's charges and completed payments,
// newest first.
type Statement struct {
	StudentID      string           `json:"studentID"`
	Entries        []StatementEntry `json:"entries"`
	TotalDebits    decimal.Decimal  `json:"totalDebits"`
	TotalCredits   decimal.Decimal  `json:"totalCredits"`
	ClosingBalance decimal.Decimal  `json:"closingBalance"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// Receipt is the read model behind a rendered receipt document.
type Receipt struct {
	ReceiptNumber  string          `json:"receiptNumber"`
	PaymentID      string          `json:"paymentID"`
	StudentID      string          `json:"studentID"`
	StudentName    string          `json:"studentName"`
	AdmissionNo    string          `json:"admissionNumber"`
	PaymentDate    time.Time       `json:"paymentDate"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	TransactionRef string          `json:"transactionRef,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Status         PaymentStatus   `json:"status"`
	Remarks        string          `json:"remarks,omitempty"`
	ReversalReason string          `json:"reversalReason,omitempty"`
	Lines          []ReceiptLine   `json:"lines"`
}

// ReceiptLine is one allocation as printed on the receipt.
type ReceiptLine struct {
	StudentFeeID  string          `json:"studentFeeID"`
	FeeCategory   string          `json:"feeCategory"`
	BillingPeriod string          `json:"billingPeriod"`
	DueDate       time.Time       `json:"dueDate"`
	Amount        decimal.Decimal `json:"amount"`
}

// FormatReceiptNumber renders a receipt number such as RC-2025-000123.
func FormatReceiptNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, seq)
}
