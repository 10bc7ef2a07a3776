package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency defines how often a fee structure bills a student within an academic year.
type Frequency string

const (
	Monthly    Frequency = "MONTHLY"
	Quarterly  Frequency = "QUARTERLY"
	HalfYearly Frequency = "HALF_YEARLY"
	Annual     Frequency = "ANNUAL"
	OneTime    Frequency = "ONE_TIME"
)

// IsValid reports whether f is one of the supported frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case Monthly, Quarterly, HalfYearly, Annual, OneTime:
		return true
	}
	return false
}

// stepMonths returns the period length in months and the number of periods per year.
func (f Frequency) stepMonths() (step int, count int) {
	switch f {
	case Monthly:
		return 1, 12
	case Quarterly:
		return 3, 4
	case HalfYearly:
		return 6, 2
	default:
		return 12, 1
	}
}

// BillingPeriod is one concrete billing instance of a fee structure.
type BillingPeriod struct {
	Key     string    `json:"key"` // unique per structure, part of the charge natural key
	Index   int       `json:"index"`
	DueDate time.Time `json:"dueDate"`
}

// Periods expands the frequency into billing periods for the academic year.
// Periods start at the academic year's start month; the due day is clamped to the month length.
func (f Frequency) Periods(year AcademicYear, dueDay int) []BillingPeriod {
	if dueDay < 1 {
		dueDay = 1
	}
	start := year.StartDate
	step, count := f.stepMonths()

	periods := make([]BillingPeriod, 0, count)
	for i := 0; i < count; i++ {
		monthStart := time.Date(start.Year(), start.Month()+time.Month(i*step), 1, 0, 0, 0, 0, time.UTC)
		lastDay := time.Date(monthStart.Year(), monthStart.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		day := dueDay
		if day > lastDay {
			day = lastDay
		}

		key := fmt.Sprintf("%04d-%02d", monthStart.Year(), int(monthStart.Month()))
		if f == OneTime {
			key = "ONCE"
		}
		periods = append(periods, BillingPeriod{
			Key:     key,
			Index:   i + 1,
			DueDate: time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, time.UTC),
		})
	}
	return periods
}

// FeeCategory is a named kind of fee (tuition, transport, library...).
type FeeCategory struct {
	FeeCategoryID string `json:"feeCategoryID"`
	Name          string `json:"name"`
	Code          string `json:"code"` // unique
	IsMandatory   bool   `json:"isMandatory"`
	IsActive      bool   `json:"isActive"`
	AuditFields
}

// FeeStructure defines how much is owed and how often for a class in an academic year.
// It does not say who owes it; the obligation generator resolves that from enrolment.
type FeeStructure struct {
	FeeStructureID string          `json:"feeStructureID"`
	AcademicYearID string          `json:"academicYearID"`
	ClassID        string          `json:"classID"`
	FeeCategoryID  string          `json:"feeCategoryID"`
	Amount         decimal.Decimal `json:"amount"`
	Frequency      Frequency       `json:"frequency"`
	DueDay         int             `json:"dueDay"` // day of month each period falls due
	IsActive       bool            `json:"isActive"`
	AuditFields
}
