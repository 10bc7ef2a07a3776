package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request is valid but clashes with the current ledger state
// (charge already settled, overpayment against the current balance, already reversed).
var ErrConflict = errors.New("conflict with current state")

// ErrConcurrentUpdate indicates a concurrent writer won the race for the same rows.
// It wraps ErrConflict so callers that only care about conflicts still match it.
var ErrConcurrentUpdate = fmt.Errorf("%w: concurrent update", ErrConflict)

// ErrDuplicateReceipt means the receipt sequence handed out a number that already exists.
// It must never reach a correct caller and is not retried.
var ErrDuplicateReceipt = errors.New("duplicate receipt number")

// ErrForbidden indicates the caller is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal is returned when an unexpected internal failure is hidden from the caller.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// LedgerError describes which charge and which constraint rejected a ledger operation,
// so a UI can re-render corrected totals without reloading.
type LedgerError struct {
	Kind         error  `json:"-"`
	Constraint   string `json:"constraint"`
	Message      string `json:"message"`
	StudentFeeID string `json:"studentFeeID,omitempty"`
	PaymentID    string `json:"paymentID,omitempty"`
	Expected     string `json:"expected,omitempty"`
	Actual       string `json:"actual,omitempty"`
}

func (e *LedgerError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind.Error(), e.Message)
	if e.StudentFeeID != "" {
		msg += " (student fee " + e.StudentFeeID + ")"
	}
	return msg
}

func (e *LedgerError) Unwrap() error {
	return e.Kind
}

// NewValidationError builds a LedgerError of kind ErrValidation.
func NewValidationError(constraint, message string) *LedgerError {
	return &LedgerError{Kind: ErrValidation, Constraint: constraint, Message: message}
}

// NewConflictError builds a LedgerError of kind ErrConflict for a specific charge.
func NewConflictError(constraint, studentFeeID, message string) *LedgerError {
	return &LedgerError{Kind: ErrConflict, Constraint: constraint, StudentFeeID: studentFeeID, Message: message}
}

// NewNotFoundError builds a LedgerError of kind ErrNotFound.
func NewNotFoundError(constraint, message string) *LedgerError {
	return &LedgerError{Kind: ErrNotFound, Constraint: constraint, Message: message}
}

// HTTPStatus maps an error chain to the status code the API should answer with.
func HTTPStatus(err error) int {
	var appErr *AppError
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &appErr) && appErr.Code != 0:
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}
