package apperr

import (
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"time"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNotUsable         = errors.New("withdrawal method not usable")
	ErrDuplicateConflict = errors.New("duplicate withdrawal")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransient         = errors.New("temporary store failure")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Kind of application error, see KindOf
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindNotUsable
	KindDuplicateConflict
	KindInsufficientFunds
	KindTransient
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindNotUsable:
		return "not_usable"
	case KindDuplicateConflict:
		return "duplicate_conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindTransient:
		return "transient"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotUsable):
		return KindNotUsable
	case errors.Is(err, ErrDuplicateConflict):
		return KindDuplicateConflict
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	}
	return KindInternal
}

// Retryable reports whether the caller may retry the failed operation.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// DuplicateError is returned when a completed withdrawal of the same amount
// was requested within the duplicate window. The request may be resubmitted
// with the override flag.
type DuplicateError struct {
	Amount           decimal.Decimal
	LastWithdrawalAt time.Time
	AllowOverride    bool
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("withdrawal of %s already requested at %s", e.Amount.StringFixed(2), e.LastWithdrawalAt.Format(time.RFC3339))
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateConflict
}

type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s, available %s", e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// TransientError wraps a store failure that is safe to retry.
// It matches ErrTransient and unwraps to the cause.
type TransientError struct {
	Err error
}

func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return &TransientError{Err: err}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransient.Error(), e.Err)
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
