// file: service/errors.go

package service

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, closed classification of ledger failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindDuplicateAccount
	KindAccountNotFound
	KindInvalidAmount
	KindInsufficientFunds
	KindSameAccount
	KindConflict
	KindTimeout
	KindStorageFailure
	KindInvalidInput
)

var kindNames = map[ErrorKind]string{
	KindUnknown:           "Unknown",
	KindDuplicateAccount:  "DuplicateAccount",
	KindAccountNotFound:   "AccountNotFound",
	KindInvalidAmount:     "InvalidAmount",
	KindInsufficientFunds: "InsufficientFunds",
	KindSameAccount:       "SameAccount",
	KindConflict:          "Conflict",
	KindTimeout:           "Timeout",
	KindStorageFailure:    "StorageFailure",
	KindInvalidInput:      "InvalidInput",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Retryable reports whether an operation failing with this kind may be re-run
// unchanged with a chance of success.
func (k ErrorKind) Retryable() bool {
	return k == KindConflict
}

// LedgerError is returned by every failing LedgerService operation.
type LedgerError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.Err != nil && e.Kind == KindStorageFailure {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// Is matches any LedgerError of the same kind, so callers can write
// errors.Is(err, service.ErrInsufficientFunds).
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newLedgerError(kind ErrorKind, err error, format string, args ...any) *LedgerError {
	return &LedgerError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

var (
	ErrDuplicateAccount  = &LedgerError{Kind: KindDuplicateAccount, Message: "an account with this number already exists"}
	ErrAccountNotFound   = &LedgerError{Kind: KindAccountNotFound, Message: "account not found"}
	ErrInvalidAmount     = &LedgerError{Kind: KindInvalidAmount, Message: "amount must be positive"}
	ErrInsufficientFunds = &LedgerError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrSameAccount       = &LedgerError{Kind: KindSameAccount, Message: "source and destination accounts cannot be the same"}
	ErrConflict          = &LedgerError{Kind: KindConflict, Message: "concurrent update conflict"}
	ErrTimeout           = &LedgerError{Kind: KindTimeout, Message: "operation timed out"}
	ErrStorageFailure    = &LedgerError{Kind: KindStorageFailure, Message: "storage failure"}
	ErrInvalidInput      = &LedgerError{Kind: KindInvalidInput, Message: "invalid input"}
)

// KindOf extracts the kind of a ledger error, KindUnknown for anything else.
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}
