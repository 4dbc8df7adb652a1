package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")

	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("amount exceeds available balance")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidBankTxType   = errors.New("invalid piggy bank transaction type")
	ErrAmbiguousShadow     = errors.New("shadow category references both a piggy bank and a credit")
	ErrSystemCategory      = errors.New("system categories cannot be deleted")
)

// StoreError wraps a failed read or write against the backing store with
// the operation that issued it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError returns nil when err is nil so callers can wrap
// unconditionally. Sentinel errors pass through untouched to keep
// errors.Is classification working across layers.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
