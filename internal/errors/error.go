// Package errors provides custom error types for inventory operations.
package errors

import (
	"errors"
	"strings"
)

var ErrProductNotFound = errors.New("product not found")
var ErrSaleNotFound = errors.New("sale not found")

var ErrInsufficientStock = errors.New("insufficient stock")

// ErrStorage wraps every failure reported by the underlying store.
var ErrStorage = errors.New("storage failure")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")

// Violation describes a single broken field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError aggregates all rule violations found in one payload.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// NewValidationError builds a ValidationError from the given violations.
func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// AsValidationError reports whether err carries a ValidationError and returns it.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
