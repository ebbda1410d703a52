package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid split request")
	// ErrReconciliation is matched by every *ReconciliationError.
	ErrReconciliation = errors.New("amounts do not reconcile")
	// ErrInvariant is matched by every *InvariantViolation.
	ErrInvariant = errors.New("invariant violation")
)

// ValidationError reports a structurally impossible split request:
// empty participant sets, a single-user split, all-zero weights.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ReconciliationError reports sums that do not match: percentages not
// totalling 100, custom amounts or contributions not totalling the expense.
type ReconciliationError struct {
	What string
	Want string
	Got  string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s: %s must total %s, got %s", ErrReconciliation, e.What, e.Want, e.Got)
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }

// InvariantViolation reports a malformed edge reaching the aggregator.
// It indicates a bug in whatever produced the edge, not a user error.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariant, e.Reason)
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariant }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
