package health

import (
	"errors"
	"fmt"

	"frizo/collateral_engine/internal/fixed"
)

// Every failure below is fatal to the computation in progress. Callers treat
// the account as unknown health and take no action for the cycle.
var (
	ErrArithmeticOverflow   = fixed.ErrOverflow
	ErrDivisionByZero       = fixed.ErrDivisionByZero
	ErrInvalidWeight        = errors.New("invalid weight")
	ErrUnknownVenueKind     = errors.New("unknown venue kind")
	ErrUnknownFractionKind  = errors.New("unknown margin fraction kind")
	ErrInconsistentSnapshot = errors.New("inconsistent snapshot")
)

var failures = []error{
	ErrArithmeticOverflow,
	ErrDivisionByZero,
	ErrInvalidWeight,
	ErrUnknownVenueKind,
	ErrUnknownFractionKind,
	ErrInconsistentSnapshot,
}

// ComputationError records which venue and operation failed.
type ComputationError struct {
	Venue string
	Op    string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Venue, e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Wrap annotates err with venue and operation. A nil err stays nil and an
// error that is already a ComputationError is returned unchanged.
func Wrap(venue, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ComputationError
	if errors.As(err, &ce) {
		return err
	}
	return &ComputationError{Venue: venue, Op: op, Err: err}
}

// Inconsistent builds an ErrInconsistentSnapshot with detail.
func Inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistentSnapshot, fmt.Sprintf(format, args...))
}

// IsComputationFailure reports whether err belongs to the engine's failure
// taxonomy, as opposed to a collaborator error such as I/O.
func IsComputationFailure(err error) bool {
	for _, target := range failures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
