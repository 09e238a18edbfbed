package wave

import (
	"errors"
	"fmt"
)

// Domain errors for propagation operations.
var (
	// ErrDimensionMismatch indicates a potential rank that does not match the extents.
	ErrDimensionMismatch = errors.New("wave: potential rank does not match number of extents")

	// ErrInvalidGrid indicates a grid with an unsupported rank or non-positive sizes.
	ErrInvalidGrid = errors.New("wave: invalid grid (rank 1-3, positive counts and extents)")

	// ErrShapeMismatch indicates a field whose length differs from the grid size.
	ErrShapeMismatch = errors.New("wave: field length does not match grid size")

	// ErrDomain indicates an operator argument outside its numerical domain.
	ErrDomain = errors.New("wave: operator argument outside numerical domain")

	// ErrInvalidState indicates a state containing NaN or Inf.
	ErrInvalidState = errors.New("wave: invalid state (NaN or Inf detected)")
)

// DomainError wraps ErrDomain with the offending grid location.
type DomainError struct {
	Op    string
	Index int
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s at index %d (value %g)", ErrDomain.Error(), e.Op, e.Index, e.Value)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

// CheckLength returns ErrShapeMismatch when n != size.
func CheckLength(n, size int) error {
	if n != size {
		return fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, n, size)
	}
	return nil
}
