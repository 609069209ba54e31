package ringq

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is returned (or used as panic value) when an operation
	// is called with a nil handle, a nil or short element, or a nil predicate.
	ErrPrecondition = errors.New("ringq: precondition violated")

	// ErrAllocatorNotConfigured is returned when no allocator has been
	// registered or passed to a constructor.
	ErrAllocatorNotConfigured = errors.New("ringq: allocator not configured")

	// ErrAllocation is returned when the allocator fails to provide memory.
	ErrAllocation = errors.New("ringq: allocation failed")

	// ErrFull is returned when enqueueing into a full queue.
	ErrFull = errors.New("ringq: queue is full")

	// ErrEmpty is returned when dequeueing or peeking an empty queue.
	ErrEmpty = errors.New("ringq: queue is empty")
)

// PreconditionError describes a contract violation by the caller.
type PreconditionError struct {
	Op     string
	Reason string
}

// NewPreconditionError returns a new precondition error for the given operation.
func NewPreconditionError(op, reason string) *PreconditionError {
	return &PreconditionError{
		Op:     op,
		Reason: reason,
	}
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("ringq: %s: %s", e.Op, e.Reason)
}

// Unwrap makes errors.Is(err, ErrPrecondition) hold.
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}
