package orders

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain errors are expected outcomes, not faults. Handlers match on them
// to pick a response; anything else is a system fault.
var (
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrOrderNotFound      = errors.New("order not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrUserNotFound       = errors.New("user not found")
)

type InsufficientStockError struct {
	VariantID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}
