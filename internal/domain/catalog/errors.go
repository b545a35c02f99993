package catalog

import (
	"errors"
	"fmt"

	"BakeryStore/internal/controller/apperror"
)

var (
	ErrNotFound = fmt.Errorf("%w: product not found", apperror.ErrNotFound)

	// ErrNotOwner is returned when a vendor touches another vendor's product.
	ErrNotOwner = fmt.Errorf("%w: product belongs to another vendor", apperror.ErrGuardViolation)

	ErrForbidden = fmt.Errorf("%w: only admins and vendors manage the catalog", apperror.ErrGuardViolation)
)

// CapacityError reports a request for more units than the ledger holds.
type CapacityError struct {
	ProductID   string
	ProductName string
	InBasket    int
	Requested   int
	Available   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Insufficient stock! You already have %d in basket, and only %d are available in total.",
		e.InBasket, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == apperror.ErrCapacity
}

// AsCapacityError unwraps err into a *CapacityError when it carries one.
func AsCapacityError(err error) (*CapacityError, bool) {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
