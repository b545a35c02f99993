package order

import (
	"errors"
	"fmt"

	"BakeryStore/internal/controller/apperror"
)

var (
	ErrNotFound = fmt.Errorf("%w: order not found", apperror.ErrNotFound)

	ErrInvalidQuery   = fmt.Errorf("%w: invalid orders query", apperror.ErrValidation)
	ErrEmptyUpdate    = fmt.Errorf("%w: update carries no changes", apperror.ErrValidation)
	ErrInvalidUpdate  = fmt.Errorf("%w: invalid update", apperror.ErrValidation)
	ErrEmptyCart      = fmt.Errorf("%w: order has no items", apperror.ErrValidation)
	ErrInvalidCode    = fmt.Errorf("%w: verification code must be 6 digits", apperror.ErrValidation)
	ErrInvalidContact = fmt.Errorf("%w: invalid contact details", apperror.ErrValidation)

	// ErrInFinalStatus is returned for any change to a Delivered, Picked Up or Cancelled order.
	ErrInFinalStatus = fmt.Errorf("%w: order is in a final status", apperror.ErrGuardViolation)

	ErrInvalidTransition   = fmt.Errorf("%w: invalid status transition", apperror.ErrGuardViolation)
	ErrHandoffNeedsCode    = fmt.Errorf("%w: handoff requires the customer's verification code", apperror.ErrGuardViolation)
	ErrNoRiderAssigned     = fmt.Errorf("%w: no rider accepted this task", apperror.ErrGuardViolation)
	ErrPickupNotDispatched = fmt.Errorf("%w: pickup orders are never sent out for delivery", apperror.ErrGuardViolation)
	ErrNotPermitted        = fmt.Errorf("%w: role may not perform this change", apperror.ErrGuardViolation)
	ErrNotOwner            = fmt.Errorf("%w: order belongs to another vendor", apperror.ErrGuardViolation)
	ErrNotAssignee         = fmt.Errorf("%w: task is assigned to another rider", apperror.ErrGuardViolation)
	ErrAlreadyClaimed      = fmt.Errorf("%w: task already accepted by another rider", apperror.ErrGuardViolation)
	ErrUnassignInTransit   = fmt.Errorf("%w: cannot unassign an order out for delivery", apperror.ErrGuardViolation)
	ErrNotAwaitingHandoff  = fmt.Errorf("%w: order is not awaiting handoff", apperror.ErrGuardViolation)

	ErrCodeMismatch = fmt.Errorf("%w: invalid OTP code", apperror.ErrVerificationMismatch)
	ErrCodeExpired  = fmt.Errorf("%w: verification code expired", apperror.ErrVerificationMismatch)
)

// Outcome classifies an update result the way clients see it.
type Outcome string

const (
	OutcomeApplied              Outcome = "applied"
	OutcomeRejectedGuard        Outcome = "rejected_guard"
	OutcomeRejectedVerification Outcome = "rejected_verification"
	OutcomeRejectedInput        Outcome = "rejected_input"
	OutcomeFailed               Outcome = "failed"
)

func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, apperror.ErrVerificationMismatch):
		return OutcomeRejectedVerification
	case errors.Is(err, apperror.ErrGuardViolation):
		return OutcomeRejectedGuard
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrNotFound):
		return OutcomeRejectedInput
	default:
		return OutcomeFailed
	}
}
