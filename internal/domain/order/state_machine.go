package order

import (
	"fmt"
	"time"

	"BakeryStore/internal/domain/user"
)

// transitions lists the non-handoff moves an order can make. Handoff statuses are
// reached only through an accepted verification code.
var transitions = map[Status][]Status{
	StatusPending:        {StatusPreparing, StatusOutForDelivery, StatusCancelled},
	StatusPreparing:      {StatusReadyForPickup, StatusOutForDelivery, StatusCancelled},
	StatusReadyForPickup: {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusCancelled},
}

func (s Status) CanBeUpdatedTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StateMachine applies updates to orders. It holds no state and never touches storage.
type StateMachine struct {
	verifier HandoffVerifier
}

func NewStateMachine(policy HandoffPolicy) StateMachine {
	return StateMachine{verifier: NewHandoffVerifier(policy)}
}

// Apply returns the order after the update. changed is false when the update was
// accepted without effect, as when a correct code is resubmitted after handoff.
func (m StateMachine) Apply(o Order, actor user.Actor, u Update, now time.Time) (next Order, changed bool, err error) {
	if err := u.Validate(); err != nil {
		return o, false, err
	}
	verification, rest := u.split()

	if o.Status.IsTerminal() {
		if verification != nil && len(rest) == 0 &&
			o.Status == o.DeliveryMethod.HandoffStatus() &&
			codesEqual(o.VerificationCode, verification.Code) {
			return o, false, nil
		}
		return o, false, ErrInFinalStatus
	}

	var handoff Status
	if verification != nil {
		handoff, err = m.verifier.Verify(o, verification.Code, now)
		if err != nil {
			return o, false, err
		}
	}

	next = o
	for _, cmd := range rest {
		switch c := cmd.(type) {
		case AssignHandler:
			next, err = assignHandler(next, actor, c.Handler)
		case SetStatus:
			next, err = setStatus(next, actor, c.Status)
		}
		if err != nil {
			return o, false, err
		}
	}

	if verification != nil {
		next.Status = handoff
		next.SubmittedCode = verification.Code
	}

	changed = next.Status != o.Status || next.AssignedTo != o.AssignedTo || next.SubmittedCode != o.SubmittedCode
	return next, changed, nil
}

func assignHandler(o Order, actor user.Actor, handler string) (Order, error) {
	switch actor.Role {
	case user.RoleDelivery:
		if o.DeliveryMethod != MethodDelivery {
			return o, ErrPickupNotDispatched
		}
		if handler != actor.Name {
			return o, fmt.Errorf("%w: riders may only accept tasks for themselves", ErrNotPermitted)
		}
		if !o.IsUnassigned() && o.AssignedTo != actor.Name {
			return o, ErrAlreadyClaimed
		}
	case user.RoleVendor, user.RoleAdmin:
		if err := checkOwnership(o, actor); err != nil {
			return o, err
		}
		if handler == Unassigned && o.Status == StatusOutForDelivery {
			return o, ErrUnassignInTransit
		}
	default:
		return o, ErrNotPermitted
	}
	o.AssignedTo = handler
	return o, nil
}

func setStatus(o Order, actor user.Actor, target Status) (Order, error) {
	if target == StatusDelivered || target == StatusPickedUp {
		return o, ErrHandoffNeedsCode
	}
	if !o.Status.CanBeUpdatedTo(target) {
		return o, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	if target == StatusOutForDelivery && o.DeliveryMethod != MethodDelivery {
		return o, ErrPickupNotDispatched
	}

	switch actor.Role {
	case user.RoleVendor, user.RoleAdmin:
		if err := checkOwnership(o, actor); err != nil {
			return o, err
		}
		if target == StatusOutForDelivery {
			if o.Status == StatusPending {
				return o, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
			}
			if o.IsUnassigned() {
				return o, ErrNoRiderAssigned
			}
		}
	case user.RoleDelivery:
		if o.IsUnassigned() {
			return o, ErrNoRiderAssigned
		}
		if o.AssignedTo != actor.Name {
			return o, ErrNotAssignee
		}
		if target != StatusOutForDelivery && target != StatusPreparing {
			return o, ErrNotPermitted
		}
	default:
		return o, ErrNotPermitted
	}

	o.Status = target
	return o, nil
}

func checkOwnership(o Order, actor user.Actor) error {
	if actor.Role == user.RoleVendor && o.Vendor != actor.Name {
		return ErrNotOwner
	}
	return nil
}
