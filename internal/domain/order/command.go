package order

import (
	"fmt"
	"strings"
)

// Command is one requested change inside an Update.
type Command interface {
	command()
}

// AssignHandler sets the rider or staff member responsible for the order.
type AssignHandler struct {
	Handler string
}

// SetStatus asks for a non-handoff status change.
type SetStatus struct {
	Status Status
}

// SubmitVerification carries the code the customer showed at handoff.
type SubmitVerification struct {
	Code string
}

func (AssignHandler) command()      {}
func (SetStatus) command()          {}
func (SubmitVerification) command() {}

// Update is applied to an order atomically: either every command lands or none does.
type Update struct {
	Commands []Command
}

func NewUpdate(commands ...Command) Update {
	return Update{Commands: commands}
}

func (u Update) Validate() error {
	if len(u.Commands) == 0 {
		return ErrEmptyUpdate
	}
	seen := map[string]bool{}
	for _, cmd := range u.Commands {
		kind := fmt.Sprintf("%T", cmd)
		if seen[kind] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidUpdate, kind)
		}
		seen[kind] = true

		switch c := cmd.(type) {
		case AssignHandler:
			if strings.TrimSpace(c.Handler) == "" {
				return fmt.Errorf("%w: handler name is required", ErrInvalidUpdate)
			}
		case SetStatus:
			if _, err := NewStatus(string(c.Status)); err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidUpdate, err.Error())
			}
		case SubmitVerification:
			if !IsWellFormedCode(c.Code) {
				return ErrInvalidCode
			}
		}
	}
	return nil
}

func (u Update) SubmitsCode() bool {
	for _, cmd := range u.Commands {
		if _, ok := cmd.(SubmitVerification); ok {
			return true
		}
	}
	return false
}

// split separates the verification command from the rest, preserving their order.
func (u Update) split() (*SubmitVerification, []Command) {
	var verification *SubmitVerification
	rest := make([]Command, 0, len(u.Commands))
	for _, cmd := range u.Commands {
		if v, ok := cmd.(SubmitVerification); ok {
			verification = &v
			continue
		}
		rest = append(rest, cmd)
	}
	return verification, rest
}

// UpdateOrderRequest is the partial-update payload clients send.
type UpdateOrderRequest struct {
	Status           *string `json:"status"`
	AssignedTo       *string `json:"assignedTo"`
	RiderProvidedOTP *string `json:"riderProvidedOTP"`
}

// ToUpdate turns the payload into commands: assignment first, then status, then verification.
// A blank code counts as no code.
func (r UpdateOrderRequest) ToUpdate() (Update, error) {
	var commands []Command
	if r.AssignedTo != nil {
		commands = append(commands, AssignHandler{Handler: strings.TrimSpace(*r.AssignedTo)})
	}
	if r.Status != nil {
		status, err := NewStatus(*r.Status)
		if err != nil {
			return Update{}, fmt.Errorf("%w: %s", ErrInvalidUpdate, err.Error())
		}
		commands = append(commands, SetStatus{Status: status})
	}
	if r.RiderProvidedOTP != nil {
		if code := strings.TrimSpace(*r.RiderProvidedOTP); code != "" {
			commands = append(commands, SubmitVerification{Code: code})
		}
	}
	update := NewUpdate(commands...)
	if err := update.Validate(); err != nil {
		return Update{}, err
	}
	return update, nil
}

type UpdateResult struct {
	Order   Order   `json:"order"`
	Outcome Outcome `json:"outcome"`
	// Changed is false when the update was accepted but left the order as it was.
	Changed bool `json:"changed"`
}
