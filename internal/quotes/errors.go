package quotes

import (
	"errors"
	"fmt"

	"github.com/aura-travel/backend/internal/i18n"
	"github.com/aura-travel/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("quote request not found")
	ErrForbidden         = errors.New("action not allowed for this role")
	ErrNoAgency          = errors.New("no agency registered for this account")
	ErrAgencyNotActive   = errors.New("agency is not active")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCreateFailed      = errors.New("quote request could not be saved")
	ErrUpdateFailed      = errors.New("quote request could not be updated")
)

// TransitionReason says why the state machine refused a transition.
type TransitionReason string

const (
	ReasonTerminal      TransitionReason = "terminal"
	ReasonUnknownStatus TransitionReason = "unknown_status"
	ReasonWrongActor    TransitionReason = "wrong_actor"
	ReasonNotAllowed    TransitionReason = "not_allowed"
	ReasonUnchanged     TransitionReason = "unchanged"
)

// TransitionError is a refused transition. It matches ErrInvalidTransition.
type TransitionError struct {
	From   models.Status    `json:"from"`
	To     string           `json:"to"`
	Role   models.Role      `json:"role"`
	Reason TransitionReason `json:"reason"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s as %s (%s)", e.From, e.To, e.Role, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// MessageKey implements i18n.Localizable.
func (e *TransitionError) MessageKey() (string, []any) {
	return "quote.invalid_transition", []any{string(e.From), e.To, string(e.Role)}
}

// ValidationError is the first rule a payload broke.
type ValidationError struct {
	Rule string
	Args []any
}

func (e *ValidationError) Error() string {
	key, args := e.MessageKey()
	return i18n.Message(i18n.English(), key, args...)
}

// MessageKey implements i18n.Localizable.
func (e *ValidationError) MessageKey() (string, []any) {
	return "validation." + e.Rule, e.Args
}

func invalid(rule string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Args: args}
}

var (
	_ i18n.Localizable = (*TransitionError)(nil)
	_ i18n.Localizable = (*ValidationError)(nil)
)
