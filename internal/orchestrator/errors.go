package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/provisio/internal/provisioning"
)

// Sentinels matched by errors.Is against the typed dispatch errors.
var (
	ErrIllegalAction = errors.New("illegal action")
	ErrUnknownAction = errors.New("unknown action")
	ErrStaleProposal = errors.New("stale proposal")
)

// IllegalActionError is returned when dispatch is requested for an
// action outside the current legal set. State is never mutated.
type IllegalActionError struct {
	Action provisioning.Action
	Legal  []provisioning.Action
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("action %q is not allowed in the current state (allowed: %s)",
		e.Action, joinActions(e.Legal))
}

func (e *IllegalActionError) Is(target error) bool { return target == ErrIllegalAction }

// UnknownActionError is returned when a legal action has no registered
// handler. It signals a wiring bug, not operator input.
type UnknownActionError struct {
	Action provisioning.Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("no handler registered for action %q", e.Action)
}

func (e *UnknownActionError) Is(target error) bool { return target == ErrUnknownAction }

// StaleProposalError is returned when a confirmed proposal stopped being
// legal between proposal and confirmation.
type StaleProposalError struct {
	Action provisioning.Action
	Legal  []provisioning.Action
}

func (e *StaleProposalError) Error() string {
	return fmt.Sprintf("proposed action %q is no longer allowed (allowed: %s)",
		e.Action, joinActions(e.Legal))
}

func (e *StaleProposalError) Is(target error) bool { return target == ErrStaleProposal }

// ErrorCode returns a stable machine-readable code for a dispatch
// error, or "internal" for anything else.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrStaleProposal):
		return "stale_proposal"
	case errors.Is(err, ErrIllegalAction):
		return "illegal_action"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	}
	return "internal"
}

// explain renders a dispatch failure for the operator.
func explain(err error) string {
	var stale *StaleProposalError
	var illegal *IllegalActionError
	var unknown *UnknownActionError
	switch {
	case errors.As(err, &stale):
		return fmt.Sprintf("The setup changed since I proposed %s, so it can't run anymore. "+
			"Please ask again. Available options: %s", stale.Action, joinActions(stale.Legal))
	case errors.As(err, &illegal):
		return fmt.Sprintf("%s isn't available right now. Available options: %s",
			illegal.Action, joinActions(illegal.Legal))
	case errors.As(err, &unknown):
		return fmt.Sprintf("I can't run %s because it isn't installed on this server.", unknown.Action)
	}
	return "Something went wrong: " + err.Error()
}

func joinActions(as []provisioning.Action) string {
	if len(as) == 0 {
		return "none"
	}
	return strings.Join(provisioning.Strings(as), ", ")
}
