// Package decision turns an intent label and the currently legal actions
// into guidance for the operator.
//
// The engine reads gating exclusively from the legal-action slice the
// resolver produced; it never inspects configuration state itself.
// Every path that reaches a dispatchable action proposes it for
// confirmation instead of executing it.
package decision

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/provisioning"
)

// Kind tags the Decision variant.
type Kind string

const (
	// KindExecute means the intent resolved to a legal action. The
	// resolution policy never produces it; callers must still ask for
	// confirmation when they see one.
	KindExecute Kind = "execute"
	// KindExplain carries guidance text and an optional proposal.
	KindExplain Kind = "explain"
)

// Decision is the outcome of intent resolution.
type Decision struct {
	Kind    Kind
	Action  provisioning.Action // set for KindExecute
	Message string              // set for KindExplain
	// Proposed is the action the operator should confirm next, if any.
	Proposed provisioning.Action
}

// Execute builds a KindExecute decision.
func Execute(a provisioning.Action) Decision {
	return Decision{Kind: KindExecute, Action: a}
}

// Explain builds a KindExplain decision with no proposal.
func Explain(message string) Decision {
	return Decision{Kind: KindExplain, Message: message}
}

// Propose builds a KindExplain decision that proposes a.
func Propose(message string, a provisioning.Action) Decision {
	return Decision{Kind: KindExplain, Message: message, Proposed: a}
}

// Proposal returns the action a confirmation would dispatch: the
// proposed action for Explain, the action itself for Execute.
func (d Decision) Proposal() (provisioning.Action, bool) {
	switch {
	case d.Kind == KindExecute && d.Action != "":
		return d.Action, true
	case d.Proposed != "":
		return d.Proposed, true
	}
	return "", false
}

// confirmQuestion is appended to every proposal message.
func confirmQuestion(a provisioning.Action) string {
	return fmt.Sprintf("Shall I proceed with %s?", a)
}

// availableList renders the legal actions for the fallback message.
func availableList(legal []provisioning.Action) string {
	if len(legal) == 0 {
		return "none"
	}
	return strings.Join(provisioning.Strings(legal), ", ")
}

// directActions maps a label to the action it asks for directly.
var directActions = map[intent.Label]provisioning.Action{
	intent.LabelIDGen:        provisioning.ActionIDGenConfigure,
	intent.LabelWorkflow:     provisioning.ActionWorkflowConfigure,
	intent.LabelBoundary:     provisioning.ActionBoundaryConfigure,
	intent.LabelNotification: provisioning.ActionNotificationConfigure,
	intent.LabelRegistry:     provisioning.ActionRegistryConfigure,
	intent.LabelUser:         provisioning.ActionUserCreate,
	intent.LabelRole:         provisioning.ActionRoleCreate,
	intent.LabelRoleAssign:   provisioning.ActionRoleAssign,
}

// DirectAction returns the action a label maps to, if any.
func DirectAction(l intent.Label) (provisioning.Action, bool) {
	a, ok := directActions[l]
	return a, ok
}
