package decision

import (
	"strings"
	"testing"

	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/provisioning"
)

// --- Helpers ---

var (
	gateCreate    = []provisioning.Action{provisioning.ActionAccountCreate}
	gateConfigure = []provisioning.Action{provisioning.ActionAccountConfigure}
)

func readyLegal() []provisioning.Action {
	return provisioning.Resolve(&provisioning.ConfigState{
		Account: provisioning.AccountState{Created: true, Configured: true},
	})
}

func assertProposes(t *testing.T, d Decision, want provisioning.Action) {
	t.Helper()
	if d.Kind != KindExplain {
		t.Fatalf("Kind = %s, want explain", d.Kind)
	}
	if d.Proposed != want {
		t.Fatalf("Proposed = %q, want %q (message: %s)", d.Proposed, want, d.Message)
	}
	if d.Message == "" {
		t.Error("proposal should carry a message")
	}
}

func assertNoProposal(t *testing.T, d Decision) {
	t.Helper()
	if d.Kind != KindExplain {
		t.Fatalf("Kind = %s, want explain", d.Kind)
	}
	if d.Proposed != "" {
		t.Fatalf("Proposed = %q, want none", d.Proposed)
	}
}

// --- Bootstrap ---

func TestDecide_BootstrapProposesCreate(t *testing.T) {
	assertProposes(t, Decide(intent.LabelBootstrap, gateCreate), provisioning.ActionAccountCreate)
}

func TestDecide_BootstrapProposesConfigure(t *testing.T) {
	assertProposes(t, Decide(intent.LabelBootstrap, gateConfigure), provisioning.ActionAccountConfigure)
}

func TestDecide_BootstrapComplete(t *testing.T) {
	d := Decide(intent.LabelBootstrap, readyLegal())
	assertNoProposal(t, d)
	if !strings.Contains(d.Message, "complete") {
		t.Errorf("message should say setup is complete, got: %s", d.Message)
	}
}

// --- Account configure ---

func TestDecide_AccountConfigureDirect(t *testing.T) {
	assertProposes(t, Decide(intent.LabelAccountConfigure, gateConfigure), provisioning.ActionAccountConfigure)
}

func TestDecide_AccountConfigureRedirectsToCreate(t *testing.T) {
	d := Decide(intent.LabelAccountConfigure, gateCreate)
	assertProposes(t, d, provisioning.ActionAccountCreate)
	if !strings.Contains(d.Message, "create the account first") {
		t.Errorf("message should explain the redirect, got: %s", d.Message)
	}
}

func TestDecide_AccountConfigureAlreadyDone(t *testing.T) {
	d := Decide(intent.LabelAccountConfigure, readyLegal())
	assertNoProposal(t, d)
	if !strings.Contains(d.Message, "already configured") {
		t.Errorf("message should say already configured, got: %s", d.Message)
	}
}

// --- Configure-class intents ---

func TestDecide_ConfigureClassBehindGate(t *testing.T) {
	labels := []intent.Label{
		intent.LabelIDGen, intent.LabelWorkflow, intent.LabelBoundary,
		intent.LabelNotification, intent.LabelRegistry,
	}
	for _, l := range labels {
		d := Decide(l, gateCreate)
		assertProposes(t, d, provisioning.ActionAccountCreate)
		if !strings.Contains(d.Message, string(l)) {
			t.Errorf("%s: message should name the domain, got: %s", l, d.Message)
		}
		assertProposes(t, Decide(l, gateConfigure), provisioning.ActionAccountConfigure)
	}
}

func TestDecide_ConfigureClassDirect(t *testing.T) {
	tests := map[intent.Label]provisioning.Action{
		intent.LabelIDGen:        provisioning.ActionIDGenConfigure,
		intent.LabelWorkflow:     provisioning.ActionWorkflowConfigure,
		intent.LabelBoundary:     provisioning.ActionBoundaryConfigure,
		intent.LabelNotification: provisioning.ActionNotificationConfigure,
		intent.LabelRegistry:     provisioning.ActionRegistryConfigure,
	}
	for l, want := range tests {
		d := Decide(l, readyLegal())
		assertProposes(t, d, want)
		if !strings.Contains(d.Message, provisioning.Describe(want)) {
			t.Errorf("%s: message should describe the action, got: %s", l, d.Message)
		}
	}
}

func TestDecide_ConfigureClassAlreadyDoneFallsBack(t *testing.T) {
	legal := []provisioning.Action{provisioning.ActionUserCreate}
	d := Decide(intent.LabelWorkflow, legal)
	assertNoProposal(t, d)
	if !strings.Contains(d.Message, "Available options: user.create") {
		t.Errorf("fallback should list available actions, got: %s", d.Message)
	}
}

// --- User and role ---

func TestDecide_UserBehindGate(t *testing.T) {
	assertProposes(t, Decide(intent.LabelUser, gateCreate), provisioning.ActionAccountCreate)
	assertProposes(t, Decide(intent.LabelUser, gateConfigure), provisioning.ActionAccountConfigure)
}

func TestDecide_UserDirect(t *testing.T) {
	assertProposes(t, Decide(intent.LabelUser, readyLegal()), provisioning.ActionUserCreate)
}

func TestDecide_RoleBehindGate(t *testing.T) {
	assertProposes(t, Decide(intent.LabelRole, gateCreate), provisioning.ActionAccountCreate)
	assertProposes(t, Decide(intent.LabelRole, gateConfigure), provisioning.ActionAccountConfigure)
}

func TestDecide_RoleDirect(t *testing.T) {
	assertProposes(t, Decide(intent.LabelRole, readyLegal()), provisioning.ActionRoleCreate)
}

func TestDecide_UserAlreadyCreatedFallsBack(t *testing.T) {
	legal := []provisioning.Action{provisioning.ActionRoleCreate}
	assertNoProposal(t, Decide(intent.LabelUser, legal))
}

// --- Role assignment ---

func TestDecide_RoleAssignPrefersMissingUser(t *testing.T) {
	// Both missing: user first.
	assertProposes(t, Decide(intent.LabelRoleAssign, readyLegal()), provisioning.ActionUserCreate)
}

func TestDecide_RoleAssignOnlyUserLegal(t *testing.T) {
	legal := []provisioning.Action{provisioning.ActionUserCreate}
	assertProposes(t, Decide(intent.LabelRoleAssign, legal), provisioning.ActionUserCreate)
}

func TestDecide_RoleAssignOnlyRoleMissing(t *testing.T) {
	legal := []provisioning.Action{provisioning.ActionWorkflowConfigure, provisioning.ActionRoleCreate}
	assertProposes(t, Decide(intent.LabelRoleAssign, legal), provisioning.ActionRoleCreate)
}

func TestDecide_RoleAssignBehindGate(t *testing.T) {
	assertProposes(t, Decide(intent.LabelRoleAssign, gateCreate), provisioning.ActionAccountCreate)
}

func TestDecide_RoleAssignDirect(t *testing.T) {
	legal := []provisioning.Action{provisioning.ActionRoleAssign}
	assertProposes(t, Decide(intent.LabelRoleAssign, legal), provisioning.ActionRoleAssign)
}

func TestDecide_RoleAssignDoneFallsBack(t *testing.T) {
	legal := []provisioning.Action{provisioning.ActionBoundaryConfigure}
	assertNoProposal(t, Decide(intent.LabelRoleAssign, legal))
}

// --- Fallback ---

func TestDecide_UnknownListsAvailable(t *testing.T) {
	d := Decide(intent.LabelUnknown, gateCreate)
	assertNoProposal(t, d)
	if !strings.HasSuffix(d.Message, "Available options: account.create") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestDecide_UnknownNothingLeft(t *testing.T) {
	d := Decide(intent.LabelUnknown, nil)
	if !strings.HasSuffix(d.Message, "Available options: none") {
		t.Errorf("message = %q", d.Message)
	}
}

// --- Always confirm ---

func TestDecide_NeverExecutes(t *testing.T) {
	labels := []intent.Label{
		intent.LabelBootstrap, intent.LabelAccountConfigure, intent.LabelIDGen,
		intent.LabelWorkflow, intent.LabelBoundary, intent.LabelNotification,
		intent.LabelRegistry, intent.LabelUser, intent.LabelRole,
		intent.LabelRoleAssign, intent.LabelUnknown,
	}
	legalSets := [][]provisioning.Action{gateCreate, gateConfigure, readyLegal(), nil,
		{provisioning.ActionRoleAssign}, {provisioning.ActionUserCreate}}

	for _, l := range labels {
		for _, legal := range legalSets {
			d := Decide(l, legal)
			if d.Kind == KindExecute {
				t.Fatalf("Decide(%s, %v) returned Execute", l, legal)
			}
		}
	}
}

func TestDecide_ProposalsAreLegal(t *testing.T) {
	labels := []intent.Label{
		intent.LabelBootstrap, intent.LabelAccountConfigure, intent.LabelIDGen,
		intent.LabelWorkflow, intent.LabelBoundary, intent.LabelNotification,
		intent.LabelRegistry, intent.LabelUser, intent.LabelRole,
		intent.LabelRoleAssign, intent.LabelUnknown,
	}
	legalSets := [][]provisioning.Action{gateCreate, gateConfigure, readyLegal(), nil,
		{provisioning.ActionRoleAssign}, {provisioning.ActionUserCreate}, {provisioning.ActionRoleCreate}}

	for _, l := range labels {
		for _, legal := range legalSets {
			d := Decide(l, legal)
			if d.Proposed != "" && !provisioning.Contains(legal, d.Proposed) {
				t.Fatalf("Decide(%s, %v) proposed illegal %q", l, legal, d.Proposed)
			}
		}
	}
}

// --- Decision helpers ---

func TestDecision_Proposal(t *testing.T) {
	if a, ok := Execute(provisioning.ActionRoleCreate).Proposal(); !ok || a != provisioning.ActionRoleCreate {
		t.Errorf("Execute proposal = %q, %v", a, ok)
	}
	if a, ok := Propose("m", provisioning.ActionUserCreate).Proposal(); !ok || a != provisioning.ActionUserCreate {
		t.Errorf("Propose proposal = %q, %v", a, ok)
	}
	if _, ok := Explain("m").Proposal(); ok {
		t.Error("Explain without proposal should report none")
	}
}
