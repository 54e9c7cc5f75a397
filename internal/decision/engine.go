package decision

import (
	"fmt"

	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/provisioning"
)

// Decide resolves label against the legal actions. It is total and
// never fails.
func Decide(label intent.Label, legal []provisioning.Action) Decision {
	has := func(a provisioning.Action) bool { return provisioning.Contains(legal, a) }

	// pendingAccount is the outstanding gate action, if the gates are
	// still unmet.
	pendingAccount := func() (provisioning.Action, bool) {
		switch {
		case has(provisioning.ActionAccountCreate):
			return provisioning.ActionAccountCreate, true
		case has(provisioning.ActionAccountConfigure):
			return provisioning.ActionAccountConfigure, true
		}
		return "", false
	}

	switch {
	case label == intent.LabelBootstrap:
		if has(provisioning.ActionAccountCreate) {
			return Propose("To get started, I need to create your platform account. "+
				confirmQuestion(provisioning.ActionAccountCreate), provisioning.ActionAccountCreate)
		}
		if has(provisioning.ActionAccountConfigure) {
			return Propose("To get started, I need to configure your platform account. "+
				confirmQuestion(provisioning.ActionAccountConfigure), provisioning.ActionAccountConfigure)
		}
		return Explain("Initial setup is complete. You can now configure workflows, IDs, " +
			"notifications, boundaries, registry schemas, users or roles.")

	case label == intent.LabelAccountConfigure:
		if has(provisioning.ActionAccountConfigure) {
			return Propose("I understand you want to configure your account details. "+
				confirmQuestion(provisioning.ActionAccountConfigure), provisioning.ActionAccountConfigure)
		}
		if has(provisioning.ActionAccountCreate) {
			return Propose("Before configuring account details, I need to create the account first. "+
				confirmQuestion(provisioning.ActionAccountCreate), provisioning.ActionAccountCreate)
		}
		return Explain("Your account is already configured. You can now configure workflows, IDs, " +
			"notifications, boundaries, registry schemas, users or roles.")

	case intent.IsConfigureClass(label):
		if a, ok := pendingAccount(); ok {
			return Propose(fmt.Sprintf("Before I can configure %s, I need to %s first. %s",
				label, provisioning.Describe(a), confirmQuestion(a)), a)
		}

	case label == intent.LabelUser:
		if !has(provisioning.ActionUserCreate) {
			if a, ok := pendingAccount(); ok {
				return Propose("User creation is available after account setup. "+confirmQuestion(a), a)
			}
		}

	case label == intent.LabelRole:
		if !has(provisioning.ActionRoleCreate) {
			if a, ok := pendingAccount(); ok {
				return Propose("Role creation is available after account setup. "+confirmQuestion(a), a)
			}
		}

	case label == intent.LabelRoleAssign:
		if !has(provisioning.ActionRoleAssign) {
			if a, ok := pendingAccount(); ok {
				return Propose("Role assignment is available after account setup. "+confirmQuestion(a), a)
			}
			for _, missing := range []provisioning.Action{provisioning.ActionUserCreate, provisioning.ActionRoleCreate} {
				if has(missing) {
					return Propose("To assign a role, both a user and a role must exist first. "+
						confirmQuestion(missing), missing)
				}
			}
		}
	}

	if a, ok := DirectAction(label); ok && has(a) {
		return Propose(fmt.Sprintf("I understand you want to %s. %s",
			provisioning.Describe(a), confirmQuestion(a)), a)
	}

	return Explain("I'm not sure what you'd like to do. Available options: " + availableList(legal))
}
