package provisioning

// --- Prerequisite resolver ---
//
// Account creation and account configuration are hard gates: while
// either is unmet it is the only legal action. Past the gates the five
// configuration domains and user/role creation are independent, and
// role assignment is derived from a user and a role both existing.

// domainActions pairs each independent domain with its flag, in the
// order Resolve reports them.
var domainActions = []struct {
	action Action
	done   func(*ConfigState) bool
}{
	{ActionIDGenConfigure, func(s *ConfigState) bool { return s.IDGenConfigured }},
	{ActionWorkflowConfigure, func(s *ConfigState) bool { return s.WorkflowConfigured }},
	{ActionNotificationConfigure, func(s *ConfigState) bool { return s.NotificationConfigured }},
	{ActionBoundaryConfigure, func(s *ConfigState) bool { return s.BoundaryConfigured }},
	{ActionRegistryConfigure, func(s *ConfigState) bool { return s.RegistrySchemaConfigured }},
}

// Resolve returns the actions that are legal in the given state, in
// declared catalog order. It has no side effects and never fails.
func Resolve(state *ConfigState) []Action {
	if !state.Account.Created {
		return []Action{ActionAccountCreate}
	}
	if !state.Account.Configured {
		return []Action{ActionAccountConfigure}
	}

	legal := make([]Action, 0, len(domainActions)+3)
	for _, d := range domainActions {
		if !d.done(state) {
			legal = append(legal, d.action)
		}
	}

	if !state.User.Created {
		legal = append(legal, ActionUserCreate)
	}
	if !state.Role.Created {
		legal = append(legal, ActionRoleCreate)
	}
	if state.User.Created && state.Role.Created && !state.RoleAssignmentDone {
		legal = append(legal, ActionRoleAssign)
	}

	return legal
}

// AccountReady reports whether both account gates are satisfied.
func AccountReady(state *ConfigState) bool {
	return state.Account.Created && state.Account.Configured
}

// IsLegal reports whether a is currently legal for state.
func IsLegal(state *ConfigState, a Action) bool {
	return Contains(Resolve(state), a)
}

// Contains reports whether a appears in actions.
func Contains(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

// Strings converts actions to their raw names.
func Strings(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
