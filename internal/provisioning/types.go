// Package provisioning holds the configuration ledger of one tenant and
// the prerequisite model that decides which provisioning actions are
// legal at any moment.
//
// This package follows the same layout as the rest of the module:
// - types.go: the state record and the action catalog
// - resolver.go: the pure gating function over that state
package provisioning

import (
	"errors"
	"fmt"
)

// --- Action catalog ---

// Action is the dot-namespaced name of a provisioning action.
// Names are case-sensitive and fixed.
type Action string

const (
	ActionAccountCreate         Action = "account.create"
	ActionAccountConfigure      Action = "account.configure"
	ActionIDGenConfigure        Action = "idgen.configure"
	ActionWorkflowConfigure     Action = "workflow.configure"
	ActionNotificationConfigure Action = "notification.configure"
	ActionBoundaryConfigure     Action = "boundary.configure"
	ActionRegistryConfigure     Action = "registry.configure"
	ActionUserCreate            Action = "user.create"
	ActionRoleCreate            Action = "role.create"
	ActionRoleAssign            Action = "role.assign"
)

// catalog is the declared action order. Resolve emits legal actions
// in this order.
var catalog = []Action{
	ActionAccountCreate,
	ActionAccountConfigure,
	ActionIDGenConfigure,
	ActionWorkflowConfigure,
	ActionNotificationConfigure,
	ActionBoundaryConfigure,
	ActionRegistryConfigure,
	ActionUserCreate,
	ActionRoleCreate,
	ActionRoleAssign,
}

// descriptions maps each action to the phrase used when proposing it.
var descriptions = map[Action]string{
	ActionAccountCreate:         "create your platform account",
	ActionAccountConfigure:      "configure and authenticate your account",
	ActionIDGenConfigure:        "configure unique ID generation",
	ActionWorkflowConfigure:     "configure workflows",
	ActionNotificationConfigure: "configure notifications",
	ActionBoundaryConfigure:     "configure boundaries",
	ActionRegistryConfigure:     "configure registry schemas",
	ActionUserCreate:            "create a user",
	ActionRoleCreate:            "create a role",
	ActionRoleAssign:            "assign a role to a user",
}

// prerequisites lists, per action, the actions that must have run first.
// It documents the gating rules for humans (catalog resource, status
// tool); Resolve is the source of truth.
var prerequisites = map[Action][]Action{
	ActionAccountCreate:         nil,
	ActionAccountConfigure:      {ActionAccountCreate},
	ActionIDGenConfigure:        {ActionAccountCreate, ActionAccountConfigure},
	ActionWorkflowConfigure:     {ActionAccountCreate, ActionAccountConfigure},
	ActionNotificationConfigure: {ActionAccountCreate, ActionAccountConfigure},
	ActionBoundaryConfigure:     {ActionAccountCreate, ActionAccountConfigure},
	ActionRegistryConfigure:     {ActionAccountCreate, ActionAccountConfigure},
	ActionUserCreate:            {ActionAccountCreate, ActionAccountConfigure},
	ActionRoleCreate:            {ActionAccountCreate, ActionAccountConfigure},
	ActionRoleAssign:            {ActionAccountCreate, ActionAccountConfigure, ActionUserCreate, ActionRoleCreate},
}

// Catalog returns every known action in declared order.
// The returned slice is a copy.
func Catalog() []Action {
	out := make([]Action, len(catalog))
	copy(out, catalog)
	return out
}

// ParseAction converts a raw name into an Action.
// Returns false for names outside the catalog.
func ParseAction(name string) (Action, bool) {
	a := Action(name)
	_, ok := descriptions[a]
	return a, ok
}

// Describe returns the human-readable phrase for an action,
// or "proceed" for names outside the catalog.
func Describe(a Action) string {
	if d, ok := descriptions[a]; ok {
		return d
	}
	return "proceed"
}

// Prerequisites returns the actions that must complete before a.
func Prerequisites(a Action) []Action {
	pre := prerequisites[a]
	out := make([]Action, len(pre))
	copy(out, pre)
	return out
}

// --- Configuration state ---

// AccountState tracks the platform account. AccessToken is only set
// once the account is configured.
type AccountState struct {
	Created     bool   `json:"created"`
	Configured  bool   `json:"configured"`
	AccessToken string `json:"access_token,omitempty"`
}

// UserState tracks whether a platform user exists.
type UserState struct {
	Created bool `json:"created"`
}

// RoleState tracks whether a platform role exists.
type RoleState struct {
	Created bool `json:"created"`
}

// ConfigState is the provisioning ledger for one session. The zero
// value is the empty state. Flags only move false→true.
type ConfigState struct {
	Account AccountState `json:"account"`

	IDGenConfigured          bool `json:"idgen_configured"`
	WorkflowConfigured       bool `json:"workflow_configured"`
	NotificationConfigured   bool `json:"notification_configured"`
	BoundaryConfigured       bool `json:"boundary_configured"`
	RegistrySchemaConfigured bool `json:"registry_schema_configured"`

	User               UserState `json:"user"`
	Role               RoleState `json:"role"`
	RoleAssignmentDone bool      `json:"role_assignment_done"`
}

// Clone returns an independent copy of the state.
func (s *ConfigState) Clone() *ConfigState {
	c := *s
	return &c
}

// ErrInvalidState is wrapped by every Validate failure.
var ErrInvalidState = errors.New("invalid configuration state")

// Validate checks the cross-field invariants of the ledger.
func (s *ConfigState) Validate() error {
	if s.Account.Configured && !s.Account.Created {
		return fmt.Errorf("%w: account configured before it was created", ErrInvalidState)
	}
	if s.Account.AccessToken != "" && !s.Account.Configured {
		return fmt.Errorf("%w: access token present on unconfigured account", ErrInvalidState)
	}
	if s.RoleAssignmentDone && !(s.User.Created && s.Role.Created) {
		return fmt.Errorf("%w: role assigned without both a user and a role", ErrInvalidState)
	}
	return nil
}

// Completed reports whether the effect of action a is already present
// in the state. Unknown actions are never completed.
func (s *ConfigState) Completed(a Action) bool {
	switch a {
	case ActionAccountCreate:
		return s.Account.Created
	case ActionAccountConfigure:
		return s.Account.Configured
	case ActionIDGenConfigure:
		return s.IDGenConfigured
	case ActionWorkflowConfigure:
		return s.WorkflowConfigured
	case ActionNotificationConfigure:
		return s.NotificationConfigured
	case ActionBoundaryConfigure:
		return s.BoundaryConfigured
	case ActionRegistryConfigure:
		return s.RegistrySchemaConfigured
	case ActionUserCreate:
		return s.User.Created
	case ActionRoleCreate:
		return s.Role.Created
	case ActionRoleAssign:
		return s.RoleAssignmentDone
	}
	return false
}
