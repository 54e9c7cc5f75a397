package actions

import (
	"github.com/google/uuid"

	"github.com/HendryAvila/provisio/internal/provisioning"
)

// Each handler below stands in for a call to the external provisioning
// API: it only records the outcome in the session ledger.

// TokenSource issues opaque access tokens for configured accounts.
type TokenSource func() string

// NewAccessToken returns a random opaque token.
func NewAccessToken() string {
	return "tok_" + uuid.NewString()
}

// flagHandler is a handler whose whole effect is a single field write.
type flagHandler struct {
	name  provisioning.Action
	apply func(*provisioning.ConfigState)
}

func (h flagHandler) Name() provisioning.Action { return h.name }

func (h flagHandler) Execute(state *provisioning.ConfigState) { h.apply(state) }

// accountConfigureHandler marks the account configured and stores the
// access token issued for it.
type accountConfigureHandler struct {
	tokens TokenSource
}

func (h accountConfigureHandler) Name() provisioning.Action {
	return provisioning.ActionAccountConfigure
}

func (h accountConfigureHandler) Execute(state *provisioning.ConfigState) {
	state.Account.Configured = true
	state.Account.AccessToken = h.tokens()
}

// Builtin returns one handler per catalog action.
func Builtin(tokens TokenSource) []Handler {
	if tokens == nil {
		tokens = NewAccessToken
	}
	return []Handler{
		flagHandler{provisioning.ActionAccountCreate, func(s *provisioning.ConfigState) {
			s.Account.Created = true
		}},
		accountConfigureHandler{tokens: tokens},

		flagHandler{provisioning.ActionIDGenConfigure, func(s *provisioning.ConfigState) {
			s.IDGenConfigured = true
		}},
		flagHandler{provisioning.ActionWorkflowConfigure, func(s *provisioning.ConfigState) {
			s.WorkflowConfigured = true
		}},
		flagHandler{provisioning.ActionNotificationConfigure, func(s *provisioning.ConfigState) {
			s.NotificationConfigured = true
		}},
		flagHandler{provisioning.ActionBoundaryConfigure, func(s *provisioning.ConfigState) {
			s.BoundaryConfigured = true
		}},
		flagHandler{provisioning.ActionRegistryConfigure, func(s *provisioning.ConfigState) {
			s.RegistrySchemaConfigured = true
		}},

		flagHandler{provisioning.ActionUserCreate, func(s *provisioning.ConfigState) {
			s.User.Created = true
		}},
		flagHandler{provisioning.ActionRoleCreate, func(s *provisioning.ConfigState) {
			s.Role.Created = true
		}},
		flagHandler{provisioning.ActionRoleAssign, func(s *provisioning.ConfigState) {
			s.RoleAssignmentDone = true
		}},
	}
}
