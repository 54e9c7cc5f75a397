// Package actions implements the executable side of each provisioning
// action and the immutable name → handler table the orchestrator
// dispatches through.
//
// Handlers hold no gating logic: legality is checked by the caller
// against provisioning.Resolve before Execute runs.
package actions

import (
	"fmt"

	"github.com/HendryAvila/provisio/internal/provisioning"
)

// Handler executes one provisioning action against a session's state.
type Handler interface {
	// Name returns the catalog name the handler is registered under.
	Name() provisioning.Action
	// Execute applies the action's effect. It mutates only the fields
	// the action owns and is total for legal invocations.
	Execute(state *provisioning.ConfigState)
}

// Registry maps action names to handlers. It is built once and never
// mutated, so it can be shared across sessions without locking.
type Registry struct {
	handlers map[provisioning.Action]Handler
}

// NewRegistry builds a registry from the given handlers. It rejects
// names outside the catalog and duplicate registrations.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	m := make(map[provisioning.Action]Handler, len(handlers))
	for _, h := range handlers {
		name := h.Name()
		if _, ok := provisioning.ParseAction(string(name)); !ok {
			return nil, fmt.Errorf("registering handler: unknown action %q", name)
		}
		if _, dup := m[name]; dup {
			return nil, fmt.Errorf("registering handler: duplicate action %q", name)
		}
		m[name] = h
	}
	return &Registry{handlers: m}, nil
}

// Lookup returns the handler registered for name.
func (r *Registry) Lookup(name provisioning.Action) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered action names in catalog order.
func (r *Registry) Names() []provisioning.Action {
	var out []provisioning.Action
	for _, a := range provisioning.Catalog() {
		if _, ok := r.handlers[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Default builds a registry with a handler for every catalog action.
// tokens generates account access tokens; nil uses NewAccessToken.
func Default(tokens TokenSource) *Registry {
	r, err := NewRegistry(Builtin(tokens)...)
	if err != nil {
		// Builtin is a fixed list covering the catalog exactly once.
		panic(err)
	}
	return r
}
