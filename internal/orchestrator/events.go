package orchestrator

import (
	"time"

	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/provisioning"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// EventKind names a conversation transition.
type EventKind string

const (
	EventProposed EventKind = "proposed"
	EventExecuted EventKind = "executed"
	EventDeclined EventKind = "declined"
	EventRejected EventKind = "rejected"
)

// Event describes one transition of a session's confirmation state.
type Event struct {
	Kind       EventKind
	SessionKey string
	Action     provisioning.Action
	Label      intent.Label // set when the message was classified
	Message    string
	Err        error // set for EventRejected
	At         time.Time
}

// Observer receives conversation events. OnEvent runs synchronously
// while the session is locked and must not call back into the
// orchestrator for the same session. Implementations own their failure
// handling; nothing they do affects the reply.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
