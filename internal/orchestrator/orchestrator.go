// Package orchestrator drives the provisioning conversation: it runs
// the confirmation state machine for each session and is the only path
// through which configuration state is mutated.
//
// Every mutation goes through Dispatch, which re-checks legality against
// the state at dispatch time. Proposals can go stale between being made
// and being confirmed; that re-check is what keeps the gates intact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/HendryAvila/provisio/internal/actions"
	"github.com/HendryAvila/provisio/internal/decision"
	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/provisioning"
	"github.com/HendryAvila/provisio/internal/session"
	"github.com/HendryAvila/provisio/internal/telemetry"
)

var tracer = otel.Tracer("github.com/HendryAvila/provisio/internal/orchestrator")

// Reply is the outcome of one Handle call.
type Reply struct {
	// Executed is true when this message confirmed and ran an action.
	Executed bool
	// Action is the executed action, set only when Executed.
	Action provisioning.Action
	// Message is the text for the operator.
	Message string
	// Proposed is the action this message proposed, if any.
	Proposed provisioning.Action
	// Pending is the action awaiting confirmation after this message.
	Pending provisioning.Action
	// Label is the classified intent, empty for confirmation replies.
	Label intent.Label
}

// Snapshot is a copy of a session's state for transports.
type Snapshot struct {
	Key     string
	State   provisioning.ConfigState
	Pending provisioning.Action
	Legal   []provisioning.Action
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds an observer for conversation events. May be given
// more than once.
func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observers = append(orc.observers, o)
		}
	}
}

// Orchestrator wires the resolver, classifier, decision engine and
// action registry around a session store.
type Orchestrator struct {
	registry   *actions.Registry
	classifier intent.Classifier
	sessions   *session.Store
	observers  []Observer
}

// New creates an orchestrator. A nil classifier uses the keyword
// classifier; a nil store starts an empty one.
func New(registry *actions.Registry, classifier intent.Classifier, sessions *session.Store, opts ...Option) *Orchestrator {
	if classifier == nil {
		classifier = intent.NewKeywordClassifier()
	}
	if sessions == nil {
		sessions = session.NewStore()
	}
	o := &Orchestrator{
		registry:   registry,
		classifier: classifier,
		sessions:   sessions,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sessions returns the underlying session store.
func (o *Orchestrator) Sessions() *session.Store { return o.sessions }

// GetOrCreateSession returns the session for key.
func (o *Orchestrator) GetOrCreateSession(key string) *session.Session {
	return o.sessions.GetOrCreate(key)
}

// LegalActions returns the actions currently permitted for state.
func (o *Orchestrator) LegalActions(state *provisioning.ConfigState) []provisioning.Action {
	return provisioning.Resolve(state)
}

// Dispatch runs action against state after re-checking legality. The
// caller must hold the owning session's lock. On error state is
// unchanged.
func (o *Orchestrator) Dispatch(ctx context.Context, action provisioning.Action, state *provisioning.ConfigState) error {
	_, span := tracer.Start(ctx, "provision.dispatch",
		trace.WithAttributes(attribute.String("provision.action", string(action))))
	defer span.End()

	err := o.dispatch(action, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorCode(err))
	}
	return err
}

func (o *Orchestrator) dispatch(action provisioning.Action, state *provisioning.ConfigState) error {
	legal := provisioning.Resolve(state)
	if !provisioning.Contains(legal, action) {
		return &IllegalActionError{Action: action, Legal: legal}
	}
	h, ok := o.registry.Lookup(action)
	if !ok {
		return &UnknownActionError{Action: action}
	}
	h.Execute(state)
	return nil
}

// Handle processes one operator message for the session identified by
// key. The session stays locked for the whole call, so messages on the
// same session are serialized.
//
// A yes/no reply while a proposal is pending confirms or declines it.
// Any other message is classified and resolved into guidance; a new
// proposal replaces the pending one. On a dispatch failure the pending
// action is cleared, Reply.Message explains the failure and the typed
// error is returned alongside.
func (o *Orchestrator) Handle(ctx context.Context, key, text string) (Reply, error) {
	sess := o.sessions.GetOrCreate(key)
	sess.Lock()
	defer sess.Unlock()

	ctx, span := tracer.Start(ctx, "provision.handle",
		trace.WithAttributes(attribute.String("provision.session", sess.Key())))
	defer span.End()

	if pending, ok := sess.Pending(); ok {
		switch ParseReply(text) {
		case ReplyAffirmative:
			reply, err := o.confirm(ctx, sess, pending)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, ErrorCode(err))
			}
			return reply, err
		case ReplyNegative:
			sess.ClearPending()
			msg := "Okay, let me know what you'd like to do next."
			o.emit(Event{Kind: EventDeclined, SessionKey: sess.Key(), Action: pending, Message: msg})
			log.Debug().Str("session", sess.Key()).Str("action", string(pending)).Msg("proposal declined")
			return Reply{Message: msg}, nil
		}
	}

	legal := provisioning.Resolve(sess.State())
	label := o.classifier.Classify(ctx, text)
	d := decision.Decide(label, legal)
	span.SetAttributes(attribute.String("intent.label", string(label)))

	reply := Reply{Message: d.Message, Label: label}
	if a, ok := d.Proposal(); ok {
		if d.Kind == decision.KindExecute && reply.Message == "" {
			reply.Message = fmt.Sprintf("I understand you want to %s. Shall I proceed with %s?",
				provisioning.Describe(a), a)
		}
		sess.Propose(a)
		reply.Proposed = a
		o.emit(Event{Kind: EventProposed, SessionKey: sess.Key(), Action: a, Label: label, Message: reply.Message})
	}
	reply.Pending, _ = sess.Pending()

	log.Debug().
		Str("session", sess.Key()).
		Str("label", string(label)).
		Str("proposed", string(reply.Proposed)).
		Strs("legal", provisioning.Strings(legal)).
		Msg("message resolved")
	return reply, nil
}

// confirm runs the pending action after an affirmative reply. The
// session lock is held by the caller.
func (o *Orchestrator) confirm(ctx context.Context, sess *session.Session, pending provisioning.Action) (Reply, error) {
	sess.ClearPending()

	err := o.Dispatch(ctx, pending, sess.State())
	var illegal *IllegalActionError
	if errors.As(err, &illegal) {
		err = &StaleProposalError{Action: pending, Legal: illegal.Legal}
	}
	if err != nil {
		msg := explain(err)
		o.emit(Event{Kind: EventRejected, SessionKey: sess.Key(), Action: pending, Message: msg, Err: err})
		log.Info().Err(err).Func(telemetry.LogTraceFields(ctx)).Str("session", sess.Key()).Str("action", string(pending)).Msg("confirmation rejected")
		return Reply{Message: msg}, err
	}

	msg := "Executed: " + string(pending)
	if next := provisioning.Resolve(sess.State()); len(next) > 0 {
		msg += ". Next available: " + joinActions(next)
	} else {
		msg += ". Setup is complete."
	}
	o.emit(Event{Kind: EventExecuted, SessionKey: sess.Key(), Action: pending, Message: msg})
	log.Info().Func(telemetry.LogTraceFields(ctx)).Str("session", sess.Key()).Str("action", string(pending)).Msg("action executed")
	return Reply{Executed: true, Action: pending, Message: msg}, nil
}

// Snapshot returns a copy of the session's state, creating the session
// if it does not exist yet.
func (o *Orchestrator) Snapshot(key string) Snapshot {
	sess := o.sessions.GetOrCreate(key)
	sess.Lock()
	defer sess.Unlock()

	pending, _ := sess.Pending()
	return Snapshot{
		Key:     sess.Key(),
		State:   *sess.State().Clone(),
		Pending: pending,
		Legal:   provisioning.Resolve(sess.State()),
	}
}

func (o *Orchestrator) emit(e Event) {
	if e.At.IsZero() {
		e.At = timeNow()
	}
	for _, obs := range o.observers {
		notify(obs, e)
	}
}

func notify(obs Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("event", string(e.Kind)).Msg("observer panicked")
		}
	}()
	obs.OnEvent(e)
}
