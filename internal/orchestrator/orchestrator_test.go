package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/HendryAvila/provisio/internal/actions"
	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/provisioning"
	"github.com/HendryAvila/provisio/internal/session"
)

// --- Fixtures ---

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func newTestOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	return New(actions.Default(nil), intent.NewKeywordClassifier(), session.NewStore(), opts...)
}

func fixedLabel(l intent.Label) intent.Classifier {
	return intent.ClassifierFunc(func(context.Context, string) intent.Label { return l })
}

func withState(t *testing.T, o *Orchestrator, key string, fn func(*provisioning.ConfigState)) {
	t.Helper()
	s := o.GetOrCreateSession(key)
	s.Lock()
	defer s.Unlock()
	fn(s.State())
}

func readyAccount(s *provisioning.ConfigState) {
	s.Account.Created = true
	s.Account.Configured = true
	s.Account.AccessToken = "tok_test"
}

// --- ParseReply ---

func TestParseReply(t *testing.T) {
	tests := map[string]ReplyKind{
		"yes":        ReplyAffirmative,
		"  YES \n":   ReplyAffirmative,
		"y":          ReplyAffirmative,
		"Y":          ReplyAffirmative,
		"no":         ReplyNegative,
		" No":        ReplyNegative,
		"n":          ReplyNegative,
		"yes please": ReplyOther,
		"nope":       ReplyOther,
		"":           ReplyOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseReply(in), "ParseReply(%q)", in)
	}
	assert.Equal(t, "affirmative", ReplyAffirmative.String())
	assert.Equal(t, "negative", ReplyNegative.String())
	assert.Equal(t, "other", ReplyOther.String())
}

// --- Dispatch ---

func TestDispatch_ScenarioA(t *testing.T) {
	o := newTestOrchestrator(t)
	state := &provisioning.ConfigState{}
	ctx := context.Background()

	assert.Equal(t, []provisioning.Action{provisioning.ActionAccountCreate}, o.LegalActions(state))
	require.NoError(t, o.Dispatch(ctx, provisioning.ActionAccountCreate, state))
	assert.Equal(t, []provisioning.Action{provisioning.ActionAccountConfigure}, o.LegalActions(state))
	require.NoError(t, o.Dispatch(ctx, provisioning.ActionAccountConfigure, state))

	legal := o.LegalActions(state)
	assert.Len(t, legal, 7)
	assert.NotContains(t, legal, provisioning.ActionRoleAssign)
	assert.NotEmpty(t, state.Account.AccessToken)
}

func TestDispatch_ScenarioB(t *testing.T) {
	o := newTestOrchestrator(t)
	state := &provisioning.ConfigState{}
	readyAccount(state)
	ctx := context.Background()

	require.NoError(t, o.Dispatch(ctx, provisioning.ActionUserCreate, state))
	require.NoError(t, o.Dispatch(ctx, provisioning.ActionRoleCreate, state))
	assert.Contains(t, o.LegalActions(state), provisioning.ActionRoleAssign)

	require.NoError(t, o.Dispatch(ctx, provisioning.ActionRoleAssign, state))
	assert.NotContains(t, o.LegalActions(state), provisioning.ActionRoleAssign)
	assert.True(t, state.RoleAssignmentDone)
}

func TestDispatch_IllegalNeverMutates(t *testing.T) {
	o := newTestOrchestrator(t)
	states := []provisioning.ConfigState{
		{},
		{Account: provisioning.AccountState{Created: true}},
		{Account: provisioning.AccountState{Created: true, Configured: true, AccessToken: "tok"}},
		{
			Account: provisioning.AccountState{Created: true, Configured: true, AccessToken: "tok"},
			User:    provisioning.UserState{Created: true},
			Role:    provisioning.RoleState{Created: true},
		},
	}
	names := append(provisioning.Catalog(), "does.not.exist")

	for _, base := range states {
		for _, name := range names {
			state := base
			legal := provisioning.Resolve(&state)
			if provisioning.Contains(legal, name) {
				continue
			}
			err := o.Dispatch(context.Background(), name, &state)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalAction), "%s: %v", name, err)

			var illegal *IllegalActionError
			require.ErrorAs(t, err, &illegal)
			assert.Equal(t, name, illegal.Action)
			assert.Equal(t, legal, illegal.Legal)
			assert.Equal(t, base, state, "rejected %s must not mutate state", name)
		}
	}
}

func TestDispatch_UnknownAction(t *testing.T) {
	// Registry without account.create although it is legal on an empty state.
	reg, err := actions.NewRegistry(actions.Builtin(nil)[1:]...)
	require.NoError(t, err)
	o := New(reg, nil, nil)

	state := &provisioning.ConfigState{}
	err = o.Dispatch(context.Background(), provisioning.ActionAccountCreate, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.False(t, errors.Is(err, ErrIllegalAction))
	assert.Equal(t, provisioning.ConfigState{}, *state)
}

func TestDispatch_Monotonic(t *testing.T) {
	o := newTestOrchestrator(t)
	state := &provisioning.ConfigState{}
	ctx := context.Background()

	for {
		legal := o.LegalActions(state)
		if len(legal) == 0 {
			break
		}
		before := *state
		require.NoError(t, o.Dispatch(ctx, legal[len(legal)-1], state))
		for _, a := range provisioning.Catalog() {
			if before.Completed(a) {
				assert.True(t, state.Completed(a), "%s flipped back after dispatch", a)
			}
		}
		require.NoError(t, state.Validate())
	}
	for _, a := range provisioning.Catalog() {
		assert.True(t, state.Completed(a), a)
	}
}

// --- Confirmation state machine ---

func TestHandle_ProposeThenConfirm(t *testing.T) {
	rec := &recorder{}
	o := newTestOrchestrator(t, WithObserver(rec))
	ctx := context.Background()

	reply, err := o.Handle(ctx, "s1", "how do I start?")
	require.NoError(t, err)
	assert.False(t, reply.Executed)
	assert.Equal(t, intent.LabelBootstrap, reply.Label)
	assert.Equal(t, provisioning.ActionAccountCreate, reply.Proposed)
	assert.Equal(t, provisioning.ActionAccountCreate, reply.Pending)
	assert.Contains(t, reply.Message, "Shall I proceed with account.create?")

	reply, err = o.Handle(ctx, "s1", "YES")
	require.NoError(t, err)
	assert.True(t, reply.Executed)
	assert.Equal(t, provisioning.ActionAccountCreate, reply.Action)
	assert.Contains(t, reply.Message, "Executed: account.create")
	assert.Contains(t, reply.Message, "account.configure")

	snap := o.Snapshot("s1")
	assert.True(t, snap.State.Account.Created)
	assert.Empty(t, snap.Pending)
	assert.Equal(t, []EventKind{EventProposed, EventExecuted}, rec.kinds())
}

func TestHandle_ScenarioD(t *testing.T) {
	rec := &recorder{}
	o := New(actions.Default(nil), fixedLabel(intent.LabelBootstrap), nil, WithObserver(rec))
	ctx := context.Background()

	_, err := o.Handle(ctx, "s", "get me going")
	require.NoError(t, err)

	reply, err := o.Handle(ctx, "s", "no")
	require.NoError(t, err)
	assert.False(t, reply.Executed)
	assert.Empty(t, reply.Pending)
	snap := o.Snapshot("s")
	assert.Empty(t, snap.Pending)
	assert.Equal(t, provisioning.ConfigState{}, snap.State)

	// yes with nothing pending is an ordinary message.
	reply, err = o.Handle(ctx, "s", "yes")
	require.NoError(t, err)
	assert.False(t, reply.Executed)
	assert.Equal(t, intent.LabelBootstrap, reply.Label)
	assert.Equal(t, provisioning.ConfigState{}, o.Snapshot("s").State)

	assert.Equal(t, []EventKind{EventProposed, EventDeclined, EventProposed}, rec.kinds())
}

func TestHandle_NoWithNothingPendingIsClassified(t *testing.T) {
	var seen []string
	classifier := intent.ClassifierFunc(func(_ context.Context, text string) intent.Label {
		seen = append(seen, text)
		return intent.LabelUnknown
	})
	o := New(actions.Default(nil), classifier, nil)

	reply, err := o.Handle(context.Background(), "s", "no")
	require.NoError(t, err)
	assert.Equal(t, []string{"no"}, seen)
	assert.Contains(t, reply.Message, "Available options: account.create")
}

func TestHandle_NewProposalOverwritesPending(t *testing.T) {
	o := newTestOrchestrator(t)
	withState(t, o, "s", readyAccount)
	ctx := context.Background()

	reply, err := o.Handle(ctx, "s", "add a new user")
	require.NoError(t, err)
	assert.Equal(t, provisioning.ActionUserCreate, reply.Pending)

	reply, err = o.Handle(ctx, "s", "create an approval workflow")
	require.NoError(t, err)
	assert.Equal(t, provisioning.ActionWorkflowConfigure, reply.Proposed)
	assert.Equal(t, provisioning.ActionWorkflowConfigure, o.Snapshot("s").Pending)

	reply, err = o.Handle(ctx, "s", "y")
	require.NoError(t, err)
	assert.Equal(t, provisioning.ActionWorkflowConfigure, reply.Action)
	snap := o.Snapshot("s")
	assert.True(t, snap.State.WorkflowConfigured)
	assert.False(t, snap.State.User.Created)
}

func TestHandle_ExplainKeepsExistingPending(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Handle(ctx, "s", "let's set up")
	require.NoError(t, err)

	reply, err := o.Handle(ctx, "s", "what's the weather")
	require.NoError(t, err)
	assert.Empty(t, reply.Proposed)
	assert.Equal(t, provisioning.ActionAccountCreate, reply.Pending)
	assert.Equal(t, provisioning.ActionAccountCreate, o.Snapshot("s").Pending)
}

func TestHandle_StaleProposal(t *testing.T) {
	rec := &recorder{}
	o := newTestOrchestrator(t, WithObserver(rec))
	withState(t, o, "s", readyAccount)
	ctx := context.Background()

	reply, err := o.Handle(ctx, "s", "add a new user")
	require.NoError(t, err)
	require.Equal(t, provisioning.ActionUserCreate, reply.Pending)

	// Another request creates the user before confirmation.
	withState(t, o, "s", func(s *provisioning.ConfigState) { s.User.Created = true })
	before := o.Snapshot("s").State

	reply, err = o.Handle(ctx, "s", "yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleProposal)
	assert.False(t, errors.Is(err, ErrIllegalAction))

	var stale *StaleProposalError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, provisioning.ActionUserCreate, stale.Action)
	assert.NotContains(t, stale.Legal, provisioning.ActionUserCreate)

	assert.False(t, reply.Executed)
	assert.Contains(t, reply.Message, "Please ask again")

	after := o.Snapshot("s")
	assert.Equal(t, before, after.State, "stale confirmation must not mutate state")
	assert.Empty(t, after.Pending)
	assert.Equal(t, []EventKind{EventProposed, EventRejected}, rec.kinds())
	assert.Equal(t, "stale_proposal", ErrorCode(err))
}

func TestHandle_UnknownActionOnConfirm(t *testing.T) {
	reg, err := actions.NewRegistry(actions.Builtin(nil)[1:]...)
	require.NoError(t, err)
	o := New(reg, fixedLabel(intent.LabelBootstrap), nil)
	ctx := context.Background()

	_, err = o.Handle(ctx, "s", "start")
	require.NoError(t, err)

	reply, err := o.Handle(ctx, "s", "yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, "unknown_action", ErrorCode(err))
	assert.Contains(t, reply.Message, "account.create")

	snap := o.Snapshot("s")
	assert.Empty(t, snap.Pending)
	assert.Equal(t, provisioning.ConfigState{}, snap.State)
}

func TestHandle_ScenarioC(t *testing.T) {
	o := New(actions.Default(nil), fixedLabel(intent.LabelRoleAssign), nil)
	withState(t, o, "s", func(s *provisioning.ConfigState) {
		readyAccount(s)
		s.Role.Created = true
		s.IDGenConfigured = true
		s.WorkflowConfigured = true
		s.NotificationConfigured = true
		s.BoundaryConfigured = true
		s.RegistrySchemaConfigured = true
	})
	require.Equal(t, []provisioning.Action{provisioning.ActionUserCreate}, o.Snapshot("s").Legal)

	reply, err := o.Handle(context.Background(), "s", "give alice the admin role")
	require.NoError(t, err)
	assert.Equal(t, provisioning.ActionUserCreate, reply.Proposed)
}

func TestHandle_RoleAssignmentJourney(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	steps := []struct {
		msg      string
		proposed provisioning.Action
	}{
		{"how do I start", provisioning.ActionAccountCreate},
		{"let's set up", provisioning.ActionAccountConfigure},
		{"assign the inspector role to bob", provisioning.ActionUserCreate},
		{"assign the inspector role to bob", provisioning.ActionRoleCreate},
		{"assign the inspector role to bob", provisioning.ActionRoleAssign},
	}
	for _, step := range steps {
		reply, err := o.Handle(ctx, "journey", step.msg)
		require.NoError(t, err)
		require.Equal(t, step.proposed, reply.Proposed, step.msg)

		reply, err = o.Handle(ctx, "journey", "yes")
		require.NoError(t, err)
		require.True(t, reply.Executed)
		require.Equal(t, step.proposed, reply.Action)
	}

	state := o.Snapshot("journey").State
	assert.True(t, state.RoleAssignmentDone)
	assert.NoError(t, state.Validate())
}

func TestHandle_CompletedSetup(t *testing.T) {
	o := newTestOrchestrator(t)
	withState(t, o, "s", func(s *provisioning.ConfigState) {
		for _, h := range actions.Builtin(nil) {
			h.Execute(s)
		}
	})
	require.Empty(t, o.Snapshot("s").Legal)

	reply, err := o.Handle(context.Background(), "s", "add a user")
	require.NoError(t, err)
	assert.Empty(t, reply.Proposed)
	assert.Contains(t, reply.Message, "Available options: none")
}

// --- Observers ---

func TestObserver_PanicDoesNotAffectReply(t *testing.T) {
	boom := ObserverFunc(func(Event) { panic("journal exploded") })
	rec := &recorder{}
	o := newTestOrchestrator(t, WithObserver(boom), WithObserver(rec), WithObserver(nil))

	reply, err := o.Handle(context.Background(), "s", "start")
	require.NoError(t, err)
	assert.Equal(t, provisioning.ActionAccountCreate, reply.Proposed)
	assert.Equal(t, provisioning.ActionAccountCreate, o.Snapshot("s").Pending)
	assert.Equal(t, []EventKind{EventProposed}, rec.kinds(), "later observers still see the event")
}

func TestObserver_EventFields(t *testing.T) {
	rec := &recorder{}
	o := newTestOrchestrator(t, WithObserver(rec))

	_, err := o.Handle(context.Background(), "", "start")
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, EventProposed, e.Kind)
	assert.Equal(t, session.DefaultKey, e.SessionKey)
	assert.Equal(t, provisioning.ActionAccountCreate, e.Action)
	assert.Equal(t, intent.LabelBootstrap, e.Label)
	assert.NotEmpty(t, e.Message)
	assert.False(t, e.At.IsZero())
}

// --- Errors ---

func TestErrors_MessagesAndCodes(t *testing.T) {
	illegal := &IllegalActionError{Action: provisioning.ActionRoleAssign, Legal: []provisioning.Action{provisioning.ActionAccountCreate}}
	assert.Contains(t, illegal.Error(), "role.assign")
	assert.Contains(t, illegal.Error(), "account.create")
	assert.Equal(t, "illegal_action", ErrorCode(illegal))

	unknown := &UnknownActionError{Action: "x.y"}
	assert.Contains(t, unknown.Error(), "x.y")

	stale := &StaleProposalError{Action: provisioning.ActionUserCreate}
	assert.Contains(t, stale.Error(), "allowed: none")

	assert.Equal(t, "internal", ErrorCode(errors.New("disk full")))
	assert.Contains(t, explain(errors.New("disk full")), "disk full")
}

// --- Concurrency ---

func TestHandle_ConcurrentConfirmationsRunOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	executed := 0
	counting := ObserverFunc(func(e Event) {
		if e.Kind == EventExecuted {
			mu.Lock()
			executed++
			mu.Unlock()
		}
	})
	// Only the first message proposes; later unmatched replies get guidance.
	classifier := intent.ClassifierFunc(func(_ context.Context, text string) intent.Label {
		if text == "start" {
			return intent.LabelBootstrap
		}
		return intent.LabelUnknown
	})
	o := New(actions.Default(nil), classifier, nil, WithObserver(counting))
	ctx := context.Background()

	_, err := o.Handle(ctx, "race", "start")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = o.Handle(ctx, "race", "yes")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, executed)
	assert.True(t, o.Snapshot("race").State.Account.Created)
	assert.False(t, o.Snapshot("race").State.Account.Configured)
}

func TestHandle_ConcurrentSessionsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	o := New(actions.Default(nil), fixedLabel(intent.LabelBootstrap), nil)
	ctx := context.Background()
	keys := []string{"a", "b", "c", "d", "e", "f"}

	var wg sync.WaitGroup
	for i, k := range keys {
		wg.Add(1)
		go func(k string, rounds int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				_, _ = o.Handle(ctx, k, "start")
				_, _ = o.Handle(ctx, k, "yes")
			}
		}(k, i%2+1)
	}
	wg.Wait()

	for i, k := range keys {
		state := o.Snapshot(k).State
		assert.True(t, state.Account.Created, k)
		assert.Equal(t, i%2 == 1, state.Account.Configured, k)
	}
}
