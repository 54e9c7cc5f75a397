// Package server wires all provisio components and creates the MCP server
// instance.
//
// This is the composition root: it builds the concrete classifier, session
// store, journal and orchestrator and injects them into the tools, prompts
// and resources. No business logic lives here, only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/HendryAvila/provisio/internal/actions"
	"github.com/HendryAvila/provisio/internal/config"
	"github.com/HendryAvila/provisio/internal/intent"
	"github.com/HendryAvila/provisio/internal/journal"
	"github.com/HendryAvila/provisio/internal/orchestrator"
	"github.com/HendryAvila/provisio/internal/prompts"
	"github.com/HendryAvila/provisio/internal/resources"
	"github.com/HendryAvila/provisio/internal/session"
	"github.com/HendryAvila/provisio/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App bundles the MCP server with the orchestrator behind it, so other
// transports can share the same sessions.
type App struct {
	MCP          *server.MCPServer
	Orchestrator *orchestrator.Orchestrator
	// Journal is nil when the journal is disabled or failed to open.
	Journal *journal.Store
}

// New creates the orchestrator and an MCP server with all tools, prompts
// and resources registered.
//
// The returned cleanup closes the journal and must be called on shutdown
// (typically via defer). It is always non-nil, even when New fails.
func New(cfg *config.Config) (*App, func(), error) {
	// --- Create shared dependencies ---

	registry := actions.Default(nil)
	sessions := session.NewStore(session.WithIdleTTL(cfg.SessionIdleTTL))

	// The journal is an independent subsystem: if it fails to open, the
	// conversation still works. We log a warning and skip the history tool.

	cleanup := noop
	var opts []orchestrator.Option
	jrnl := openJournal(cfg)
	if jrnl != nil {
		cleanup = func() {
			if err := jrnl.Close(); err != nil {
				log.Warn().Err(err).Msg("journal close")
			}
		}
		opts = append(opts, orchestrator.WithObserver(jrnl))
	}

	orc := orchestrator.New(registry, newClassifier(cfg), sessions, opts...)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"provisio",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register provisioning tools ---

	messageTool := tools.NewMessageTool(orc)
	s.AddTool(messageTool.Definition(), messageTool.Handle)

	allowedTool := tools.NewAllowedActionsTool(orc)
	s.AddTool(allowedTool.Definition(), allowedTool.Handle)

	statusTool := tools.NewStatusTool(orc)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	if jrnl != nil {
		historyTool := tools.NewHistoryTool(jrnl)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(orc)
	s.AddResource(resourceHandler.CatalogResource(), resourceHandler.HandleCatalog)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)

	return &App{MCP: s, Orchestrator: orc, Journal: jrnl}, cleanup, nil
}

// noop is the default cleanup when the journal is disabled.
func noop() {}

func openJournal(cfg *config.Config) *journal.Store {
	if !cfg.JournalEnabled() {
		log.Debug().Msg("journal disabled")
		return nil
	}
	j, err := journal.New(journal.Config{Path: cfg.JournalPath})
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.JournalPath).Msg("journal subsystem disabled")
		return nil
	}
	return j
}

func newClassifier(cfg *config.Config) intent.Classifier {
	if cfg.Classifier != config.ClassifierOpenAI {
		return intent.NewKeywordClassifier()
	}
	return intent.NewOpenAIClassifier(intent.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.ClassifierTimeout,
	}, nil)
}

// serverInstructions returns the system instructions that tell the AI
// how to drive provisio.
func serverInstructions() string {
	return `You have access to provisio, a platform provisioning assistant.

## WHAT IT DOES

provisio walks an operator through setting up a platform: creating and
configuring the account, then configuring ID generation, workflows,
notifications, boundaries and registry schemas, creating users and roles,
and finally assigning roles to users.

Steps are gated. Nothing past account creation is possible until the
account exists AND is configured, and role assignment needs both a user and
a role. provisio knows what is allowed at every moment; you do not need to
track it.

## CRITICAL: Confirmation

provisio never changes anything on its own. Every step is PROPOSED first
and only runs after the operator answers ` + "`yes`" + `. ` + "`no`" + ` cancels it.

- Pass the operator's words to provision_message VERBATIM.
- NEVER send ` + "`yes`" + ` unless the operator actually said yes to the
  pending proposal in this conversation.
- If the operator changes the subject instead of answering, just forward
  the new message. The proposal stays pending.

## Tools

- provision_message: send an operator message, get guidance or a proposal.
- provision_allowed_actions: list what can be done right now.
- provision_status: progress table with the pending proposal.
- provision_history: audit trail (only when the journal is enabled).

Use one session_id per operator conversation. Omitting it uses 'default'.

## Style

Relay provisio's answer in your own words, but keep the proposed action
name and the yes/no question intact so the operator knows what they are
confirming.`
}
