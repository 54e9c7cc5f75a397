package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the provision-status MCP prompt.
// It instructs the host to read and present a session's progress.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("provision-status",
		mcp.WithPromptDescription(
			"Check how far provisioning has come: completed steps, what can be done "+
				"now, and anything waiting for your confirmation.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Conversation to inspect. Default: default"),
		),
	)
}

// Handle processes the provision-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionID := "default"
	if id := req.Params.Arguments["session_id"]; id != "" {
		sessionID = id
	}

	return &mcp.GetPromptResult{
		Description: "Provisioning Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please run `provision_status` with session_id='%s'.\n\n"+
						"Then:\n"+
						"1. Summarize which steps are done and which are still locked\n"+
						"2. If something is pending, remind me and ask whether to confirm it\n"+
						"3. Suggest the most useful next step from the available ones",
					sessionID,
				)),
			},
		},
	}, nil
}
