// Package prompts implements MCP prompt handlers for the provisioning
// assistant.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the host model to run a sequence of tool calls. Unlike tools,
// prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the provision-start MCP prompt.
// It opens a provisioning conversation for a session.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("provision-start",
		mcp.WithPromptDescription(
			"Start provisioning a platform. The assistant walks you through account "+
				"setup first, then the remaining configuration steps, one confirmed "+
				"action at a time.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Conversation to use. Default: default"),
		),
	)
}

// Handle processes the provision-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionID := "default"
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["session_id"]; ok && id != "" {
			sessionID = id
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start provisioning (session %s)", sessionID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to set up my platform.\n\n"+
						"Please:\n"+
						"1. Run `provision_message` with message='how do I start' and session_id='%s'\n"+
						"2. Show me the assistant's answer and ask me whether to proceed\n"+
						"3. Pass my answer to `provision_message` exactly as I give it (`yes` or `no`)\n"+
						"4. Keep going step by step; use `provision_status` with session_id='%s' whenever I ask where we are\n\n"+
						"Never answer `yes` on my behalf.",
					sessionID, sessionID,
				)),
			},
		},
	}, nil
}
