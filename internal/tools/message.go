package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/orchestrator"
)

// MessageTool handles the provision_message MCP tool.
// It feeds one operator message into the conversation for a session.
type MessageTool struct {
	orc *orchestrator.Orchestrator
}

// NewMessageTool creates a MessageTool.
func NewMessageTool(orc *orchestrator.Orchestrator) *MessageTool {
	return &MessageTool{orc: orc}
}

// Definition returns the MCP tool definition for registration.
func (t *MessageTool) Definition() mcp.Tool {
	return mcp.NewTool("provision_message",
		mcp.WithDescription(
			"Send the operator's message to the provisioning assistant. "+
				"Free text is interpreted and answered with guidance, usually proposing "+
				"one next action. Nothing is changed until the operator replies `yes` "+
				"to a proposal; `no` cancels it. Pass the operator's words verbatim.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The operator's message, or `yes` / `no` to answer a pending proposal"),
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation to continue. Defaults to 'default'."),
		),
	)
}

// Handle processes the provision_message tool call.
func (t *MessageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}
	key := req.GetString("session_id", "")

	reply, err := t.orc.Handle(ctx, key, message)
	if err != nil {
		if orchestrator.ErrorCode(err) == "internal" {
			return nil, fmt.Errorf("handling message: %w", err)
		}
		return mcp.NewToolResultError(reply.Message), nil
	}

	var b strings.Builder
	if reply.Executed {
		b.WriteString("✅ ")
	}
	b.WriteString(reply.Message)
	if reply.Pending != "" {
		fmt.Fprintf(&b, "\n\n**Pending:** `%s`. %s", reply.Pending, confirmHint)
	}
	return mcp.NewToolResultText(b.String()), nil
}
