package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/orchestrator"
)

// AllowedActionsTool handles the provision_allowed_actions MCP tool.
type AllowedActionsTool struct {
	orc *orchestrator.Orchestrator
}

// NewAllowedActionsTool creates an AllowedActionsTool.
func NewAllowedActionsTool(orc *orchestrator.Orchestrator) *AllowedActionsTool {
	return &AllowedActionsTool{orc: orc}
}

// Definition returns the MCP tool definition for registration.
func (t *AllowedActionsTool) Definition() mcp.Tool {
	return mcp.NewTool("provision_allowed_actions",
		mcp.WithDescription(
			"List the provisioning actions that are allowed right now for a session. "+
				"Only these actions can be proposed or executed; everything else is "+
				"locked behind a prerequisite.",
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation to inspect. Defaults to 'default'."),
		),
	)
}

// Handle processes the provision_allowed_actions tool call.
func (t *AllowedActionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.orc.Snapshot(req.GetString("session_id", ""))

	response := fmt.Sprintf("# Allowed Actions\n\n**Session:** `%s`\n\n%s", snap.Key, actionList(snap.Legal))
	if snap.Pending != "" {
		response += fmt.Sprintf("\n**Pending:** `%s`. %s\n", snap.Pending, confirmHint)
	}
	return mcp.NewToolResultText(response), nil
}
