package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/orchestrator"
	"github.com/HendryAvila/provisio/internal/provisioning"
)

// StatusTool handles the provision_status MCP tool.
// It shows every provisioning step with its current status.
type StatusTool struct {
	orc *orchestrator.Orchestrator
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(orc *orchestrator.Orchestrator) *StatusTool {
	return &StatusTool{orc: orc}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("provision_status",
		mcp.WithDescription(
			"Show the provisioning progress of a session: which steps are done, "+
				"which are available now, which are still locked, and any proposal "+
				"awaiting confirmation.",
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation to inspect. Defaults to 'default'."),
		),
	)
}

// Handle processes the provision_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.orc.Snapshot(req.GetString("session_id", ""))

	var table strings.Builder
	table.WriteString("| Step | Status | Description |\n")
	table.WriteString("|------|--------|-------------|\n")
	done := 0
	for _, a := range provisioning.Catalog() {
		marker, status := statusMarker(&snap.State, snap.Legal, a)
		if status == "done" {
			done++
		}
		fmt.Fprintf(&table, "| %s `%s` | %s | %s |\n", marker, a, status, provisioning.Describe(a))
	}

	pending := "_none_"
	if snap.Pending != "" {
		pending = fmt.Sprintf("`%s`. %s", snap.Pending, confirmHint)
	}

	consistency := ""
	if err := snap.State.Validate(); err != nil {
		consistency = fmt.Sprintf("\n⚠️ State inconsistency: %v\n", err)
	}

	response := fmt.Sprintf(
		"# Provisioning Status\n\n"+
			"**Session:** `%s`\n"+
			"**Progress:** %d/%d steps done\n"+
			"**Pending:** %s\n"+
			"%s\n"+
			"## Steps\n\n"+
			"%s\n"+
			"## Next Steps\n\n"+
			"%s",
		snap.Key, done, len(provisioning.Catalog()), pending, consistency,
		table.String(), actionList(snap.Legal),
	)
	return mcp.NewToolResultText(response), nil
}
