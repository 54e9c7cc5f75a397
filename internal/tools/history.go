package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/journal"
	"github.com/HendryAvila/provisio/internal/session"
)

// HistorySource lists recorded conversation events.
type HistorySource interface {
	ForSession(key string, limit int) ([]journal.Entry, error)
}

// HistoryTool handles the provision_history MCP tool.
// It is only registered when the journal is available.
type HistoryTool struct {
	source HistorySource
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(source HistorySource) *HistoryTool {
	return &HistoryTool{source: source}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("provision_history",
		mcp.WithDescription(
			"Show the audit trail of a provisioning conversation: every proposal, "+
				"confirmation, cancellation and rejected confirmation, oldest first.",
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation to inspect. Defaults to 'default'."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max entries, most recent kept (default: 20)"),
		),
	)
}

// Handle processes the provision_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := session.NormalizeKey(req.GetString("session_id", ""))
	limit := intArg(req, "limit", journal.DefaultLimit)

	entries, err := t.source.ForSession(key, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history unavailable: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No history recorded for session `%s`.", key)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# History for `%s`\n\n", key)
	b.WriteString("| Time | Event | Action | Intent | Detail |\n")
	b.WriteString("|------|-------|--------|--------|--------|\n")
	for _, e := range entries {
		detail := e.Message
		if e.Error != "" {
			detail = e.Error
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			e.CreatedAt, e.Kind, orDash(e.Action), orDash(e.Label), cell(detail))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return "`" + s + "`"
}

// cell keeps free text from breaking the markdown table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
