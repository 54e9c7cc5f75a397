// Package tools implements the MCP tool handlers of the provisioning
// assistant.
//
// Each tool receives its dependencies through its struct and exposes
// Definition() for registration and Handle() with mcp-go's
// CallToolRequest signature. Tools never touch session state directly;
// all reads and writes go through the orchestrator.
package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/provisioning"
)

// confirmHint is appended whenever a reply leaves a proposal pending.
const confirmHint = "Reply `yes` to confirm or `no` to cancel."

// intArg extracts an integer argument from a tool request.
// JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// actionList renders actions as a markdown bullet list with their
// descriptions.
func actionList(actions []provisioning.Action) string {
	if len(actions) == 0 {
		return "_None. Every provisioning step is complete._\n"
	}
	var b strings.Builder
	for _, a := range actions {
		fmt.Fprintf(&b, "- `%s`: %s\n", a, provisioning.Describe(a))
	}
	return b.String()
}

// statusMarker returns the table marker for one catalog action.
func statusMarker(state *provisioning.ConfigState, legal []provisioning.Action, a provisioning.Action) (string, string) {
	switch {
	case state.Completed(a):
		return "✅", "done"
	case provisioning.Contains(legal, a):
		return "🔓", "available"
	}
	return "🔒", "locked"
}
