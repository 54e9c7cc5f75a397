// provisio: conversational, confirmation-gated platform provisioning.
//
// Usage:
//
//	provisio serve     # MCP server on stdio
//	provisio http      # REST API and MCP over HTTP
//	provisio actions   # list provisioning actions
//	provisio version
package main

import (
	"os"

	"github.com/HendryAvila/provisio/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
