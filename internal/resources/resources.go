// Package resources implements MCP resource handlers for the provisioning
// assistant.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (provision://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/orchestrator"
	"github.com/HendryAvila/provisio/internal/provisioning"
)

// Resource URIs.
const (
	CatalogURI  = "provision://actions/catalog"
	SessionsURI = "provision://sessions"
)

// CatalogEntry describes one provisioning action.
type CatalogEntry struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Prerequisites []string `json:"prerequisites"`
}

// SessionEntry summarizes one live session.
type SessionEntry struct {
	Key     string   `json:"key"`
	Pending string   `json:"pending,omitempty"`
	Allowed []string `json:"allowed"`
	Done    int      `json:"done"`
}

// Handler manages provisioning resource endpoints.
type Handler struct {
	orc *orchestrator.Orchestrator
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(orc *orchestrator.Orchestrator) *Handler {
	return &Handler{orc: orc}
}

// CatalogResource returns the MCP resource definition for the action catalog.
func (h *Handler) CatalogResource() mcp.Resource {
	return mcp.NewResource(
		CatalogURI,
		"Provisioning Action Catalog",
		mcp.WithResourceDescription("Every provisioning action with its description and prerequisites"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCatalog returns the action catalog as JSON.
func (h *Handler) HandleCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog := provisioning.Catalog()
	entries := make([]CatalogEntry, 0, len(catalog))
	for _, a := range catalog {
		entries = append(entries, CatalogEntry{
			Name:          string(a),
			Description:   provisioning.Describe(a),
			Prerequisites: provisioning.Strings(provisioning.Prerequisites(a)),
		})
	}
	return jsonResource(req.Params.URI, entries)
}

// SessionsResource returns the MCP resource definition for live sessions.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		SessionsURI,
		"Provisioning Sessions",
		mcp.WithResourceDescription("Live conversations with their pending proposal and allowed actions"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSessions returns a summary of every live session as JSON.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	keys := h.orc.Sessions().Keys()
	entries := make([]SessionEntry, 0, len(keys))
	for _, key := range keys {
		snap := h.orc.Snapshot(key)
		done := 0
		for _, a := range provisioning.Catalog() {
			if snap.State.Completed(a) {
				done++
			}
		}
		entries = append(entries, SessionEntry{
			Key:     snap.Key,
			Pending: string(snap.Pending),
			Allowed: provisioning.Strings(snap.Legal),
			Done:    done,
		})
	}
	return jsonResource(req.Params.URI, entries)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
