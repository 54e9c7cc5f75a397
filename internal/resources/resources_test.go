package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/provisio/internal/actions"
	"github.com/HendryAvila/provisio/internal/orchestrator"
)

func readJSON(t *testing.T, contents []mcp.ResourceContents, v any) {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected text contents, got %T", contents[0])
	}
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}
	if err := json.Unmarshal([]byte(tc.Text), v); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, tc.Text)
	}
}

func TestHandleCatalog(t *testing.T) {
	h := NewHandler(orchestrator.New(actions.Default(nil), nil, nil))
	if h.CatalogResource().URI != CatalogURI {
		t.Errorf("URI = %q", h.CatalogResource().URI)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = CatalogURI
	contents, err := h.HandleCatalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	var entries []CatalogEntry
	readJSON(t, contents, &entries)
	if len(entries) != 10 {
		t.Fatalf("expected 10 actions, got %d", len(entries))
	}
	if entries[0].Name != "account.create" || len(entries[0].Prerequisites) != 0 {
		t.Errorf("first entry = %+v", entries[0])
	}
	last := entries[len(entries)-1]
	if last.Name != "role.assign" || len(last.Prerequisites) != 4 {
		t.Errorf("last entry = %+v", last)
	}
	for _, e := range entries {
		if e.Description == "" || e.Description == "proceed" {
			t.Errorf("%s has no description", e.Name)
		}
	}
}

func TestHandleSessions(t *testing.T) {
	orc := orchestrator.New(actions.Default(nil), nil, nil)
	ctx := context.Background()
	if _, err := orc.Handle(ctx, "b", "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := orc.Handle(ctx, "a", "start"); err != nil {
		t.Fatal(err)
	}
	if _, err := orc.Handle(ctx, "a", "yes"); err != nil {
		t.Fatal(err)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = SessionsURI
	contents, err := NewHandler(orc).HandleSessions(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	var entries []SessionEntry
	readJSON(t, contents, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(entries))
	}
	if entries[0].Key != "a" || entries[0].Done != 1 || entries[0].Pending != "" {
		t.Errorf("session a = %+v", entries[0])
	}
	if entries[1].Key != "b" || entries[1].Pending != "account.create" {
		t.Errorf("session b = %+v", entries[1])
	}
	if len(entries[0].Allowed) != 1 || entries[0].Allowed[0] != "account.configure" {
		t.Errorf("session a allowed = %v", entries[0].Allowed)
	}
}
