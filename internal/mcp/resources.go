package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── stencil://templates ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"stencil://templates",
		"All Templates",
		mcp.WithMIMEType("application/json"),
	), s.handleTemplatesResource)

	// ── stencil://template/{templateId}/schema ─────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"stencil://template/{templateId}/schema",
			"Template Schema",
		),
		s.handleTemplateSchemaResource,
	)
}

func (s *Server) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	templates, err := s.templates.ListTemplates(s.orgID)
	if err != nil {
		return nil, err
	}

	type templateSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	var summaries []templateSummary
	for _, t := range templates {
		summaries = append(summaries, templateSummary{ID: t.ID, Name: t.Name, Type: string(t.Type)})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "stencil://templates",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTemplateSchemaResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	templateID := extractTemplateIDFromURI(uri)
	if templateID == "" {
		return nil, fmt.Errorf("could not extract templateId from URI: %s", uri)
	}

	// An open session's live schema wins over the stored one.
	var text string
	if sess, ok := s.sessions.Session(templateID); ok {
		data, err := json.MarshalIndent(sess.Schema(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		text = string(data)
	} else {
		t, err := s.templates.GetTemplate(templateID)
		if err != nil {
			return nil, err
		}
		text = t.SchemaJSON
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

// extractTemplateIDFromURI parses stencil://template/{id}/schema.
func extractTemplateIDFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "stencil://template/")
	if trimmed == uri {
		return ""
	}
	return strings.TrimSuffix(trimmed, "/schema")
}
