package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/records"
	"stencil/internal/render"
)

func (s *Server) registerRenderTools() {
	// ── preview_document ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_document",
		mcp.WithDescription("Compose the session's schema against a sample record and return the resolved document (the payload handed to the PDF renderer)"),
		mcp.WithString("record", mcp.Description("Sample record as a JSON object (optional; placeholders stay literal when omitted)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handlePreviewDocument)

	// ── list_sources ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List the available recipient source types and their configuration fields"),
	), s.handleListSources)

	// ── preview_source ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_source",
		mcp.WithDescription("Read up to ten records from a recipient source and infer their schema"),
		mcp.WithString("sourceType", mcp.Description("Source type, e.g. csv_file, json_file, http, database, mongo, recipient_list"), mcp.Required(),
		),
		mcp.WithObject("config", mcp.Description("Source configuration object"), mcp.Required()),
	), s.handlePreviewSource)

	// ── discover_schema ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("discover_schema",
		mcp.WithDescription("Introspect a recipient source and return its field schema without reading data rows"),
		mcp.WithString("sourceType", mcp.Description("Source type"), mcp.Required()),
		mcp.WithObject("config", mcp.Description("Source configuration object"), mcp.Required()),
	), s.handleDiscoverSchema)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handlePreviewDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	_, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}

	rec := records.Record{}
	if raw, ok := args["record"].(string); ok && raw != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("parse record: %w", err)
		}
		rec.Data = data
	}

	doc := render.Compose(sess.Schema(), sess.PaperSize(), sess.Orientation(), rec)
	return jsonResult(doc)
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sends.ListSources())
}

func (s *Server) handlePreviewSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sourceType, _ := args["sourceType"].(string)
	if sourceType == "" {
		return nil, fmt.Errorf("sourceType is required")
	}

	preview, err := s.sends.PreviewSource(ctx, sourceType, getMap(args, "config"))
	if err != nil {
		return nil, err
	}
	return jsonResult(preview)
}

func (s *Server) handleDiscoverSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sourceType, _ := args["sourceType"].(string)
	if sourceType == "" {
		return nil, fmt.Errorf("sourceType is required")
	}

	schema, err := s.sends.DiscoverSchema(ctx, sourceType, getMap(args, "config"))
	if err != nil {
		return nil, err
	}
	return jsonResult(schema)
}
