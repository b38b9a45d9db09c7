package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/domain"
)

func (s *Server) registerGuideTools() {
	// ── add_guide ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_guide",
		mcp.WithDescription("Drop a persistent alignment guide onto the canvas; dragged blocks snap to it within 5pt"),
		mcp.WithString("orientation", mcp.Description("horizontal or vertical"), mcp.Required()),
		mcp.WithNumber("position", mcp.Description("Canvas coordinate of the guide line"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleAddGuide)

	// ── remove_guide ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_guide",
		mcp.WithDescription("Remove an alignment guide"),
		mcp.WithString("guideId", mcp.Description("Guide ID"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleRemoveGuide)

	// ── list_guides ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_guides",
		mcp.WithDescription("List the canvas guides"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleListGuides)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}

	orientation := domain.GuideOrientation(getString(args, "orientation", ""))
	if orientation != domain.GuideHorizontal && orientation != domain.GuideVertical {
		return nil, fmt.Errorf("invalid orientation: %q", orientation)
	}

	g := sess.AddGuide(orientation, getFloat(args, "position", 0))
	s.mutated(ctx, templateID)
	return jsonResult(g)
}

func (s *Server) handleRemoveGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	guideID, _ := args["guideId"].(string)

	if !sess.RemoveGuide(guideID) {
		return nil, fmt.Errorf("guide not found: %s", guideID)
	}
	s.mutated(ctx, templateID)
	return textResult("Guide removed"), nil
}

func (s *Server) handleListGuides(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, sess, err := s.sessionForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(sess.Guides())
}
