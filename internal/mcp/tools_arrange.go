package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/builder"
)

func (s *Server) registerArrangeTools() {
	// ── align_blocks ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("align_blocks",
		mcp.WithDescription("Align the selected blocks. A single selected block aligns to the canvas edges; multiple blocks align to their collective bounds."),
		mcp.WithString("alignment",
			mcp.Description("left, center, right, top, middle, bottom"),
			mcp.Required(),
		),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs to select first (optional, uses current selection)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleAlignBlocks)

	// ── distribute_blocks ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("distribute_blocks",
		mcp.WithDescription("Lay the selected blocks out sequentially along an axis with a uniform gap"),
		mcp.WithString("axis", mcp.Description("horizontal or vertical"), mcp.Required()),
		mcp.WithNumber("gap", mcp.Description("Gap between blocks in points (default 20)")),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs to select first (optional, uses current selection)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleDistributeBlocks)

	// ── group_blocks ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("group_blocks",
		mcp.WithDescription("Group the selected blocks into a container; their coordinates become container-relative"),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs to select first (optional, uses current selection)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleGroupBlocks)

	// ── ungroup_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("ungroup_blocks",
		mcp.WithDescription("Dissolve the selected container, promoting its children back to absolute coordinates"),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs to select first (optional, uses current selection)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleUngroupBlocks)
}

// ── Handlers ───────────────────────────────────────────────

// applySelection replaces the session selection when the tool call names
// explicit block IDs.
func applySelection(sess sessionSelector, args map[string]any) {
	if ids := splitIDs(getString(args, "blockIds", "")); len(ids) > 0 {
		sess.SelectMany(ids)
	}
}

type sessionSelector interface {
	SelectMany(ids []string)
}

func (s *Server) handleAlignBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	applySelection(sess, args)

	alignment := builder.Alignment(getString(args, "alignment", ""))
	switch alignment {
	case builder.AlignLeft, builder.AlignCenter, builder.AlignRight,
		builder.AlignTop, builder.AlignMiddle, builder.AlignBottom:
	default:
		return nil, fmt.Errorf("invalid alignment: %q", alignment)
	}

	if !sess.AlignSelection(alignment) {
		return textResult("Nothing selected"), nil
	}
	s.mutated(ctx, templateID)
	return textResult(fmt.Sprintf("Aligned %s", alignment)), nil
}

func (s *Server) handleDistributeBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	applySelection(sess, args)

	axis := builder.DistributeAxis(getString(args, "axis", ""))
	if axis != builder.DistributeHorizontal && axis != builder.DistributeVertical {
		return nil, fmt.Errorf("invalid axis: %q", axis)
	}

	if !sess.DistributeSelection(axis, getFloat(args, "gap", 20)) {
		return textResult("Need at least two selected blocks to distribute"), nil
	}
	s.mutated(ctx, templateID)
	return textResult(fmt.Sprintf("Distributed %s", axis)), nil
}

func (s *Server) handleGroupBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	applySelection(sess, args)

	container, ok := sess.GroupSelection()
	if !ok {
		return textResult("Need at least two selected blocks to group"), nil
	}
	s.mutated(ctx, templateID)
	return jsonResult(container)
}

func (s *Server) handleUngroupBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	applySelection(sess, args)

	if !sess.UngroupSelection() {
		return textResult("Selection contains no container"), nil
	}
	s.mutated(ctx, templateID)
	return textResult("Ungrouped"), nil
}
