package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/builder"
	"stencil/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a block to the canvas. Position is auto-calculated if not provided."),
		mcp.WithString("type",
			mcp.Description("Block type: text, table, image, container, divider, spacer"),
			mcp.Required(),
		),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, per-type default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, per-type default)")),
		mcp.WithString("content", mcp.Description("Initial text content (text blocks only)")),
	), s.handleAddBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List all blocks in the session, optionally filtered by type"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block by a relative delta. The move goes through the drag gesture, so grid and guide snapping apply."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal delta"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical delta"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleMoveBlock)

	// ── move_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_blocks",
		mcp.WithDescription("Move multiple blocks by a uniform delta (no snapping)"),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal delta"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical delta"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleMoveBlocks)

	// ── resize_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Resize a block from a handle. Minimum size is 50x20; containers rescale their children proportionally."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("handle", mcp.Description("Resize handle: n, s, e, w, ne, nw, se, sw (default se)")),
		mcp.WithNumber("dx", mcp.Description("Horizontal delta"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical delta"), mcp.Required()),
		mcp.WithBoolean("aspectLocked", mcp.Description("Preserve the aspect ratio")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleResizeBlock)

	// ── set_text_content ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_text_content",
		mcp.WithDescription("Replace the content of a text block. Supports {{dot.path}} placeholders."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New content"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSetTextContent)

	// ── set_block_style ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_block_style",
		mcp.WithDescription("Update a block's style. Pass a JSON object with any BlockStyle fields; geometry is clamped to the canvas and minimum size."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("style", mcp.Description("JSON object of style fields to apply"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSetBlockStyle)

	// ── select_blocks ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_blocks",
		mcp.WithDescription("Replace the current selection. Alignment and grouping tools act on the selection."),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs (empty clears the selection)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSelectBlocks)

	// ── delete_blocks (destructive) ────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_blocks",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete one or more blocks"),
		mcp.WithString("blockIds", mcp.Description("Comma-separated block IDs"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlocks)
}

// defaultBlockSizes are the canvas sizes used when a tool call omits
// dimensions.
var defaultBlockSizes = map[domain.BlockType][2]float64{
	domain.BlockTypeText:      {200, 40},
	domain.BlockTypeTable:     {400, 150},
	domain.BlockTypeImage:     {150, 150},
	domain.BlockTypeContainer: {300, 200},
	domain.BlockTypeDivider:   {400, 20},
	domain.BlockTypeSpacer:    {100, 40},
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType := domain.BlockType(getString(args, "type", ""))
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}

	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}

	defaults, ok := defaultBlockSizes[blockType]
	if !ok {
		return nil, fmt.Errorf("unknown block type: %q", blockType)
	}
	w := getFloat(args, "width", defaults[0])
	h := getFloat(args, "height", defaults[1])

	// Auto-layout if position not provided.
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if !hasX || !hasY {
		canvasW, _ := sess.CanvasSize()
		x, y = s.layout.NextPosition(sess.Blocks(), canvasW, w, h)
	}

	b, ok := sess.AddBlock(blockType, x, y, w, h)
	if !ok {
		return nil, fmt.Errorf("add block failed for type %q", blockType)
	}

	if content, ok := args["content"].(string); ok && content != "" {
		sess.SetTextContent(b.ID, content)
	}

	s.mutated(ctx, templateID)
	return jsonResult(b)
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	_, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	filter := domain.BlockType(getString(args, "type", ""))

	type blockSummary struct {
		ID     string            `json:"id"`
		Type   domain.BlockType  `json:"type"`
		Style  domain.BlockStyle `json:"style"`
		Select bool              `json:"selected"`
	}
	var out []blockSummary
	for _, b := range sess.Blocks() {
		if filter != "" && b.Type != filter {
			continue
		}
		out = append(out, blockSummary{ID: b.ID, Type: b.Type, Style: b.Style, Select: sess.IsSelected(b.ID)})
	}
	return jsonResult(out)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, _ := args["blockId"].(string)

	if !sess.BeginDrag(blockID) {
		return nil, fmt.Errorf("block not found: %s", blockID)
	}
	sess.DragBy(getFloat(args, "dx", 0), getFloat(args, "dy", 0))
	lines := sess.SnapLines()
	sess.EndDrag()

	b, _ := sess.BlockByID(blockID)
	s.mutated(ctx, templateID)
	return jsonResult(map[string]any{"block": b, "snapLines": lines})
}

func (s *Server) handleMoveBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	ids := splitIDs(getString(args, "blockIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("blockIds is required")
	}

	moved := sess.MoveBlocks(ids, getFloat(args, "dx", 0), getFloat(args, "dy", 0))
	if moved == 0 {
		return textResult("No matching blocks"), nil
	}
	s.mutated(ctx, templateID)
	return textResult(fmt.Sprintf("Moved %d block(s)", moved)), nil
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, _ := args["blockId"].(string)
	handle := builder.ResizeHandle(getString(args, "handle", string(builder.HandleSE)))

	if !sess.BeginResize(blockID, handle) {
		return nil, fmt.Errorf("block not found or invalid handle: %s/%s", blockID, handle)
	}
	sess.ResizeBy(getFloat(args, "dx", 0), getFloat(args, "dy", 0), getBool(args, "aspectLocked", false))
	sess.EndResize()

	b, _ := sess.BlockByID(blockID)
	s.mutated(ctx, templateID)
	return jsonResult(b)
}

func (s *Server) handleSetTextContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, _ := args["blockId"].(string)
	content, _ := args["content"].(string)

	if !sess.SetTextContent(blockID, content) {
		return nil, fmt.Errorf("block %s is not a text block", blockID)
	}
	s.mutated(ctx, templateID)
	return textResult("Content updated"), nil
}

func (s *Server) handleSetBlockStyle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, _ := args["blockId"].(string)
	styleJSON, _ := args["style"].(string)
	if styleJSON == "" {
		return nil, fmt.Errorf("style is required")
	}

	b, ok := sess.BlockByID(blockID)
	if !ok {
		return nil, fmt.Errorf("block not found: %s", blockID)
	}

	// Patch semantics: unmarshal over the current style so omitted fields
	// keep their values.
	style := b.Style
	if err := json.Unmarshal([]byte(styleJSON), &style); err != nil {
		return nil, fmt.Errorf("parse style: %w", err)
	}

	if !sess.SetBlockStyle(blockID, style) {
		return nil, fmt.Errorf("block not found: %s", blockID)
	}
	updated, _ := sess.BlockByID(blockID)
	s.mutated(ctx, templateID)
	return jsonResult(updated)
}

func (s *Server) handleSelectBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	_, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	ids := splitIDs(getString(args, "blockIds", ""))
	if len(ids) == 0 {
		sess.ClearSelection()
		return textResult("Selection cleared"), nil
	}
	sess.SelectMany(ids)
	return jsonResult(sess.Selection())
}

func (s *Server) handleDeleteBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	ids := splitIDs(getString(args, "blockIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("blockIds is required")
	}

	deleted := sess.DeleteBlocks(ids...)
	if deleted == 0 {
		return textResult("No matching blocks"), nil
	}
	s.mutated(ctx, templateID)
	return textResult(fmt.Sprintf("Deleted %d block(s)", deleted)), nil
}
