package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/builder"
	"stencil/internal/domain"
)

func (s *Server) registerTableTools() {
	// ── set_cell_content ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_cell_content",
		mcp.WithDescription("Set the free-text content of a table cell"),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Row index (0-based)"), mcp.Required()),
		mcp.WithNumber("col", mcp.Description("Column index (0-based)"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Cell content"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSetCellContent)

	// ── bind_cell_variable ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("bind_cell_variable",
		mcp.WithDescription("Bind a table cell to a variable. The cell shows the variable's label and resolves from the recipient record at render time. Clears any label marking."),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Row index (0-based)"), mcp.Required()),
		mcp.WithNumber("col", mcp.Description("Column index (0-based)"), mcp.Required()),
		mcp.WithString("key", mcp.Description("Variable key, a dot path like employee.name"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Human-readable label (optional)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleBindCellVariable)

	// ── mark_cell_label ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("mark_cell_label",
		mcp.WithDescription("Mark a table cell as a label. Labels spawn a derived variable family (label.value, label.amount, ...) added to the catalog. Clears any variable binding."),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Row index (0-based)"), mcp.Required()),
		mcp.WithNumber("col", mcp.Description("Column index (0-based)"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleMarkCellLabel)

	// ── clear_cell ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_cell",
		mcp.WithDescription("Clear a cell's variable binding and label marking, keeping its text"),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Row index (0-based)"), mcp.Required()),
		mcp.WithNumber("col", mcp.Description("Column index (0-based)"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleClearCell)

	// ── suggest_variables ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("suggest_variables",
		mcp.WithDescription("Rank catalog variables against a cell's text (exact > prefix > substring > word overlap); returns the top five"),
		mcp.WithString("content", mcp.Description("Text to match, usually the cell content"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSuggestVariables)

	// ── list_variables ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_variables",
		mcp.WithDescription("List the session's variable catalog, including label-derived families"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleListVariables)

	// ── add_variable ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_variable",
		mcp.WithDescription("Add a variable to the session catalog"),
		mcp.WithString("key", mcp.Description("Dot-path key, e.g. employee.salary"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Display label")),
		mcp.WithString("category", mcp.Description("Catalog category")),
		mcp.WithString("sample", mcp.Description("Sample value shown in pickers")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleAddVariable)

	// ── import_variables ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_variables",
		mcp.WithDescription("Seed the variable catalog from a recipient source's discovered schema"),
		mcp.WithString("sourceType", mcp.Description("Source type, e.g. csv_file, database"), mcp.Required()),
		mcp.WithObject("config", mcp.Description("Source configuration object"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleImportVariables)
}

// ── Handlers ───────────────────────────────────────────────

// cellArgs pulls the shared blockId/row/col triple out of tool arguments.
func cellArgs(args map[string]any) (blockID string, row, col int, err error) {
	blockID, _ = args["blockId"].(string)
	if blockID == "" {
		return "", 0, 0, fmt.Errorf("blockId is required")
	}
	return blockID, getInt(args, "row", -1), getInt(args, "col", -1), nil
}

func (s *Server) handleSetCellContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, row, col, err := cellArgs(args)
	if err != nil {
		return nil, err
	}
	content, _ := args["content"].(string)

	if !sess.SetCellContent(blockID, row, col, content) {
		return nil, fmt.Errorf("no table cell at %s[%d][%d]", blockID, row, col)
	}
	s.mutated(ctx, templateID)
	return textResult("Cell updated"), nil
}

func (s *Server) handleBindCellVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, row, col, err := cellArgs(args)
	if err != nil {
		return nil, err
	}
	key, _ := args["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}

	v := domain.Variable{Key: key, Label: getString(args, "label", "")}
	if !sess.BindCellVariable(blockID, row, col, v) {
		return nil, fmt.Errorf("no table cell at %s[%d][%d]", blockID, row, col)
	}

	cell, _ := sess.Cell(blockID, row, col)
	s.mutated(ctx, templateID)
	return jsonResult(cell)
}

func (s *Server) handleMarkCellLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, row, col, err := cellArgs(args)
	if err != nil {
		return nil, err
	}

	labelID, ok := sess.MarkCellLabel(blockID, row, col, "")
	if !ok {
		return nil, fmt.Errorf("no table cell at %s[%d][%d]", blockID, row, col)
	}

	s.mutated(ctx, templateID)
	return jsonResult(map[string]any{
		"labelId":   labelID,
		"variables": builderLabelFamily(sess, labelID),
	})
}

// builderLabelFamily returns the catalog variables derived from one label.
func builderLabelFamily(sess *builder.Session, labelID string) []domain.Variable {
	prefix := "label." + labelID
	var out []domain.Variable
	for _, v := range sess.Variables() {
		if v.Key == prefix || strings.HasPrefix(v.Key, prefix+".") {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) handleClearCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	blockID, row, col, err := cellArgs(args)
	if err != nil {
		return nil, err
	}

	if !sess.ClearCell(blockID, row, col) {
		return nil, fmt.Errorf("no table cell at %s[%d][%d]", blockID, row, col)
	}
	s.mutated(ctx, templateID)
	return textResult("Cell cleared"), nil
}

func (s *Server) handleSuggestVariables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	_, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	content, _ := args["content"].(string)

	return jsonResult(builder.SuggestVariables(content, sess.Variables()))
}

func (s *Server) handleListVariables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, sess, err := s.sessionForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(sess.Variables())
}

func (s *Server) handleAddVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	key, _ := args["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}

	sess.AddVariable(domain.Variable{
		Key:      key,
		Label:    getString(args, "label", ""),
		Category: getString(args, "category", ""),
		Sample:   getString(args, "sample", ""),
	})
	s.mutated(ctx, templateID)
	return textResult(fmt.Sprintf("Variable %s added", key)), nil
}

func (s *Server) handleImportVariables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}
	sourceType, _ := args["sourceType"].(string)
	if sourceType == "" {
		return nil, fmt.Errorf("sourceType is required")
	}

	schema, err := s.sends.DiscoverSchema(ctx, sourceType, getMap(args, "config"))
	if err != nil {
		return nil, err
	}

	added := 0
	for _, f := range schema.Fields {
		sess.AddVariable(domain.Variable{Key: f.Name, Category: sourceType})
		added++
	}
	s.mutated(ctx, templateID)
	return textResult(fmt.Sprintf("Imported %d variable(s) from %s", added, sourceType)), nil
}
