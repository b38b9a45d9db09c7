package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/domain"
	"stencil/internal/service"
)

func (s *Server) registerSessionTools() {
	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List all templates in the organization"),
	), s.handleListTemplates)

	// ── create_template ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_template",
		mcp.WithDescription("Create a new empty template"),
		mcp.WithString("name", mcp.Description("Template name"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Template type: PAYROLL or GENERAL (default GENERAL)")),
	), s.handleCreateTemplate)

	// ── open_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_template",
		mcp.WithDescription("Open a builder session on a template and make it the active template. Loads the autosaved draft when one exists."),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
	), s.handleOpenTemplate)

	// ── save_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_template",
		mcp.WithDescription("Commit the session's current schema as the template's saved version and clear its draft"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSaveTemplate)

	// ── close_template ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_template",
		mcp.WithDescription("Close the builder session, flushing any pending autosave"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleCloseTemplate)

	// ── get_schema ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Return the session's full template schema as JSON"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleGetSchema)

	// ── undo ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit in the builder session"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleUndo)

	// ── redo ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the previously undone edit"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleRedo)

	// ── set_template_settings ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_template_settings",
		mcp.WithDescription("Update template-level settings: name, type, paper size, orientation, grid size, recipient field mapping"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithString("name", mcp.Description("New template name")),
		mcp.WithString("type", mcp.Description("Template type: PAYROLL or GENERAL")),
		mcp.WithString("paperSize", mcp.Description("Paper size name: A4, Letter, Legal")),
		mcp.WithString("orientation", mcp.Description("portrait or landscape")),
		mcp.WithNumber("gridSize", mcp.Description("Snap grid size in points")),
		mcp.WithString("emailField", mcp.Description("Dot path of the recipient email field")),
		mcp.WithString("nameField", mcp.Description("Dot path of the recipient name field")),
	), s.handleSetTemplateSettings)

	// ── set_global_styles ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_global_styles",
		mcp.WithDescription("Update the template-wide style defaults (font, colors)"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithString("fontFamily", mcp.Description("Default font family")),
		mcp.WithNumber("fontSize", mcp.Description("Default font size")),
		mcp.WithString("primaryColor", mcp.Description("Primary color, e.g. #1a1a2e")),
		mcp.WithString("secondaryColor", mcp.Description("Secondary color")),
		mcp.WithString("accentColor", mcp.Description("Accent color")),
		mcp.WithString("backgroundColor", mcp.Description("Background color")),
		mcp.WithString("borderColor", mcp.Description("Border color")),
	), s.handleSetGlobalStyles)

	// ── delete_template (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_template",
		mcp.WithDescription("🛑 DESTRUCTIVE: Permanently delete a template, its draft, and its history"),
		mcp.WithString("templateId", mcp.Description("Template ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteTemplate)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := s.templates.ListTemplates(s.orgID)
	if err != nil {
		return nil, err
	}

	type templateSummary struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Type      string `json:"type"`
		PaperSize string `json:"paperSize"`
		Published bool   `json:"published"`
	}
	summaries := make([]templateSummary, len(templates))
	for i, t := range templates {
		summaries[i] = templateSummary{
			ID:        t.ID,
			Name:      t.Name,
			Type:      string(t.Type),
			PaperSize: t.PaperSize,
			Published: t.Published,
		}
	}
	return jsonResult(summaries)
}

func (s *Server) handleCreateTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	t, err := s.templates.CreateTemplate(ctx, service.CreateTemplateInput{
		OrgID: s.orgID,
		Name:  name,
		Type:  domain.TemplateType(getString(args, "type", string(domain.TemplateTypeGeneral))),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(t)
}

func (s *Server) handleOpenTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, _ := args["templateId"].(string)
	if templateID == "" {
		return nil, fmt.Errorf("templateId is required")
	}

	sess, err := s.sessions.OpenSession(ctx, templateID)
	if err != nil {
		return nil, err
	}
	s.activeTemplateID = templateID

	w, h := sess.CanvasSize()
	return jsonResult(map[string]any{
		"templateId":   templateID,
		"name":         sess.TemplateName(),
		"type":         sess.TemplateType(),
		"paperSize":    sess.PaperSize().Name,
		"orientation":  sess.Orientation(),
		"canvasWidth":  w,
		"canvasHeight": h,
		"blocks":       len(sess.Blocks()),
	})
}

func (s *Server) handleSaveTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, _, err := s.sessionForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveSession(ctx, templateID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Template %s saved", templateID)), nil
}

func (s *Server) handleCloseTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := s.resolveTemplateID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	s.sessions.CloseSession(ctx, templateID)
	if s.activeTemplateID == templateID {
		s.activeTemplateID = ""
	}
	return textResult(fmt.Sprintf("Template %s closed", templateID)), nil
}

func (s *Server) handleGetSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, sess, err := s.sessionForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(sess.Schema())
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, sess, err := s.sessionForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Undo() {
		return textResult("Nothing to undo"), nil
	}
	s.mutated(ctx, templateID)
	return textResult("Undone"), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, sess, err := s.sessionForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Redo() {
		return textResult("Nothing to redo"), nil
	}
	s.mutated(ctx, templateID)
	return textResult("Redone"), nil
}

func (s *Server) handleSetTemplateSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}

	if name, ok := args["name"].(string); ok && name != "" {
		sess.SetTemplateName(name)
	}
	if typ, ok := args["type"].(string); ok && typ != "" {
		sess.SetTemplateType(domain.TemplateType(typ))
	}
	if paper, ok := args["paperSize"].(string); ok && paper != "" {
		if !sess.SetPaperSize(paper) {
			return nil, fmt.Errorf("unknown paper size: %q", paper)
		}
	}
	if o, ok := args["orientation"].(string); ok && o != "" {
		sess.SetOrientation(domain.Orientation(o))
	}
	if g, ok := args["gridSize"].(float64); ok {
		sess.SetGridSize(g)
	}
	if _, hasEmail := args["emailField"]; hasEmail {
		email, name := sess.RecipientFields()
		email = getString(args, "emailField", email)
		name = getString(args, "nameField", name)
		sess.SetRecipientFields(email, name)
	} else if _, hasName := args["nameField"]; hasName {
		email, name := sess.RecipientFields()
		sess.SetRecipientFields(email, getString(args, "nameField", name))
	}

	s.mutated(ctx, templateID)
	return textResult("Settings updated"), nil
}

func (s *Server) handleSetGlobalStyles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, sess, err := s.sessionForTool(args)
	if err != nil {
		return nil, err
	}

	gs := sess.GlobalStyles()
	gs.FontFamily = getString(args, "fontFamily", gs.FontFamily)
	gs.FontSize = getFloat(args, "fontSize", gs.FontSize)
	gs.PrimaryColor = getString(args, "primaryColor", gs.PrimaryColor)
	gs.SecondaryColor = getString(args, "secondaryColor", gs.SecondaryColor)
	gs.AccentColor = getString(args, "accentColor", gs.AccentColor)
	gs.BackgroundColor = getString(args, "backgroundColor", gs.BackgroundColor)
	gs.BorderColor = getString(args, "borderColor", gs.BorderColor)
	sess.SetGlobalStyles(gs)

	s.mutated(ctx, templateID)
	return jsonResult(gs)
}

func (s *Server) handleDeleteTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, _ := args["templateId"].(string)
	if templateID == "" {
		return nil, fmt.Errorf("templateId is required")
	}

	s.sessions.CloseSession(ctx, templateID)
	if err := s.templates.DeleteTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	if s.activeTemplateID == templateID {
		s.activeTemplateID = ""
	}
	return textResult(fmt.Sprintf("Template %s deleted", templateID)), nil
}
