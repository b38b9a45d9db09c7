package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"stencil/internal/builder"
	"stencil/internal/domain"
	"stencil/internal/secret"
	"stencil/internal/service"
)

// Server is the MCP surface of the template builder. It exposes tools and
// resources so agents can open sessions, edit templates, and run send jobs
// over stdio.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter
	layout  *LayoutEngine

	// Services (injected from app layer)
	templates *service.TemplateService
	sessions  *service.SessionService
	sends     *service.SendService
	conns     domain.DatabaseConnectionStore
	secrets   secret.SecretStore

	// Active template context (set by open_template)
	activeTemplateID string
	orgID            string
}

// Deps holds all dependencies passed from the app layer to the MCP server.
type Deps struct {
	Emitter     service.EventEmitter
	Templates   *service.TemplateService
	Sessions    *service.SessionService
	Sends       *service.SendService
	Connections domain.DatabaseConnectionStore
	Secrets     secret.SecretStore
	OrgID       string
}

// New creates and configures an MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	s := &Server{
		emitter:   deps.Emitter,
		layout:    NewLayoutEngine(),
		templates: deps.Templates,
		sessions:  deps.Sessions,
		sends:     deps.Sends,
		conns:     deps.Connections,
		secrets:   deps.Secrets,
		orgID:     deps.OrgID,
	}

	s.mcp = server.NewMCPServer(
		"stencil-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerSessionTools()
	s.registerBlockTools()
	s.registerArrangeTools()
	s.registerTableTools()
	s.registerGuideTools()
	s.registerRenderTools()
	s.registerSendTools()
	s.registerConnectionTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Info("starting mcp stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveTemplateID returns the templateId from tool args or falls back to
// the active template.
func (s *Server) resolveTemplateID(args map[string]any) (string, error) {
	if tid, ok := args["templateId"].(string); ok && tid != "" {
		return tid, nil
	}
	if s.activeTemplateID != "" {
		return s.activeTemplateID, nil
	}
	return "", fmt.Errorf("no templateId provided and no active template (use open_template first)")
}

// sessionForTool resolves the builder session the tool should act on.
func (s *Server) sessionForTool(args map[string]any) (string, *builder.Session, error) {
	templateID, err := s.resolveTemplateID(args)
	if err != nil {
		return "", nil, err
	}
	sess, ok := s.sessions.Session(templateID)
	if !ok {
		return "", nil, fmt.Errorf("template %s has no open session (use open_template first)", templateID)
	}
	return templateID, sess, nil
}

// mutated arms the autosave debounce after a successful edit.
func (s *Server) mutated(ctx context.Context, templateID string) {
	s.sessions.Mutated(ctx, templateID)
}
