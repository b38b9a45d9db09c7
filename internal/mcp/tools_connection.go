package mcpserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/domain"
)

func (s *Server) registerConnectionTools() {
	// ── create_db_connection ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_db_connection",
		mcp.WithDescription("Store a customer database connection usable by the database and mongo recipient sources. The password goes to the secret store, not the database."),
		mcp.WithString("name", mcp.Description("Display name"), mcp.Required()),
		mcp.WithString("driver", mcp.Description("mysql, postgres, mongodb, or sqlite"), mcp.Required()),
		mcp.WithString("host", mcp.Description("Hostname, connection URI (mongodb), or file path (sqlite)"), mcp.Required()),
		mcp.WithNumber("port", mcp.Description("Port (omit for sqlite/mongodb URI)")),
		mcp.WithString("database", mcp.Description("Database name")),
		mcp.WithString("username", mcp.Description("Username")),
		mcp.WithString("password", mcp.Description("Password (stored in the secret store)")),
		mcp.WithString("sslMode", mcp.Description("SSL mode (postgres)")),
	), s.handleCreateDBConnection)

	// ── list_db_connections ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_db_connections",
		mcp.WithDescription("List stored database connections (no credentials)"),
	), s.handleListDBConnections)

	// ── delete_db_connection (destructive) ─────────────
	s.mcp.AddTool(mcp.NewTool("delete_db_connection",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a stored database connection and its credential"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteDBConnection)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleCreateDBConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	driver := domain.DatabaseDriver(getString(args, "driver", ""))
	host, _ := args["host"].(string)
	if name == "" || driver == "" || host == "" {
		return nil, fmt.Errorf("name, driver, and host are required")
	}
	switch driver {
	case domain.DatabaseDriverMySQL, domain.DatabaseDriverPostgres,
		domain.DatabaseDriverMongoDB, domain.DatabaseDriverSQLite:
	default:
		return nil, fmt.Errorf("unknown driver: %q", driver)
	}

	conn := &domain.DatabaseConnection{
		ID:       uuid.New().String(),
		OrgID:    s.orgID,
		Name:     name,
		Driver:   driver,
		Host:     host,
		Port:     getInt(args, "port", 0),
		Database: getString(args, "database", ""),
		Username: getString(args, "username", ""),
		SSLMode:  getString(args, "sslMode", ""),
	}
	if err := s.conns.CreateConnection(conn); err != nil {
		return nil, err
	}

	if password, ok := args["password"].(string); ok && password != "" {
		if err := s.secrets.Set("dbpass:"+conn.ID, []byte(password)); err != nil {
			return nil, fmt.Errorf("store credential: %w", err)
		}
	}
	return jsonResult(conn)
}

func (s *Server) handleListDBConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conns, err := s.conns.ListConnections(s.orgID)
	if err != nil {
		return nil, err
	}
	return jsonResult(conns)
}

func (s *Server) handleDeleteDBConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	connID, _ := args["connectionId"].(string)
	if connID == "" {
		return nil, fmt.Errorf("connectionId is required")
	}

	if err := s.conns.DeleteConnection(connID); err != nil {
		return nil, err
	}
	s.secrets.Delete("dbpass:" + connID)
	return textResult(fmt.Sprintf("Connection %s deleted", connID)), nil
}
