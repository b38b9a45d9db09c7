package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"stencil/internal/service"
)

func (s *Server) registerSendTools() {
	// ── create_send_job ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_send_job",
		mcp.WithDescription("Create a batch send job: a recipient source, a template, and a trigger"),
		mcp.WithString("name", mcp.Description("Job name"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template to render per recipient"), mcp.Required()),
		mcp.WithString("sourceType", mcp.Description("Recipient source type"), mcp.Required()),
		mcp.WithObject("sourceConfig", mcp.Description("Source configuration object"), mcp.Required()),
		mcp.WithString("emailField", mcp.Description("Dot path of the recipient email (falls back to the template's mapping)")),
		mcp.WithString("nameField", mcp.Description("Dot path of the recipient name")),
		mcp.WithString("subjectTemplate", mcp.Description("Subject line; {{dot.path}} placeholders resolve per recipient")),
		mcp.WithString("triggerType", mcp.Description("manual, schedule, or file_watch (default manual)")),
		mcp.WithString("triggerConfig", mcp.Description("Cron expression (schedule) or file path (file_watch)")),
		mcp.WithBoolean("enabled", mcp.Description("Whether schedule/file_watch triggers are active")),
	), s.handleCreateSendJob)

	// ── list_send_jobs ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_send_jobs",
		mcp.WithDescription("List the organization's send jobs"),
	), s.handleListSendJobs)

	// ── run_send_job ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("run_send_job",
		mcp.WithDescription("Run a send job now: read recipients, compose one document per record, hand each to the sender"),
		mcp.WithString("jobId", mcp.Description("Send job ID"), mcp.Required()),
	), s.handleRunSendJob)

	// ── list_send_run_logs ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_send_run_logs",
		mcp.WithDescription("List the most recent run logs for a send job"),
		mcp.WithString("jobId", mcp.Description("Send job ID"), mcp.Required()),
	), s.handleListSendRunLogs)

	// ── delete_send_job (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_send_job",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a send job and its run logs"),
		mcp.WithString("jobId", mcp.Description("Send job ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSendJob)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleCreateSendJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	templateID, _ := args["templateId"].(string)
	sourceType, _ := args["sourceType"].(string)
	if name == "" || templateID == "" || sourceType == "" {
		return nil, fmt.Errorf("name, templateId, and sourceType are required")
	}

	job, err := s.sends.CreateJob(ctx, service.CreateSendJobInput{
		OrgID:           s.orgID,
		Name:            name,
		TemplateID:      templateID,
		SourceType:      sourceType,
		SourceConfig:    getMap(args, "sourceConfig"),
		EmailField:      getString(args, "emailField", ""),
		NameField:       getString(args, "nameField", ""),
		SubjectTemplate: getString(args, "subjectTemplate", ""),
		TriggerType:     getString(args, "triggerType", "manual"),
		TriggerConfig:   getString(args, "triggerConfig", ""),
		Enabled:         getBool(args, "enabled", false),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(job)
}

func (s *Server) handleListSendJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := s.sends.ListJobs(s.orgID)
	if err != nil {
		return nil, err
	}
	return jsonResult(jobs)
}

func (s *Server) handleRunSendJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	jobID, _ := args["jobId"].(string)
	if jobID == "" {
		return nil, fmt.Errorf("jobId is required")
	}

	result, err := s.sends.RunJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return jsonResult(result)
}

func (s *Server) handleListSendRunLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	jobID, _ := args["jobId"].(string)
	if jobID == "" {
		return nil, fmt.Errorf("jobId is required")
	}

	logs, err := s.sends.ListRunLogs(jobID)
	if err != nil {
		return nil, err
	}
	return jsonResult(logs)
}

func (s *Server) handleDeleteSendJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	jobID, _ := args["jobId"].(string)
	if jobID == "" {
		return nil, fmt.Errorf("jobId is required")
	}

	if err := s.sends.DeleteJob(ctx, jobID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Send job %s deleted", jobID)), nil
}
