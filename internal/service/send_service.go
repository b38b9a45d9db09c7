package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"stencil/internal/domain"
	"stencil/internal/records"
	"stencil/internal/render"
)

// ─────────────────────────────────────────────────────────────
// Send Service — batch document sends: sources → compose → sender
// ─────────────────────────────────────────────────────────────

// maxRecipientsPerRun caps how many records one run will read.
const maxRecipientsPerRun = 10000

// OutgoingDocument is one composed document addressed to one recipient,
// handed to the Sender for delivery.
type OutgoingDocument struct {
	JobID          string
	TemplateID     string
	RecipientEmail string
	RecipientName  string
	Subject        string
	Document       *render.Document
	Record         records.Record
}

// Sender delivers composed documents. The SMTP implementation lives
// outside this service; tests use RecordingSender.
type Sender interface {
	Send(ctx context.Context, doc OutgoingDocument) error
}

// RecordingSender collects outgoing documents instead of delivering them.
type RecordingSender struct {
	Sent []OutgoingDocument
}

func (r *RecordingSender) Send(_ context.Context, doc OutgoingDocument) error {
	r.Sent = append(r.Sent, doc)
	return nil
}

// SendService manages send jobs, their schedule/file-watch triggers, and
// job execution.
type SendService struct {
	jobs        domain.SendJobStore
	templates   *TemplateService
	sender      Sender
	emitter     EventEmitter
	runningJobs runGuard

	// watcher / cron lifecycle
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewSendService creates a SendService ready for use.
func NewSendService(
	jobs domain.SendJobStore,
	templates *TemplateService,
	sender Sender,
	emitter EventEmitter,
) *SendService {
	return &SendService{
		jobs:      jobs,
		templates: templates,
		sender:    sender,
		emitter:   emitter,
	}
}

// ── Job CRUD ───────────────────────────────────────────────

type CreateSendJobInput struct {
	OrgID           string         `json:"orgId"`
	Name            string         `json:"name"`
	TemplateID      string         `json:"templateId"`
	SourceType      string         `json:"sourceType"`
	SourceConfig    map[string]any `json:"sourceConfig"`
	EmailField      string         `json:"emailField"`
	NameField       string         `json:"nameField"`
	SubjectTemplate string         `json:"subjectTemplate"`
	TriggerType     string         `json:"triggerType"`
	TriggerConfig   string         `json:"triggerConfig"`
	Enabled         bool           `json:"enabled"`
}

func (s *SendService) CreateJob(ctx context.Context, input CreateSendJobInput) (*domain.SendJob, error) {
	if _, err := records.GetSource(input.SourceType); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetTemplate(input.TemplateID); err != nil {
		return nil, fmt.Errorf("create send job: %w", err)
	}

	job := &domain.SendJob{
		ID:              uuid.New().String(),
		OrgID:           input.OrgID,
		Name:            input.Name,
		TemplateID:      input.TemplateID,
		SourceType:      input.SourceType,
		SourceConfig:    input.SourceConfig,
		EmailField:      input.EmailField,
		NameField:       input.NameField,
		SubjectTemplate: input.SubjectTemplate,
		TriggerType:     input.TriggerType,
		TriggerConfig:   input.TriggerConfig,
		Enabled:         input.Enabled,
	}
	if job.TriggerType == "" {
		job.TriggerType = "manual"
	}

	if err := s.jobs.CreateJob(job); err != nil {
		return nil, fmt.Errorf("create send job: %w", err)
	}
	s.RestartWatchers(ctx)
	return job, nil
}

func (s *SendService) GetJob(id string) (*domain.SendJob, error) {
	return s.jobs.GetJob(id)
}

func (s *SendService) ListJobs(orgID string) ([]domain.SendJob, error) {
	return s.jobs.ListJobs(orgID)
}

func (s *SendService) UpdateJob(ctx context.Context, id string, input CreateSendJobInput) error {
	job, err := s.jobs.GetJob(id)
	if err != nil {
		return err
	}
	job.Name = input.Name
	job.TemplateID = input.TemplateID
	job.SourceType = input.SourceType
	job.SourceConfig = input.SourceConfig
	job.EmailField = input.EmailField
	job.NameField = input.NameField
	job.SubjectTemplate = input.SubjectTemplate
	job.TriggerType = input.TriggerType
	job.TriggerConfig = input.TriggerConfig
	job.Enabled = input.Enabled

	if err := s.jobs.UpdateJob(job); err != nil {
		return err
	}
	s.RestartWatchers(ctx)
	return nil
}

func (s *SendService) DeleteJob(ctx context.Context, id string) error {
	err := s.jobs.DeleteJob(id)
	if err == nil {
		s.RestartWatchers(ctx)
	}
	return err
}

// ── Run ────────────────────────────────────────────────────

// SendResult summarizes one job run.
type SendResult struct {
	Status     string `json:"status"`
	Recipients int    `json:"recipients"`
	Sent       int    `json:"sent"`
	Skipped    int    `json:"skipped"`
}

// RunJob executes a send job synchronously: read the recipient source,
// compose one document per record, hand each to the sender. Records with
// no resolvable email are skipped and counted, not fatal.
func (s *SendService) RunJob(ctx context.Context, id string) (*SendResult, error) {
	// Prevent concurrent execution of the same job.
	if !s.runningJobs.TryLock(id) {
		return nil, fmt.Errorf("job %s is already running", id)
	}
	defer s.runningJobs.Unlock(id)

	job, err := s.jobs.GetJob(id)
	if err != nil {
		return nil, err
	}

	s.jobs.UpdateJobStatus(id, "running", "")

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	result, runErr := s.run(runCtx, job)

	runLog := &domain.SendRunLog{
		JobID:      id,
		StartedAt:  start,
		FinishedAt: time.Now(),
		Status:     result.Status,
		Recipients: result.Recipients,
		Sent:       result.Sent,
		Skipped:    result.Skipped,
	}
	if runErr != nil {
		runLog.Error = runErr.Error()
	}
	s.jobs.CreateRunLog(runLog)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	s.jobs.UpdateJobStatus(id, result.Status, errMsg)

	if result.Status == "success" {
		s.emitter.Emit(ctx, "send:job-completed", map[string]any{
			"jobId": id,
			"sent":  result.Sent,
		})
	}

	return result, runErr
}

func (s *SendService) run(ctx context.Context, job *domain.SendJob) (*SendResult, error) {
	result := &SendResult{Status: "error"}

	t, err := s.templates.GetTemplate(job.TemplateID)
	if err != nil {
		return result, fmt.Errorf("load template: %w", err)
	}
	var schema domain.TemplateSchema
	if err := json.Unmarshal([]byte(t.SchemaJSON), &schema); err != nil {
		return result, fmt.Errorf("parse template schema: %w", err)
	}
	paper, ok := domain.PaperSizeByName(t.PaperSize)
	if !ok {
		paper = domain.PaperA4
	}

	emailField := job.EmailField
	if emailField == "" {
		emailField = t.RecipientEmailField
	}
	nameField := job.NameField
	if nameField == "" {
		nameField = t.RecipientNameField
	}
	if emailField == "" {
		return result, fmt.Errorf("send job %s has no email field mapping", job.ID)
	}

	recs, err := records.ReadAll(ctx, job.SourceType, records.SourceConfig(job.SourceConfig), maxRecipientsPerRun)
	if err != nil {
		return result, fmt.Errorf("read recipients: %w", err)
	}
	result.Recipients = len(recs)

	for _, rec := range recs {
		email := lookupString(rec, emailField)
		if email == "" {
			result.Skipped++
			continue
		}

		doc := render.Compose(schema, paper, t.Orientation, rec)
		out := OutgoingDocument{
			JobID:          job.ID,
			TemplateID:     job.TemplateID,
			RecipientEmail: email,
			RecipientName:  lookupString(rec, nameField),
			Subject:        render.ResolveText(job.SubjectTemplate, rec),
			Document:       doc,
			Record:         rec,
		}
		if err := s.sender.Send(ctx, out); err != nil {
			return result, fmt.Errorf("send to %s: %w", email, err)
		}
		result.Sent++
	}

	result.Status = "success"
	return result, nil
}

func lookupString(rec records.Record, path string) string {
	if path == "" {
		return ""
	}
	v, ok := rec.Lookup(path)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// ── Preview / Schema Discovery ─────────────────────────────

// PreviewResult is the response from PreviewSource.
type PreviewResult struct {
	Schema  *records.Schema  `json:"schema"`
	Records []records.Record `json:"records"`
}

// PreviewSource reads up to ten records from a source so a template
// author can inspect real data before wiring a job to it.
func (s *SendService) PreviewSource(ctx context.Context, sourceType string, cfg map[string]any) (*PreviewResult, error) {
	previewCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	recs, err := records.ReadAll(previewCtx, sourceType, records.SourceConfig(cfg), 10)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{Schema: records.InferSchema(recs), Records: recs}, nil
}

// DiscoverSchema introspects a source and returns its field schema,
// ready to seed the builder's variable catalog.
func (s *SendService) DiscoverSchema(ctx context.Context, sourceType string, cfg map[string]any) (*records.Schema, error) {
	source, err := records.GetSource(sourceType)
	if err != nil {
		return nil, err
	}

	discCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	return source.Discover(discCtx, records.SourceConfig(cfg))
}

// ListSources returns the available recipient source descriptors.
func (s *SendService) ListSources() []records.SourceSpec {
	return records.ListSources()
}

// ListRunLogs returns the last 50 run logs for a job.
func (s *SendService) ListRunLogs(jobID string) ([]domain.SendRunLog, error) {
	return s.jobs.ListRunLogs(jobID, 50)
}

// ── Watchers (cron + file_watch) ──────────────────────────

// RestartWatchers tears down the current watcher/cron and rebuilds them
// from the enabled scheduled jobs.
func (s *SendService) RestartWatchers(ctx context.Context) {
	s.stopWatchers()

	jobs, err := s.jobs.ListEnabledScheduledJobs()
	if err != nil {
		log.Error("send watcher: failed to list jobs", "err", err)
		return
	}

	// ── Cron jobs ──
	var cronJobs []struct {
		jobID string
		expr  string
	}
	for _, j := range jobs {
		if j.TriggerType == "schedule" && j.TriggerConfig != "" {
			cronJobs = append(cronJobs, struct {
				jobID string
				expr  string
			}{jobID: j.ID, expr: j.TriggerConfig})
		}
	}

	if len(cronJobs) > 0 {
		c := cron.New()
		for _, cj := range cronJobs {
			jid := cj.jobID
			_, err := c.AddFunc(cj.expr, func() {
				log.Info("send cron: running job", "job", jid)
				if _, err := s.RunJob(ctx, jid); err != nil {
					log.Error("send cron: job failed", "job", jid, "err", err)
				}
			})
			if err != nil {
				log.Error("send cron: invalid expression", "expr", cj.expr, "job", cj.jobID, "err", err)
			}
		}
		c.Start()
		s.cronSched = c
		log.Info("send cron: scheduled jobs", "count", len(cronJobs))
	}

	// ── File watchers ──
	type watchEntry struct {
		jobID string
		path  string
	}
	var entries []watchEntry
	for _, j := range jobs {
		if j.TriggerType == "file_watch" && j.TriggerConfig != "" {
			entries = append(entries, watchEntry{jobID: j.ID, path: j.TriggerConfig})
		}
	}

	if len(entries) == 0 {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("send watcher: failed to create watcher", "err", err)
		return
	}
	s.watcher = watcher

	pathToJob := make(map[string]string)
	watchedDirs := make(map[string]bool)
	for _, e := range entries {
		absPath, err := filepath.Abs(e.path)
		if err != nil {
			log.Error("send watcher: bad path", "path", e.path, "err", err)
			continue
		}
		pathToJob[absPath] = e.jobID

		dir := filepath.Dir(absPath)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				log.Error("send watcher: failed to watch dir", "dir", dir, "err", err)
			} else {
				watchedDirs[dir] = true
			}
		}
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		timers := make(map[string]*time.Timer)
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				absPath, _ := filepath.Abs(event.Name)
				jobID, ok := pathToJob[absPath]
				if !ok {
					continue
				}
				if t, exists := timers[jobID]; exists {
					t.Stop()
				}
				jid := jobID
				timers[jobID] = time.AfterFunc(500*time.Millisecond, func() {
					log.Info("send watcher: file changed, running job", "path", absPath, "job", jid)
					if _, err := s.RunJob(ctx, jid); err != nil {
						log.Error("send watcher: run failed", "job", jid, "err", err)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("send watcher: error", "err", err)
			}
		}
	}()

	log.Info("send watcher: watching files", "count", len(pathToJob))
}

// WaitRunning blocks until all running jobs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *SendService) WaitRunning(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}

// Stop tears down all watchers and schedulers.
func (s *SendService) Stop() {
	s.stopWatchers()
}

func (s *SendService) stopWatchers() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
