package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"stencil/internal/cache"
	"stencil/internal/domain"
	_ "stencil/internal/records/sources"
	"stencil/internal/service"
	"stencil/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Test fixtures
// ─────────────────────────────────────────────────────────────

type fixture struct {
	db        *storage.DB
	templates *service.TemplateService
	sessions  *service.SessionService
	emitter   *service.MockEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "stencil.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	draftCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("file cache: %v", err)
	}

	emitter := &service.MockEmitter{}
	templates := service.NewTemplateService(
		storage.NewTemplateStore(db),
		storage.NewDraftStore(db),
		draftCache,
		emitter,
	)
	sessions := service.NewSessionService(templates, emitter)
	return &fixture{db: db, templates: templates, sessions: sessions, emitter: emitter}
}

func createTemplate(t *testing.T, f *fixture) *domain.Template {
	t.Helper()
	tmpl, err := f.templates.CreateTemplate(context.Background(), service.CreateTemplateInput{
		OrgID: "org-1",
		Name:  "March Payslips",
		Type:  domain.TemplateTypePayroll,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tmpl
}

// ─────────────────────────────────────────────────────────────
// TemplateService tests
// ─────────────────────────────────────────────────────────────

func TestAutosaveFlushWritesDraft(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)

	schema := domain.TemplateSchema{
		Blocks: []domain.Block{{
			ID:         "b1",
			Type:       domain.BlockTypeText,
			Properties: &domain.TextProperties{Content: "Hello {{employee.name}}"},
			Style:      domain.BlockStyle{X: 10, Y: 10, Width: 200, Height: 30},
		}},
		GlobalStyles: domain.DefaultGlobalStyles(),
		TemplateType: domain.TemplateTypePayroll,
	}

	f.templates.ScheduleAutosave(tmpl.ID, schema, "Renamed Draft")
	// Don't wait out the debounce window; flush directly as CloseSession does.
	f.templates.FlushAutosave(tmpl.ID)

	loaded, name, err := f.templates.LoadSchema(context.Background(), tmpl.ID)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if name != "Renamed Draft" {
		t.Fatalf("draft name: %q", name)
	}
	if len(loaded.Blocks) != 1 || loaded.Blocks[0].ID != "b1" {
		t.Fatalf("draft schema not loaded: %+v", loaded.Blocks)
	}
}

func TestSaveSchemaClearsDraft(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)

	draftSchema := domain.TemplateSchema{
		Blocks: []domain.Block{{
			ID:         "stale",
			Type:       domain.BlockTypeText,
			Properties: &domain.TextProperties{Content: "stale draft"},
			Style:      domain.BlockStyle{Width: 100, Height: 30},
		}},
	}
	f.templates.ScheduleAutosave(tmpl.ID, draftSchema, "")
	f.templates.FlushAutosave(tmpl.ID)

	committed := domain.TemplateSchema{
		Blocks:       []domain.Block{},
		GlobalStyles: domain.DefaultGlobalStyles(),
		TemplateType: domain.TemplateTypePayroll,
	}
	if err := f.templates.SaveSchema(context.Background(), tmpl.ID, committed, "Final"); err != nil {
		t.Fatalf("save schema: %v", err)
	}

	loaded, name, err := f.templates.LoadSchema(context.Background(), tmpl.ID)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if name != "Final" {
		t.Fatalf("name after save: %q", name)
	}
	if len(loaded.Blocks) != 0 {
		t.Fatalf("stale draft survived save: %+v", loaded.Blocks)
	}
}

// ─────────────────────────────────────────────────────────────
// SessionService tests
// ─────────────────────────────────────────────────────────────

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)
	ctx := context.Background()

	sess, err := f.sessions.OpenSession(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	again, err := f.sessions.OpenSession(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	if again != sess {
		t.Fatal("reopening a template must return the same session")
	}

	if _, ok := sess.AddBlock(domain.BlockTypeText, 20, 20, 200, 40); !ok {
		t.Fatal("add block failed")
	}
	sess.SetPaperSize("Letter")
	f.sessions.Mutated(ctx, tmpl.ID)

	if err := f.sessions.SaveSession(ctx, tmpl.ID); err != nil {
		t.Fatalf("save session: %v", err)
	}

	stored, err := f.templates.GetTemplate(tmpl.ID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if stored.PaperSize != "Letter" {
		t.Fatalf("paper size not persisted: %q", stored.PaperSize)
	}
	var schema domain.TemplateSchema
	if err := json.Unmarshal([]byte(stored.SchemaJSON), &schema); err != nil {
		t.Fatalf("parse stored schema: %v", err)
	}
	if len(schema.Blocks) != 1 {
		t.Fatalf("blocks not persisted: %d", len(schema.Blocks))
	}

	f.sessions.CloseSession(ctx, tmpl.ID)
	if _, ok := f.sessions.Session(tmpl.ID); ok {
		t.Fatal("session still open after close")
	}
}

func TestSessionRestoresDraftOnReopen(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)
	ctx := context.Background()

	sess, err := f.sessions.OpenSession(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	sess.AddBlock(domain.BlockTypeDivider, 0, 100, 500, 20)
	f.sessions.Mutated(ctx, tmpl.ID)
	f.sessions.CloseSession(ctx, tmpl.ID)

	reopened, err := f.sessions.OpenSession(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(reopened.Blocks()) != 1 {
		t.Fatalf("draft not restored on reopen: %d blocks", len(reopened.Blocks()))
	}
}

func TestOpenSessionStartsWithEmptyHistory(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)
	ctx := context.Background()

	sess, err := f.sessions.OpenSession(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	sess.SetPaperSize("Letter")
	sess.SetRecipientFields("employee.email", "employee.name")
	if err := f.sessions.SaveSession(ctx, tmpl.ID); err != nil {
		t.Fatalf("save session: %v", err)
	}
	f.sessions.CloseSession(ctx, tmpl.ID)

	reopened, err := f.sessions.OpenSession(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CanUndo() {
		t.Fatal("a freshly opened session must have nothing to undo")
	}
	if reopened.Undo() {
		t.Fatal("undo on a fresh session must be a no-op")
	}
	// The restored settings survive, since no history entry can revert them.
	email, name := reopened.RecipientFields()
	if email != "employee.email" || name != "employee.name" {
		t.Fatalf("restored recipient mapping lost: %q, %q", email, name)
	}
	if reopened.PaperSize().Name != "Letter" {
		t.Fatalf("restored paper size lost: %q", reopened.PaperSize().Name)
	}
}

// ─────────────────────────────────────────────────────────────
// SendService tests
// ─────────────────────────────────────────────────────────────

func TestRunJobComposesAndSends(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)
	ctx := context.Background()

	schema := domain.TemplateSchema{
		Blocks: []domain.Block{{
			ID:         "greet",
			Type:       domain.BlockTypeText,
			Properties: &domain.TextProperties{Content: "Dear {{name}}, your pay is {{salary}}."},
			Style:      domain.BlockStyle{X: 50, Y: 50, Width: 400, Height: 30},
		}},
		GlobalStyles: domain.DefaultGlobalStyles(),
		TemplateType: domain.TemplateTypePayroll,
	}
	if err := f.templates.SaveSchema(ctx, tmpl.ID, schema, ""); err != nil {
		t.Fatalf("save schema: %v", err)
	}

	csvPath := filepath.Join(t.TempDir(), "recipients.csv")
	csv := "email,name,salary\nada@example.com,Ada,2500.50\n,Nobody,1\nbob@example.com,Bob,1800\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	sender := &service.RecordingSender{}
	sends := service.NewSendService(storage.NewSendJobStore(f.db), f.templates, sender, f.emitter)
	defer sends.Stop()

	job, err := sends.CreateJob(ctx, service.CreateSendJobInput{
		OrgID:           "org-1",
		Name:            "March run",
		TemplateID:      tmpl.ID,
		SourceType:      "csv_file",
		SourceConfig:    map[string]any{"filePath": csvPath},
		EmailField:      "email",
		NameField:       "name",
		SubjectTemplate: "Payslip for {{name}}",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	result, err := sends.RunJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("run job: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("status: %q", result.Status)
	}
	if result.Recipients != 3 || result.Sent != 2 || result.Skipped != 1 {
		t.Fatalf("counts: %+v", result)
	}

	if len(sender.Sent) != 2 {
		t.Fatalf("sender got %d documents", len(sender.Sent))
	}
	first := sender.Sent[0]
	if first.RecipientEmail != "ada@example.com" || first.RecipientName != "Ada" {
		t.Fatalf("first recipient: %+v", first)
	}
	if first.Subject != "Payslip for Ada" {
		t.Fatalf("subject: %q", first.Subject)
	}
	if len(first.Document.Pages) != 1 {
		t.Fatalf("pages: %d", len(first.Document.Pages))
	}
	content := first.Document.Pages[0].Elements[0].Content
	if content != "Dear Ada, your pay is 2500.5." {
		t.Fatalf("composed content: %q", content)
	}

	logs, err := sends.ListRunLogs(job.ID)
	if err != nil {
		t.Fatalf("list run logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Sent != 2 {
		t.Fatalf("run log: %+v", logs)
	}
}

func TestRunJobRejectsUnknownSource(t *testing.T) {
	f := newFixture(t)
	tmpl := createTemplate(t, f)

	sends := service.NewSendService(storage.NewSendJobStore(f.db), f.templates, &service.RecordingSender{}, f.emitter)
	defer sends.Stop()

	_, err := sends.CreateJob(context.Background(), service.CreateSendJobInput{
		OrgID:      "org-1",
		TemplateID: tmpl.ID,
		SourceType: "carrier_pigeon",
	})
	if err == nil {
		t.Fatal("unknown source type must be rejected")
	}
}

func TestPreviewSourceInfersSchema(t *testing.T) {
	f := newFixture(t)

	csvPath := filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(csvPath, []byte("email,dept.code\na@x.com,ENG\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	sends := service.NewSendService(storage.NewSendJobStore(f.db), f.templates, &service.RecordingSender{}, f.emitter)
	defer sends.Stop()

	preview, err := sends.PreviewSource(context.Background(), "csv_file", map[string]any{"filePath": csvPath})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Records) != 1 {
		t.Fatalf("records: %d", len(preview.Records))
	}
	names := preview.Schema.FieldNames()
	want := []string{"dept.code", "email"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("fields: %v", names)
	}
	if v, ok := preview.Records[0].Lookup("dept.code"); !ok || v != "ENG" {
		t.Fatalf("dot-path column lookup: %v %v", v, ok)
	}
}
