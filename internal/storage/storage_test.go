package storage

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"stencil/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "stencil.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTemplateCRUD(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)

	tpl := &domain.Template{
		ID:        uuid.New().String(),
		OrgID:     "org1",
		Name:      "August payslip",
		Type:      domain.TemplateTypePayroll,
		PaperSize: "A4",
	}
	if err := store.CreateTemplate(tpl); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetTemplate(tpl.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "August payslip" || got.Type != domain.TemplateTypePayroll {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	got.Name = "September payslip"
	got.Published = true
	if err := store.UpdateTemplate(got); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := store.ListTemplates("org1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].Published {
		t.Fatalf("list after update: %+v", list)
	}

	other, err := store.ListTemplates("org2")
	if err != nil {
		t.Fatalf("list other org: %v", err)
	}
	if len(other) != 0 {
		t.Fatal("templates must be scoped to their organization")
	}

	if err := store.DeleteTemplate(tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetTemplate(tpl.ID); err == nil {
		t.Fatal("deleted template should not resolve")
	}
}

func TestDraftUpsert(t *testing.T) {
	db := newTestDB(t)
	store := NewDraftStore(db)

	d := &domain.Draft{TemplateID: "t1", Name: "wip", SchemaJSON: `{"blocks":[]}`}
	if err := store.SaveDraft(d); err != nil {
		t.Fatalf("save: %v", err)
	}

	d.SchemaJSON = `{"blocks":[{"id":"b1"}]}`
	if err := store.SaveDraft(d); err != nil {
		t.Fatalf("second save should overwrite: %v", err)
	}

	got, err := store.GetDraft("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SchemaJSON != d.SchemaJSON {
		t.Fatalf("latest save must win, got %q", got.SchemaJSON)
	}

	if err := store.DeleteDraft("t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetDraft("t1"); err == nil {
		t.Fatal("deleted draft should not resolve")
	}
}

func TestRecipientListRowsOrdered(t *testing.T) {
	db := newTestDB(t)
	store := NewRecipientListStore(db)

	list := &domain.RecipientList{ID: uuid.New().String(), OrgID: "org1", Name: "staff"}
	if err := store.CreateList(list); err != nil {
		t.Fatalf("create list: %v", err)
	}

	for i, name := range []string{"Ada", "Grace", "Edsger"} {
		row := &domain.RecipientRow{
			ID:        uuid.New().String(),
			ListID:    list.ID,
			DataJSON:  `{"employee":{"name":"` + name + `"}}`,
			SortOrder: i + 1,
		}
		if err := store.CreateRow(row); err != nil {
			t.Fatalf("create row: %v", err)
		}
	}

	rows, err := store.ListRows(list.ID)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != 3 || rows[0].SortOrder != 1 || rows[2].SortOrder != 3 {
		t.Fatalf("rows out of order: %+v", rows)
	}

	if err := store.DeleteList(list.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	rows, _ = store.ListRows(list.ID)
	if len(rows) != 0 {
		t.Fatal("deleting a list must delete its rows")
	}
}

func TestSendJobStatusAndLogs(t *testing.T) {
	db := newTestDB(t)
	store := NewSendJobStore(db)

	job := &domain.SendJob{
		OrgID:        "org1",
		Name:         "monthly payslips",
		TemplateID:   "t1",
		SourceType:   "csv_file",
		SourceConfig: map[string]any{"filePath": "/data/staff.csv"},
		EmailField:   "employee.email",
		TriggerType:  "schedule",
		Enabled:      true,
	}
	if err := store.CreateJob(job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" {
		t.Fatal("create should assign an id")
	}

	got, err := store.GetJob(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SourceConfig["filePath"] != "/data/staff.csv" {
		t.Fatalf("source config round trip: %+v", got.SourceConfig)
	}

	scheduled, err := store.ListEnabledScheduledJobs()
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled job, got %d", len(scheduled))
	}

	if err := store.UpdateJobStatus(job.ID, "error", "source unreachable"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ = store.GetJob(job.ID)
	if got.LastStatus != "error" || got.LastError != "source unreachable" {
		t.Fatalf("status not recorded: %+v", got)
	}

	log := &domain.SendRunLog{JobID: job.ID, Status: "success", Recipients: 10, Sent: 9, Skipped: 1}
	log.StartedAt = got.UpdatedAt
	log.FinishedAt = got.UpdatedAt
	if err := store.CreateRunLog(log); err != nil {
		t.Fatalf("create log: %v", err)
	}
	logs, err := store.ListRunLogs(job.ID, 10)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Skipped != 1 {
		t.Fatalf("logs: %+v", logs)
	}

	if err := store.DeleteJob(job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	logs, _ = store.ListRunLogs(job.ID, 10)
	if len(logs) != 0 {
		t.Fatal("deleting a job must delete its run logs")
	}
}

func TestDBConnectionCRUD(t *testing.T) {
	db := newTestDB(t)
	store := NewDBConnectionStore(db)

	conn := &domain.DatabaseConnection{
		ID:     uuid.New().String(),
		OrgID:  "org1",
		Name:   "hr db",
		Driver: domain.DatabaseDriverPostgres,
		Host:   "db.internal",
		Port:   5432,
	}
	if err := store.CreateConnection(conn); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetConnection(conn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Driver != domain.DatabaseDriverPostgres || got.Port != 5432 {
		t.Fatalf("round trip: %+v", got)
	}

	if err := store.DeleteConnection(conn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetConnection(conn.ID); err == nil {
		t.Fatal("deleted connection should not resolve")
	}
}
