package domain

import "time"

// SendJob configures a batch document send: a recipient record source, the
// template to render per record, and how the job is triggered.
type SendJob struct {
	ID               string         `json:"id"`
	OrgID            string         `json:"orgId"`
	Name             string         `json:"name"`
	TemplateID       string         `json:"templateId"`
	SourceType       string         `json:"sourceType"`
	SourceConfig     map[string]any `json:"sourceConfig"`
	EmailField       string         `json:"emailField"`   // dot path into each record
	NameField        string         `json:"nameField"`    // dot path into each record
	SubjectTemplate  string         `json:"subjectTemplate"`
	TriggerType      string         `json:"triggerType"`   // "manual" | "schedule" | "file_watch"
	TriggerConfig    string         `json:"triggerConfig"` // cron expression or watch path
	Enabled          bool           `json:"enabled"`
	LastRunAt        time.Time      `json:"lastRunAt"`
	LastStatus       string         `json:"lastStatus"` // "success" | "error" | "running" | ""
	LastError        string         `json:"lastError"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// SendRunLog is a historical record of one send-job run.
type SendRunLog struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Status     string    `json:"status"`
	Recipients int       `json:"recipients"`
	Sent       int       `json:"sent"`
	Skipped    int       `json:"skipped"` // records with no resolvable email
	Error      string    `json:"error,omitempty"`
}

type SendJobStore interface {
	CreateJob(j *SendJob) error
	GetJob(id string) (*SendJob, error)
	ListJobs(orgID string) ([]SendJob, error)
	ListEnabledScheduledJobs() ([]SendJob, error)
	UpdateJob(j *SendJob) error
	UpdateJobStatus(id, status, errMsg string) error
	DeleteJob(id string) error

	CreateRunLog(l *SendRunLog) error
	ListRunLogs(jobID string, limit int) ([]SendRunLog, error)
}
