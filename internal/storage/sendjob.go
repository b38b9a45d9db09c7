package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stencil/internal/domain"
)

// SendJobStore implements domain.SendJobStore using SQLite.
type SendJobStore struct {
	db *DB
}

func NewSendJobStore(db *DB) *SendJobStore {
	return &SendJobStore{db: db}
}

const sendJobColumns = `id, org_id, name, template_id, source_type, source_config,
 email_field, name_field, subject_template, trigger_type, trigger_config, enabled,
 last_run_at, last_status, last_error, created_at, updated_at`

func (s *SendJobStore) CreateJob(j *domain.SendJob) error {
	now := time.Now()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	j.CreatedAt = now
	j.UpdatedAt = now
	j.LastRunAt = now

	srcCfg, _ := json.Marshal(j.SourceConfig)

	_, err := s.db.conn.Exec(
		`INSERT INTO send_jobs (`+sendJobColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.OrgID, j.Name, j.TemplateID, j.SourceType, string(srcCfg),
		j.EmailField, j.NameField, j.SubjectTemplate, j.TriggerType, j.TriggerConfig,
		j.Enabled, j.LastRunAt, j.LastStatus, j.LastError, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

func scanSendJob(scan func(...any) error) (*domain.SendJob, error) {
	j := &domain.SendJob{}
	var srcCfg string
	err := scan(
		&j.ID, &j.OrgID, &j.Name, &j.TemplateID, &j.SourceType, &srcCfg,
		&j.EmailField, &j.NameField, &j.SubjectTemplate, &j.TriggerType, &j.TriggerConfig,
		&j.Enabled, &j.LastRunAt, &j.LastStatus, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(srcCfg), &j.SourceConfig)
	return j, nil
}

func (s *SendJobStore) GetJob(id string) (*domain.SendJob, error) {
	row := s.db.conn.QueryRow(`SELECT `+sendJobColumns+` FROM send_jobs WHERE id = ?`, id)
	j, err := scanSendJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("send job not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get send job: %w", err)
	}
	return j, nil
}

func (s *SendJobStore) ListJobs(orgID string) ([]domain.SendJob, error) {
	rows, err := s.db.conn.Query(
		`SELECT `+sendJobColumns+` FROM send_jobs WHERE org_id = ? ORDER BY created_at ASC`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.SendJob
	for rows.Next() {
		j, err := scanSendJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// ListEnabledScheduledJobs returns jobs that are enabled with a schedule or
// file-watch trigger, across all organizations. The trigger manager arms
// them at startup.
func (s *SendJobStore) ListEnabledScheduledJobs() ([]domain.SendJob, error) {
	rows, err := s.db.conn.Query(
		`SELECT ` + sendJobColumns + ` FROM send_jobs
		 WHERE enabled = 1 AND trigger_type IN ('schedule', 'file_watch')
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.SendJob
	for rows.Next() {
		j, err := scanSendJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *SendJobStore) UpdateJob(j *domain.SendJob) error {
	j.UpdatedAt = time.Now()
	srcCfg, _ := json.Marshal(j.SourceConfig)

	_, err := s.db.conn.Exec(
		`UPDATE send_jobs SET name=?, template_id=?, source_type=?, source_config=?,
		 email_field=?, name_field=?, subject_template=?, trigger_type=?, trigger_config=?,
		 enabled=?, updated_at=? WHERE id=?`,
		j.Name, j.TemplateID, j.SourceType, string(srcCfg),
		j.EmailField, j.NameField, j.SubjectTemplate, j.TriggerType, j.TriggerConfig,
		j.Enabled, j.UpdatedAt, j.ID,
	)
	return err
}

func (s *SendJobStore) UpdateJobStatus(id, status, errMsg string) error {
	_, err := s.db.conn.Exec(
		`UPDATE send_jobs SET last_run_at=?, last_status=?, last_error=?, updated_at=? WHERE id=?`,
		time.Now(), status, errMsg, time.Now(), id,
	)
	return err
}

func (s *SendJobStore) DeleteJob(id string) error {
	// Delete run logs first.
	if _, err := s.db.conn.Exec(`DELETE FROM send_run_logs WHERE job_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.conn.Exec(`DELETE FROM send_jobs WHERE id = ?`, id)
	return err
}

// ── Run Logs ───────────────────────────────────────────────

func (s *SendJobStore) CreateRunLog(l *domain.SendRunLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO send_run_logs (id, job_id, started_at, finished_at, status, recipients, sent, skipped, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.JobID, l.StartedAt, l.FinishedAt, l.Status, l.Recipients, l.Sent, l.Skipped, l.Error,
	)
	return err
}

func (s *SendJobStore) ListRunLogs(jobID string, limit int) ([]domain.SendRunLog, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, job_id, started_at, finished_at, status, recipients, sent, skipped, error
		 FROM send_run_logs WHERE job_id = ? ORDER BY started_at DESC LIMIT ?`,
		jobID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.SendRunLog
	for rows.Next() {
		var l domain.SendRunLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.StartedAt, &l.FinishedAt, &l.Status,
			&l.Recipients, &l.Sent, &l.Skipped, &l.Error); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
