package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"stencil/internal/service"
)

// outboxSender writes each composed document to an outbox directory as a
// JSON envelope. The mail relay ships documents from the outbox; this
// process never dials SMTP itself.
type outboxSender struct {
	dir string
}

func newOutboxSender(dir string) *outboxSender {
	return &outboxSender{dir: dir}
}

// outboxEnvelope is the on-disk format consumed by the relay.
type outboxEnvelope struct {
	ID             string          `json:"id"`
	JobID          string          `json:"jobId"`
	TemplateID     string          `json:"templateId"`
	RecipientEmail string          `json:"recipientEmail"`
	RecipientName  string          `json:"recipientName,omitempty"`
	Subject        string          `json:"subject"`
	QueuedAt       time.Time       `json:"queuedAt"`
	Document       json.RawMessage `json:"document"`
}

func (s *outboxSender) Send(_ context.Context, doc service.OutgoingDocument) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create outbox: %w", err)
	}

	rendered, err := json.Marshal(doc.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	envelope := outboxEnvelope{
		ID:             uuid.New().String(),
		JobID:          doc.JobID,
		TemplateID:     doc.TemplateID,
		RecipientEmail: doc.RecipientEmail,
		RecipientName:  doc.RecipientName,
		Subject:        doc.Subject,
		QueuedAt:       time.Now(),
		Document:       rendered,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	path := filepath.Join(s.dir, envelope.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write outbox envelope: %w", err)
	}

	log.Debug("queued document", "job", doc.JobID, "recipient", doc.RecipientEmail, "path", path)
	return nil
}

var _ service.Sender = (*outboxSender)(nil)
