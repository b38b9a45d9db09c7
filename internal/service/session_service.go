package service

import (
	"context"
	"fmt"
	"sync"

	"stencil/internal/builder"
)

// ─────────────────────────────────────────────────────────────
// Session Service — live builder sessions, one per template
// ─────────────────────────────────────────────────────────────

// SessionService owns the in-memory builder sessions. A template has at
// most one open session; all edits flow through it so undo history and
// selection stay coherent.
type SessionService struct {
	templates *TemplateService
	emitter   EventEmitter

	mu       sync.Mutex
	sessions map[string]*builder.Session
}

// NewSessionService creates a SessionService.
func NewSessionService(templates *TemplateService, emitter EventEmitter) *SessionService {
	return &SessionService{
		templates: templates,
		emitter:   emitter,
		sessions:  make(map[string]*builder.Session),
	}
}

// OpenSession loads the template (draft first when one exists) into a
// fresh builder session. Reopening an already-open template returns the
// existing session unchanged.
func (s *SessionService) OpenSession(ctx context.Context, templateID string) (*builder.Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[templateID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	t, err := s.templates.GetTemplate(templateID)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	schema, name, err := s.templates.LoadSchema(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	sess := builder.NewSession(templateID, t.OrgID)
	sess.LoadTemplate(schema, name)
	// Persisted settings are the baseline: they restore without touching
	// history, so a fresh session has nothing to undo.
	sess.RestoreSettings(t.PaperSize, t.Orientation, t.RecipientEmailField, t.RecipientNameField)

	s.mu.Lock()
	// Another caller may have raced us here; first one wins.
	if existing, ok := s.sessions[templateID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[templateID] = sess
	s.mu.Unlock()

	s.emitter.Emit(ctx, "session:opened", templateID)
	return sess, nil
}

// Session returns the open session for a template, if any.
func (s *SessionService) Session(templateID string) (*builder.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[templateID]
	return sess, ok
}

// Mutated is called after every successful edit: it arms the autosave
// debounce with the session's current schema and notifies listeners.
func (s *SessionService) Mutated(ctx context.Context, templateID string) {
	sess, ok := s.Session(templateID)
	if !ok {
		return
	}
	s.templates.ScheduleAutosave(templateID, sess.Schema(), sess.TemplateName())
	s.emitter.Emit(ctx, "session:changed", templateID)
}

// SaveSession commits the session's schema as the template's new version
// and clears its draft. The session stays open.
func (s *SessionService) SaveSession(ctx context.Context, templateID string) error {
	sess, ok := s.Session(templateID)
	if !ok {
		return fmt.Errorf("save session: no open session for template %s", templateID)
	}

	if err := s.templates.SaveSchema(ctx, templateID, sess.Schema(), sess.TemplateName()); err != nil {
		return err
	}

	t, err := s.templates.GetTemplate(templateID)
	if err == nil {
		emailField, nameField := sess.RecipientFields()
		t.PaperSize = sess.PaperSize().Name
		t.Orientation = sess.Orientation()
		t.RecipientEmailField = emailField
		t.RecipientNameField = nameField
		if err := s.templates.UpdateTemplate(ctx, t); err != nil {
			return fmt.Errorf("save session settings: %w", err)
		}
	}

	sess.MarkClean()
	return nil
}

// CloseSession flushes any pending autosave and drops the session.
// Closing a template with no open session is a no-op.
func (s *SessionService) CloseSession(ctx context.Context, templateID string) {
	s.mu.Lock()
	sess, ok := s.sessions[templateID]
	delete(s.sessions, templateID)
	s.mu.Unlock()
	if !ok {
		return
	}

	if sess.Dirty() {
		s.templates.ScheduleAutosave(templateID, sess.Schema(), sess.TemplateName())
	}
	s.templates.FlushAutosave(templateID)
	s.emitter.Emit(ctx, "session:closed", templateID)
}

// CloseAll closes every open session. Used for shutdown.
func (s *SessionService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.CloseSession(ctx, id)
	}
}
