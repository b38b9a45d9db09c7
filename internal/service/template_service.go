package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"stencil/internal/cache"
	"stencil/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Template Service — template CRUD, drafts, debounced autosave
// ─────────────────────────────────────────────────────────────

// autosaveDelay is the trailing debounce window for draft writes.
// Rapid edits collapse into a single flush.
const autosaveDelay = 1000 * time.Millisecond

// draftCacheTTL bounds how long a cached draft is served before the
// database copy is consulted again.
const draftCacheTTL = 24 * time.Hour

// TemplateService manages persisted templates and their autosaved drafts.
// Draft writes go to storage and, fire-and-forget, to the draft cache.
type TemplateService struct {
	templates domain.TemplateStore
	drafts    domain.DraftStore
	cache     cache.Cache
	emitter   EventEmitter

	mu         sync.Mutex
	debouncers map[string]func(func())
	pending    map[string]*domain.Draft
}

// NewTemplateService creates a TemplateService. A nil cache degrades to
// storage-only drafts.
func NewTemplateService(
	templates domain.TemplateStore,
	drafts domain.DraftStore,
	draftCache cache.Cache,
	emitter EventEmitter,
) *TemplateService {
	if draftCache == nil {
		draftCache = cache.NewNullCache()
	}
	return &TemplateService{
		templates:  templates,
		drafts:     drafts,
		cache:      draftCache,
		emitter:    emitter,
		debouncers: make(map[string]func(func())),
		pending:    make(map[string]*domain.Draft),
	}
}

// ── Template CRUD ──────────────────────────────────────────

type CreateTemplateInput struct {
	OrgID string              `json:"orgId"`
	Name  string              `json:"name"`
	Type  domain.TemplateType `json:"type"`
}

func (s *TemplateService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*domain.Template, error) {
	if input.OrgID == "" {
		return nil, fmt.Errorf("create template: orgId is required")
	}
	if input.Type == "" {
		input.Type = domain.TemplateTypeGeneral
	}

	schema := domain.TemplateSchema{
		Blocks:       []domain.Block{},
		Variables:    []domain.Variable{},
		Guides:       []domain.Guide{},
		GlobalStyles: domain.DefaultGlobalStyles(),
		TemplateType: input.Type,
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal empty schema: %w", err)
	}

	t := &domain.Template{
		ID:          uuid.New().String(),
		OrgID:       input.OrgID,
		Name:        input.Name,
		Type:        input.Type,
		SchemaJSON:  string(schemaJSON),
		PaperSize:   "A4",
		Orientation: domain.OrientationPortrait,
	}
	if err := s.templates.CreateTemplate(t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.emitter.Emit(ctx, "template:created", t.ID)
	return t, nil
}

func (s *TemplateService) GetTemplate(id string) (*domain.Template, error) {
	return s.templates.GetTemplate(id)
}

func (s *TemplateService) ListTemplates(orgID string) ([]domain.Template, error) {
	return s.templates.ListTemplates(orgID)
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, t *domain.Template) error {
	if err := s.templates.UpdateTemplate(t); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "template:updated", t.ID)
	return nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.templates.DeleteTemplate(id); err != nil {
		return err
	}
	s.dropDebouncer(id)
	if err := s.cache.Delete(ctx, draftKey(id)); err != nil {
		log.Debug("draft cache delete failed", "template", id, "err", err)
	}
	s.emitter.Emit(ctx, "template:deleted", id)
	return nil
}

// ── Schema save / load ─────────────────────────────────────

// SaveSchema persists a schema as the template's committed version and
// clears any autosaved draft, which is now stale.
func (s *TemplateService) SaveSchema(ctx context.Context, templateID string, schema domain.TemplateSchema, name string) error {
	t, err := s.templates.GetTemplate(templateID)
	if err != nil {
		return err
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	t.SchemaJSON = string(schemaJSON)
	if schema.TemplateType != "" {
		t.Type = schema.TemplateType
	}
	if name != "" {
		t.Name = name
	}
	if err := s.templates.UpdateTemplate(t); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}

	s.dropDebouncer(templateID)
	if err := s.drafts.DeleteDraft(templateID); err != nil {
		log.Debug("draft delete failed", "template", templateID, "err", err)
	}
	if err := s.cache.Delete(ctx, draftKey(templateID)); err != nil {
		log.Debug("draft cache delete failed", "template", templateID, "err", err)
	}

	s.emitter.Emit(ctx, "template:saved", templateID)
	return nil
}

// LoadSchema returns the schema to edit: the autosaved draft when one
// exists (cache first, then storage), otherwise the committed template.
// The second return is the template's display name.
func (s *TemplateService) LoadSchema(ctx context.Context, templateID string) (domain.TemplateSchema, string, error) {
	var zero domain.TemplateSchema

	t, err := s.templates.GetTemplate(templateID)
	if err != nil {
		return zero, "", err
	}

	if data, found, err := s.cache.Get(ctx, draftKey(templateID)); err == nil && found {
		var d domain.Draft
		if json.Unmarshal(data, &d) == nil && d.SchemaJSON != "" {
			var schema domain.TemplateSchema
			if json.Unmarshal([]byte(d.SchemaJSON), &schema) == nil {
				return schema, draftName(&d, t), nil
			}
		}
	}

	if d, err := s.drafts.GetDraft(templateID); err == nil && d != nil {
		var schema domain.TemplateSchema
		if json.Unmarshal([]byte(d.SchemaJSON), &schema) == nil {
			return schema, draftName(d, t), nil
		}
	}

	var schema domain.TemplateSchema
	if err := json.Unmarshal([]byte(t.SchemaJSON), &schema); err != nil {
		return zero, "", fmt.Errorf("parse template schema: %w", err)
	}
	return schema, t.Name, nil
}

func draftName(d *domain.Draft, t *domain.Template) string {
	if d.Name != "" {
		return d.Name
	}
	return t.Name
}

// ── Autosave ───────────────────────────────────────────────

// ScheduleAutosave records the latest schema for templateID and arms the
// trailing debounce. Only the newest pending draft survives the window.
func (s *TemplateService) ScheduleAutosave(templateID string, schema domain.TemplateSchema, name string) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		log.Error("autosave marshal failed", "template", templateID, "err", err)
		return
	}

	s.mu.Lock()
	s.pending[templateID] = &domain.Draft{
		TemplateID: templateID,
		Name:       name,
		SchemaJSON: string(schemaJSON),
		SavedAt:    time.Now(),
	}
	deb, ok := s.debouncers[templateID]
	if !ok {
		deb = debounce.New(autosaveDelay)
		s.debouncers[templateID] = deb
	}
	s.mu.Unlock()

	deb(func() { s.flush(templateID) })
}

// FlushAutosave writes any pending draft immediately. Called when a
// session closes so no edits are lost to the debounce window.
func (s *TemplateService) FlushAutosave(templateID string) {
	s.flush(templateID)
}

func (s *TemplateService) flush(templateID string) {
	s.mu.Lock()
	d := s.pending[templateID]
	delete(s.pending, templateID)
	s.mu.Unlock()
	if d == nil {
		return
	}

	if err := s.drafts.SaveDraft(d); err != nil {
		log.Error("draft save failed", "template", templateID, "err", err)
		return
	}

	// Cache write is fire-and-forget.
	if data, err := json.Marshal(d); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, draftKey(templateID), data, draftCacheTTL); err != nil {
			log.Debug("draft cache write failed", "template", templateID, "err", err)
		}
	}
}

func (s *TemplateService) dropDebouncer(templateID string) {
	s.mu.Lock()
	delete(s.debouncers, templateID)
	delete(s.pending, templateID)
	s.mu.Unlock()
}

func draftKey(templateID string) string {
	return "draft:" + templateID
}
