package builder

import (
	"github.com/google/uuid"

	"stencil/internal/domain"
)

// DefaultGridSize is the drag quantization step when no grid is configured.
const DefaultGridSize = 10.0

// Session owns the full editable state of one template for the duration of
// an editing session. All mutation goes through its methods; persistence is a
// side effect layered on top and never reads back into a live session.
//
// Invalid inputs (unknown block ids, undersized selections) are silent
// no-ops: the builder operates on locally-trusted state and clamps rather
// than rejects.
type Session struct {
	TemplateID string
	OrgID      string

	blocks       []domain.Block
	globalStyles domain.GlobalStyles
	guides       []domain.Guide
	variables    []domain.Variable
	paperSize    domain.PaperSize
	orientation  domain.Orientation
	templateName string
	templateType domain.TemplateType

	recipientEmailField string
	recipientNameField  string

	selection []string
	gridSize  float64
	hist      *history
	drag      *dragState
	resizing  *resizeState
	snapLines []SnapLine
	dirty     bool
}

// NewSession creates an empty session with default styles and A4 portrait
// paper.
func NewSession(templateID, orgID string) *Session {
	return &Session{
		TemplateID:   templateID,
		OrgID:        orgID,
		globalStyles: domain.DefaultGlobalStyles(),
		paperSize:    domain.PaperA4,
		orientation:  domain.OrientationPortrait,
		gridSize:     DefaultGridSize,
		hist:         newHistory(),
	}
}

// LoadTemplate replaces the session state with the given schema. History and
// selection are reset; the session starts clean.
func (s *Session) LoadTemplate(schema domain.TemplateSchema, name string) {
	schema = schema.Clone()
	s.blocks = schema.Blocks
	s.variables = schema.Variables
	s.guides = schema.Guides
	s.globalStyles = schema.GlobalStyles
	if schema.TemplateType != "" {
		s.templateType = schema.TemplateType
	}
	s.templateName = name
	s.selection = nil
	s.hist = newHistory()
	s.drag = nil
	s.resizing = nil
	s.snapLines = nil
	s.dirty = false
}

// Schema serializes the session into the external TemplateSchema contract.
// The result is detached from live state.
func (s *Session) Schema() domain.TemplateSchema {
	return domain.TemplateSchema{
		Blocks:       domain.CloneBlocks(s.blocks),
		Variables:    append([]domain.Variable(nil), s.variables...),
		Guides:       append([]domain.Guide(nil), s.guides...),
		GlobalStyles: s.globalStyles,
		TemplateType: s.templateType,
	}
}

// ── Accessors ──────────────────────────────────────────────

func (s *Session) Blocks() []domain.Block { return domain.CloneBlocks(s.blocks) }

func (s *Session) BlockByID(id string) (domain.Block, bool) {
	if b := s.findBlock(id); b != nil {
		return b.Clone(), true
	}
	return domain.Block{}, false
}

func (s *Session) TemplateName() string              { return s.templateName }
func (s *Session) TemplateType() domain.TemplateType { return s.templateType }
func (s *Session) GlobalStyles() domain.GlobalStyles { return s.globalStyles }
func (s *Session) PaperSize() domain.PaperSize       { return s.paperSize }
func (s *Session) Orientation() domain.Orientation   { return s.orientation }
func (s *Session) Dirty() bool                       { return s.dirty }
func (s *Session) GridSize() float64                 { return s.gridSize }

// RecipientFields returns the record dot paths the batch sender uses to
// resolve per-row recipient identity.
func (s *Session) RecipientFields() (emailField, nameField string) {
	return s.recipientEmailField, s.recipientNameField
}

// CanvasSize is the drawable area in points, honoring orientation.
func (s *Session) CanvasSize() (width, height float64) {
	return s.paperSize.Oriented(s.orientation)
}

// findBlock returns a pointer into the live top-level block slice.
func (s *Session) findBlock(id string) *domain.Block {
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			return &s.blocks[i]
		}
	}
	return nil
}

func (s *Session) blockIndex(id string) int {
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// ── Document-level setters (each is one undoable action) ──

func (s *Session) SetGlobalStyles(gs domain.GlobalStyles) {
	s.PushHistory()
	s.globalStyles = gs
	s.dirty = true
}

func (s *Session) SetPaperSize(name string) bool {
	p, ok := domain.PaperSizeByName(name)
	if !ok {
		return false
	}
	s.PushHistory()
	s.paperSize = p
	s.dirty = true
	return true
}

func (s *Session) SetOrientation(o domain.Orientation) {
	if o != domain.OrientationPortrait && o != domain.OrientationLandscape {
		return
	}
	s.PushHistory()
	s.orientation = o
	s.dirty = true
}

func (s *Session) SetTemplateName(name string) {
	s.PushHistory()
	s.templateName = name
	s.dirty = true
}

func (s *Session) SetTemplateType(t domain.TemplateType) {
	s.PushHistory()
	s.templateType = t
	s.dirty = true
}

func (s *Session) SetRecipientFields(emailField, nameField string) {
	s.PushHistory()
	s.recipientEmailField = emailField
	s.recipientNameField = nameField
	s.dirty = true
}

func (s *Session) SetGridSize(g float64) {
	if g > 0 {
		s.gridSize = g
	}
}

// RestoreSettings applies persisted document settings without recording
// history or dirtying the session. Called when a session is hydrated from
// storage: the restored state is the baseline, not an edit. Unknown paper
// names and orientations leave the current values in place.
func (s *Session) RestoreSettings(paperName string, o domain.Orientation, emailField, nameField string) {
	if p, ok := domain.PaperSizeByName(paperName); ok {
		s.paperSize = p
	}
	if o == domain.OrientationPortrait || o == domain.OrientationLandscape {
		s.orientation = o
	}
	s.recipientEmailField = emailField
	s.recipientNameField = nameField
}

// ── Block lifecycle ────────────────────────────────────────

// AddBlock creates a block of the given type at the given geometry, clamped
// to the canvas minimums, and selects it.
func (s *Session) AddBlock(t domain.BlockType, x, y, w, h float64) (domain.Block, bool) {
	props := defaultProperties(t)
	if props == nil {
		return domain.Block{}, false
	}
	s.PushHistory()

	b := domain.Block{
		ID:         uuid.New().String(),
		Type:       t,
		Properties: props,
		Style:      clampStyle(domain.BlockStyle{X: x, Y: y, Width: w, Height: h}),
	}
	s.blocks = append(s.blocks, b)
	s.selection = []string{b.ID}
	s.dirty = true
	return b.Clone(), true
}

func defaultProperties(t domain.BlockType) domain.BlockProperties {
	switch t {
	case domain.BlockTypeText:
		return &domain.TextProperties{}
	case domain.BlockTypeTable:
		return &domain.TableProperties{
			Rows: []domain.TableRow{
				{IsHeader: true, Cells: []domain.TableCell{{}, {}}},
				{Cells: []domain.TableCell{{}, {}}},
			},
		}
	case domain.BlockTypeImage:
		return &domain.ImageProperties{Fit: "contain"}
	case domain.BlockTypeContainer:
		return &domain.ContainerProperties{}
	case domain.BlockTypeDivider:
		return &domain.DividerProperties{Thickness: 1, LineStyle: "solid"}
	case domain.BlockTypeSpacer:
		return &domain.SpacerProperties{}
	default:
		return nil
	}
}

// DeleteBlocks removes the given blocks; unknown ids are ignored. A call
// that matches nothing is a no-op and pushes no history.
func (s *Session) DeleteBlocks(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.blockIndex(id) >= 0 {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	s.PushHistory()

	kept := s.blocks[:0]
	for _, b := range s.blocks {
		if !drop[b.ID] {
			kept = append(kept, b)
		}
	}
	s.blocks = kept
	s.selection = filterIDs(s.selection, drop)
	s.dirty = true
	return len(drop)
}

// SetTextContent replaces a text block's content. Callers coalescing
// keystrokes should debounce upstream; every call here is one undo step.
func (s *Session) SetTextContent(blockID, content string) bool {
	b := s.findBlock(blockID)
	if b == nil {
		return false
	}
	props, ok := b.Properties.(*domain.TextProperties)
	if !ok {
		return false
	}
	s.PushHistory()
	props.Content = content
	s.dirty = true
	return true
}

// SetBlockStyle overwrites a block's visual attributes, preserving geometry
// clamps.
func (s *Session) SetBlockStyle(blockID string, style domain.BlockStyle) bool {
	b := s.findBlock(blockID)
	if b == nil {
		return false
	}
	s.PushHistory()
	b.Style = clampStyle(style)
	s.dirty = true
	return true
}

// ── Guides ─────────────────────────────────────────────────

func (s *Session) AddGuide(o domain.GuideOrientation, position float64) domain.Guide {
	g := domain.Guide{ID: uuid.New().String(), Orientation: o, Position: position}
	s.guides = append(s.guides, g)
	s.dirty = true
	return g
}

func (s *Session) RemoveGuide(id string) bool {
	for i, g := range s.guides {
		if g.ID == id {
			s.guides = append(s.guides[:i], s.guides[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

func (s *Session) Guides() []domain.Guide {
	return append([]domain.Guide(nil), s.guides...)
}

// ── Variable catalog ───────────────────────────────────────

func (s *Session) AddVariable(v domain.Variable) {
	for _, existing := range s.variables {
		if existing.Key == v.Key {
			return
		}
	}
	s.variables = append(s.variables, v)
	s.dirty = true
}

func (s *Session) SetVariables(vars []domain.Variable) {
	s.variables = append([]domain.Variable(nil), vars...)
	s.dirty = true
}

// Variables returns the stored catalog plus the derived families generated
// by every label cell in every table block.
func (s *Session) Variables() []domain.Variable {
	out := append([]domain.Variable(nil), s.variables...)
	for i := range s.blocks {
		out = append(out, labelVariablesIn(&s.blocks[i])...)
	}
	return out
}

// ── Selection ──────────────────────────────────────────────

// Select makes the block the sole selection, or toggles it into the
// selection when additive.
func (s *Session) Select(id string, additive bool) {
	if s.blockIndex(id) < 0 {
		return
	}
	if !additive {
		s.selection = []string{id}
		return
	}
	for i, sel := range s.selection {
		if sel == id {
			s.selection = append(s.selection[:i], s.selection[i+1:]...)
			return
		}
	}
	s.selection = append(s.selection, id)
}

func (s *Session) SelectMany(ids []string) {
	s.selection = s.selection[:0]
	for _, id := range ids {
		if s.blockIndex(id) >= 0 {
			s.selection = append(s.selection, id)
		}
	}
}

func (s *Session) ClearSelection() { s.selection = nil }

func (s *Session) Selection() []string {
	return append([]string(nil), s.selection...)
}

func (s *Session) IsSelected(id string) bool {
	for _, sel := range s.selection {
		if sel == id {
			return true
		}
	}
	return false
}

func filterIDs(ids []string, drop map[string]bool) []string {
	kept := ids[:0]
	for _, id := range ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	return kept
}

// ── History ────────────────────────────────────────────────

// snapshot deep-copies the undoable state.
func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Blocks:              domain.CloneBlocks(s.blocks),
		GlobalStyles:        s.globalStyles,
		PaperSize:           s.paperSize,
		Orientation:         s.orientation,
		TemplateName:        s.templateName,
		TemplateType:        s.templateType,
		RecipientEmailField: s.recipientEmailField,
		RecipientNameField:  s.recipientNameField,
	}
}

func (s *Session) restore(snap Snapshot) {
	s.blocks = domain.CloneBlocks(snap.Blocks)
	s.globalStyles = snap.GlobalStyles
	s.paperSize = snap.PaperSize
	s.orientation = snap.Orientation
	s.templateName = snap.TemplateName
	s.templateType = snap.TemplateType
	s.recipientEmailField = snap.RecipientEmailField
	s.recipientNameField = snap.RecipientNameField

	// Drop selection entries that no longer resolve.
	drop := make(map[string]bool)
	for _, id := range s.selection {
		if s.blockIndex(id) < 0 {
			drop[id] = true
		}
	}
	if len(drop) > 0 {
		s.selection = filterIDs(s.selection, drop)
	}
}

// PushHistory captures the current state as the pre-mutation snapshot for
// the action about to run. Continuous gestures call this once at gesture
// start so the whole gesture undoes atomically.
func (s *Session) PushHistory() {
	s.hist.push(s.snapshot())
}

func (s *Session) CanUndo() bool { return s.hist.canUndo() }
func (s *Session) CanRedo() bool { return s.hist.canRedo() }

func (s *Session) Undo() bool {
	snap, ok := s.hist.undo(s.snapshot())
	if !ok {
		return false
	}
	s.restore(snap)
	s.dirty = true
	return true
}

func (s *Session) Redo() bool {
	snap, ok := s.hist.redo()
	if !ok {
		return false
	}
	s.restore(snap)
	s.dirty = true
	return true
}

// HistoryLen reports the number of committed snapshots.
func (s *Session) HistoryLen() int { return s.hist.len() }

// MarkClean clears the dirty flag after a successful save.
func (s *Session) MarkClean() { s.dirty = false }
