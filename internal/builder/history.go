package builder

import "stencil/internal/domain"

// MaxHistory bounds the undo buffer; the oldest snapshot is evicted first.
const MaxHistory = 50

// Snapshot is an immutable deep copy of the editable state at one point in
// time. It is created just before a mutating action and never mutated after.
type Snapshot struct {
	Blocks              []domain.Block
	GlobalStyles        domain.GlobalStyles
	PaperSize           domain.PaperSize
	Orientation         domain.Orientation
	TemplateName        string
	TemplateType        domain.TemplateType
	RecipientEmailField string
	RecipientNameField  string
}

// history is a bounded snapshot buffer.
//
// Invariant: entries[index] is always the last committed pre-mutation state
// (-1 when nothing has been committed). Undo and redo bounds are derived from
// that invariant:
//   - undo is possible while index >= 0;
//   - after an undo the state on screen equals entries[index+1], so redo
//     restores entries[index+2] and is possible while index+2 < len(entries).
type history struct {
	entries []Snapshot
	index   int
}

func newHistory() *history {
	return &history{index: -1}
}

// push commits a pre-mutation snapshot. Any snapshots beyond the current
// index belong to an abandoned redo branch and are discarded.
func (h *history) push(s Snapshot) {
	h.entries = append(h.entries[:h.index+1], s)
	h.index = len(h.entries) - 1
	if len(h.entries) > MaxHistory {
		h.entries = h.entries[1:]
		h.index--
	}
}

func (h *history) canUndo() bool {
	return h.index >= 0
}

func (h *history) canRedo() bool {
	return h.index+2 < len(h.entries)
}

// undo returns the snapshot to restore. When the index points at the newest
// entry the caller has made forward progress since the last push, so the
// present state is appended first to keep redo possible.
func (h *history) undo(present Snapshot) (Snapshot, bool) {
	if h.index < 0 {
		return Snapshot{}, false
	}
	if h.index == len(h.entries)-1 {
		h.entries = append(h.entries, present)
	}
	s := h.entries[h.index]
	h.index--
	return s, true
}

// redo returns the snapshot that the last undo stepped away from.
func (h *history) redo() (Snapshot, bool) {
	if h.index+2 >= len(h.entries) {
		return Snapshot{}, false
	}
	s := h.entries[h.index+2]
	h.index++
	return s, true
}

func (h *history) len() int {
	return len(h.entries)
}
