package builder

import (
	"testing"

	"stencil/internal/domain"
)

func snapNamed(name string) Snapshot {
	return Snapshot{TemplateName: name}
}

func TestHistoryUndoRedoSymmetry(t *testing.T) {
	h := newHistory()

	// One committed pre-mutation state, then forward progress.
	h.push(snapNamed("before"))
	present := snapNamed("after")

	got, ok := h.undo(present)
	if !ok || got.TemplateName != "before" {
		t.Fatalf("undo: got %q ok=%v", got.TemplateName, ok)
	}

	// Redo with no intervening mutation restores the pre-undo state.
	got, ok = h.redo()
	if !ok || got.TemplateName != "after" {
		t.Fatalf("redo: got %q ok=%v", got.TemplateName, ok)
	}

	// And undoing again steps back without duplicating the present state.
	got, ok = h.undo(snapNamed("after"))
	if !ok || got.TemplateName != "before" {
		t.Fatalf("second undo: got %q ok=%v", got.TemplateName, ok)
	}
	if h.len() != 2 {
		t.Fatalf("expected 2 entries, got %d", h.len())
	}
}

func TestHistoryNoOpBounds(t *testing.T) {
	h := newHistory()
	if h.canUndo() || h.canRedo() {
		t.Fatal("fresh history should allow neither undo nor redo")
	}
	if _, ok := h.undo(snapNamed("x")); ok {
		t.Fatal("undo on empty history must be a no-op")
	}
	if _, ok := h.redo(); ok {
		t.Fatal("redo on empty history must be a no-op")
	}
}

func TestHistoryBounded(t *testing.T) {
	h := newHistory()
	for i := 0; i < MaxHistory+25; i++ {
		h.push(snapNamed(string(rune('a' + i%26))))
	}
	if h.len() != MaxHistory {
		t.Fatalf("buffer grew to %d, cap is %d", h.len(), MaxHistory)
	}
	if h.index != MaxHistory-1 {
		t.Fatalf("index should track the newest entry, got %d", h.index)
	}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := newHistory()
	for i := 0; i < MaxHistory+1; i++ {
		h.push(Snapshot{TemplateName: names(i)})
	}
	if h.entries[0].TemplateName != names(1) {
		t.Fatalf("oldest entry should be evicted, head is %q", h.entries[0].TemplateName)
	}
}

func names(i int) string {
	return string(rune('A'+i/26)) + string(rune('a'+i%26))
}

func TestHistoryTruncatesRedoBranchOnPush(t *testing.T) {
	h := newHistory()
	h.push(snapNamed("one"))
	h.push(snapNamed("two"))

	if _, ok := h.undo(snapNamed("present")); !ok {
		t.Fatal("undo failed")
	}
	if !h.canRedo() {
		t.Fatal("redo should be available after undo")
	}

	// A new edit after an undo discards the stale redo branch.
	h.push(snapNamed("three"))
	if h.canRedo() {
		t.Fatal("push must truncate the redo branch")
	}
}

func TestSessionUndoRoundTrip(t *testing.T) {
	s := NewSession("t1", "org1")

	before := s.Schema()
	const n = 7
	for i := 0; i < n; i++ {
		if _, ok := s.AddBlock(domain.BlockTypeText, float64(i*60), 0, 100, 40); !ok {
			t.Fatalf("add block %d failed", i)
		}
	}
	if len(s.Blocks()) != n {
		t.Fatalf("expected %d blocks, got %d", n, len(s.Blocks()))
	}

	for i := 0; i < n; i++ {
		if !s.Undo() {
			t.Fatalf("undo %d failed", i)
		}
	}
	after := s.Schema()
	if len(after.Blocks) != len(before.Blocks) {
		t.Fatalf("expected initial state after %d undos, got %d blocks", n, len(after.Blocks))
	}
}

func TestSessionRedoRestoresUndoneEdit(t *testing.T) {
	s := NewSession("t1", "org1")
	b, _ := s.AddBlock(domain.BlockTypeText, 30, 40, 120, 40)

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	if len(s.Blocks()) != 0 {
		t.Fatal("undo should remove the added block")
	}
	if !s.Redo() {
		t.Fatal("redo failed")
	}
	blocks := s.Blocks()
	if len(blocks) != 1 || blocks[0].ID != b.ID {
		t.Fatalf("redo should restore block %s, got %+v", b.ID, blocks)
	}
}

func TestSnapshotIsDetachedFromLiveState(t *testing.T) {
	s := NewSession("t1", "org1")
	b, _ := s.AddBlock(domain.BlockTypeText, 0, 0, 100, 40)

	s.PushHistory()
	s.SetTextContent(b.ID, "mutated")

	snap := s.hist.entries[s.hist.index-1]
	props := snap.Blocks[0].Properties.(*domain.TextProperties)
	if props.Content != "" {
		t.Fatalf("snapshot captured post-mutation content %q", props.Content)
	}
}
