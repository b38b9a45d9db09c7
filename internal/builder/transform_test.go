package builder

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"stencil/internal/domain"
)

// newSessionWithBlocks hydrates a session from a schema, so fixtures can use
// any geometry: loaded schemas are trusted and never clamped, unlike AddBlock.
func newSessionWithBlocks(t *testing.T, styles ...domain.BlockStyle) (*Session, []string) {
	t.Helper()
	schema := domain.TemplateSchema{GlobalStyles: domain.DefaultGlobalStyles()}
	ids := make([]string, 0, len(styles))
	for _, st := range styles {
		b := domain.Block{
			ID:         uuid.New().String(),
			Type:       domain.BlockTypeText,
			Properties: &domain.TextProperties{},
			Style:      st,
		}
		schema.Blocks = append(schema.Blocks, b)
		ids = append(ids, b.ID)
	}
	s := NewSession("t1", "org1")
	s.LoadTemplate(schema, "fixture")
	return s, ids
}

func TestDragClampsToCanvasOrigin(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 40, Y: 30, Width: 100, Height: 50})

	if !s.BeginDrag(ids[0]) {
		t.Fatal("begin drag failed")
	}
	s.DragBy(-500, -500)
	s.EndDrag()

	b, _ := s.BlockByID(ids[0])
	if b.Style.X != 0 || b.Style.Y != 0 {
		t.Fatalf("coordinates must clamp to >= 0, got (%v, %v)", b.Style.X, b.Style.Y)
	}
}

func TestDragGestureIsOneHistoryEntry(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50})

	s.BeginDrag(ids[0])
	for i := 1; i <= 10; i++ {
		s.DragBy(float64(i*10), 0)
	}
	s.EndDrag()

	if s.HistoryLen() != 1 {
		t.Fatalf("a drag gesture must push exactly one snapshot, got %d", s.HistoryLen())
	}
	if !s.Undo() {
		t.Fatal("undo failed")
	}
	b, _ := s.BlockByID(ids[0])
	if b.Style.X != 100 {
		t.Fatalf("undo should restore pre-gesture position, got x=%v", b.Style.X)
	}
}

func TestDragMovesWholeSelectionUniformly(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50},
		domain.BlockStyle{X: 300, Y: 200, Width: 100, Height: 50},
	)
	s.SelectMany(ids)

	s.BeginDrag(ids[0])
	s.DragBy(50, 20)
	s.EndDrag()

	a, _ := s.BlockByID(ids[0])
	b, _ := s.BlockByID(ids[1])
	if a.Style.X != 150 || a.Style.Y != 120 {
		t.Fatalf("active block at (%v, %v)", a.Style.X, a.Style.Y)
	}
	if b.Style.X != 350 || b.Style.Y != 220 {
		t.Fatalf("passive member must get the same delta, at (%v, %v)", b.Style.X, b.Style.Y)
	}
}

func TestBeginDragOnUnselectedBlockReplacesSelection(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50},
		domain.BlockStyle{X: 300, Y: 200, Width: 100, Height: 50},
	)
	s.Select(ids[0], false)

	s.BeginDrag(ids[1])
	s.DragBy(50, 0)
	s.EndDrag()

	a, _ := s.BlockByID(ids[0])
	if a.Style.X != 100 {
		t.Fatalf("unrelated block must not move, x=%v", a.Style.X)
	}
	sel := s.Selection()
	if len(sel) != 1 || sel[0] != ids[1] {
		t.Fatalf("drag on unselected block should make it the sole selection, got %v", sel)
	}
}

func TestResizeEnforcesMinimums(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 100, Y: 100, Width: 200, Height: 100})

	s.BeginResize(ids[0], HandleSE)
	s.ResizeBy(-1000, -1000, false)
	s.EndResize()

	b, _ := s.BlockByID(ids[0])
	if b.Style.Width != domain.MinBlockWidth || b.Style.Height != domain.MinBlockHeight {
		t.Fatalf("expected clamp to %vx%v, got %vx%v",
			domain.MinBlockWidth, domain.MinBlockHeight, b.Style.Width, b.Style.Height)
	}
}

func TestResizeWestHandleAnchorsEastEdge(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 100, Y: 100, Width: 200, Height: 100})

	s.BeginResize(ids[0], HandleW)
	s.ResizeBy(40, 0, false)
	s.EndResize()

	b, _ := s.BlockByID(ids[0])
	if b.Style.Width != 160 {
		t.Fatalf("width: got %v", b.Style.Width)
	}
	if b.Style.X != 140 {
		t.Fatalf("west resize must move the origin, x=%v", b.Style.X)
	}
	if b.Style.X+b.Style.Width != 300 {
		t.Fatalf("east edge must stay anchored at 300, got %v", b.Style.X+b.Style.Width)
	}
}

func TestResizeCornerAspectLock(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 0, Y: 0, Width: 200, Height: 100})

	// Width changes more, so height derives from width via the 2:1 ratio.
	s.BeginResize(ids[0], HandleSE)
	s.ResizeBy(100, 10, true)
	s.EndResize()

	b, _ := s.BlockByID(ids[0])
	if b.Style.Width != 300 {
		t.Fatalf("width: got %v", b.Style.Width)
	}
	if math.Abs(b.Style.Height-150) > 1e-9 {
		t.Fatalf("height should follow the aspect ratio, got %v", b.Style.Height)
	}
}

func TestResizeEdgeAspectLockDerivesPerpendicular(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 0, Y: 0, Width: 200, Height: 100})

	s.BeginResize(ids[0], HandleE)
	s.ResizeBy(200, 0, true)
	s.EndResize()

	b, _ := s.BlockByID(ids[0])
	if b.Style.Width != 400 || math.Abs(b.Style.Height-200) > 1e-9 {
		t.Fatalf("got %vx%v, want 400x200", b.Style.Width, b.Style.Height)
	}
}

func TestContainerResizeScalesChildrenProportionally(t *testing.T) {
	s := NewSession("t1", "org1")
	child := domain.Block{
		ID:   "child",
		Type: domain.BlockTypeText,
		Properties: &domain.TextProperties{Content: "x"},
		Style: domain.BlockStyle{X: 10, Y: 20, Width: 100, Height: 40, FontSize: 12},
	}
	container := domain.Block{
		ID:         "box",
		Type:       domain.BlockTypeContainer,
		Properties: &domain.ContainerProperties{Children: []domain.Block{child}},
		Style:      domain.BlockStyle{X: 0, Y: 0, Width: 200, Height: 100},
	}
	s.LoadTemplate(domain.TemplateSchema{Blocks: []domain.Block{container}}, "t")

	s.BeginResize("box", HandleSE)
	s.ResizeBy(200, 100, false) // 2x on both axes
	s.EndResize()

	b, _ := s.BlockByID("box")
	got := b.Properties.(*domain.ContainerProperties).Children[0]
	if got.Style.X != 20 || got.Style.Y != 40 || got.Style.Width != 200 || got.Style.Height != 80 {
		t.Fatalf("child geometry not scaled 2x: %+v", got.Style)
	}
	if math.Abs(got.Style.FontSize-24) > 1e-9 {
		t.Fatalf("font size should scale with the container, got %v", got.Style.FontSize)
	}
}

func TestMoveBlocksUnknownIDIsNoOp(t *testing.T) {
	s, _ := newSessionWithBlocks(t, domain.BlockStyle{X: 10, Y: 10, Width: 100, Height: 50})

	if n := s.MoveBlocks([]string{"nope"}, 10, 10); n != 0 {
		t.Fatalf("expected no-op, moved %d", n)
	}
	if s.HistoryLen() != 0 {
		t.Fatal("a no-op must not push history")
	}
}
