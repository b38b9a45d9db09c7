package builder

import (
	"math"
	"testing"

	"stencil/internal/domain"
)

func TestGroupThenUngroupRestoresAbsoluteCoordinates(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 40, Y: 60, Width: 100, Height: 50},
		domain.BlockStyle{X: 200, Y: 30, Width: 80, Height: 40},
		domain.BlockStyle{X: 120, Y: 150, Width: 60, Height: 20},
	)
	original := make(map[string]domain.BlockStyle)
	for _, id := range ids {
		b, _ := s.BlockByID(id)
		original[id] = b.Style
	}

	s.SelectMany(ids)
	container, ok := s.GroupSelection()
	if !ok {
		t.Fatal("group failed")
	}
	if len(s.Blocks()) != 1 {
		t.Fatalf("grouping should leave one top-level block, got %d", len(s.Blocks()))
	}
	if container.Style.X != 40 || container.Style.Y != 30 {
		t.Fatalf("container origin should be the bounding-box min, got (%v, %v)",
			container.Style.X, container.Style.Y)
	}
	if container.Style.Width != 240 || container.Style.Height != 140 {
		t.Fatalf("container size should be the bounding box, got %vx%v",
			container.Style.Width, container.Style.Height)
	}

	if !s.UngroupSelection() {
		t.Fatal("ungroup failed")
	}
	blocks := s.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("ungroup should restore 3 blocks, got %d", len(blocks))
	}
	for _, b := range blocks {
		want := original[b.ID]
		if math.Abs(b.Style.X-want.X) > 1e-9 || math.Abs(b.Style.Y-want.Y) > 1e-9 {
			t.Fatalf("block %s at (%v, %v), want (%v, %v)",
				b.ID, b.Style.X, b.Style.Y, want.X, want.Y)
		}
	}
}

func TestGroupChildCoordinatesAreRelative(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 100, Y: 100, Width: 50, Height: 20},
		domain.BlockStyle{X: 200, Y: 160, Width: 50, Height: 20},
	)
	s.SelectMany(ids)

	container, _ := s.GroupSelection()
	children := container.Properties.(*domain.ContainerProperties).Children
	if children[0].Style.X != 0 || children[0].Style.Y != 0 {
		t.Fatalf("first child should sit at the container origin, got (%v, %v)",
			children[0].Style.X, children[0].Style.Y)
	}
	if children[1].Style.X != 100 || children[1].Style.Y != 60 {
		t.Fatalf("second child offset wrong: (%v, %v)", children[1].Style.X, children[1].Style.Y)
	}
}

func TestGroupRequiresTwoBlocks(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 10, Y: 10, Width: 50, Height: 20})
	s.SelectMany(ids)

	if _, ok := s.GroupSelection(); ok {
		t.Fatal("grouping a single block must be a no-op")
	}
	if s.HistoryLen() != 0 {
		t.Fatal("no-op must not push history")
	}
}

func TestGroupTakesFirstMemberListPosition(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 0, Y: 0, Width: 50, Height: 20},
		domain.BlockStyle{X: 100, Y: 0, Width: 50, Height: 20},
		domain.BlockStyle{X: 200, Y: 0, Width: 50, Height: 20},
	)
	s.SelectMany([]string{ids[1], ids[2]})

	container, _ := s.GroupSelection()
	blocks := s.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 top-level blocks, got %d", len(blocks))
	}
	if blocks[0].ID != ids[0] || blocks[1].ID != container.ID {
		t.Fatalf("container should replace the first grouped member in order, got %s, %s",
			blocks[0].ID, blocks[1].ID)
	}
}

func TestUngroupKeepsNonContainerSiblingsSelected(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 0, Y: 0, Width: 50, Height: 20},
		domain.BlockStyle{X: 100, Y: 0, Width: 50, Height: 20},
		domain.BlockStyle{X: 300, Y: 300, Width: 50, Height: 20},
	)
	s.SelectMany([]string{ids[0], ids[1]})
	container, _ := s.GroupSelection()

	// Select the container together with a plain sibling, then ungroup.
	s.SelectMany([]string{container.ID, ids[2]})
	if !s.UngroupSelection() {
		t.Fatal("ungroup failed")
	}

	sel := s.Selection()
	want := map[string]bool{ids[0]: true, ids[1]: true, ids[2]: true}
	if len(sel) != 3 {
		t.Fatalf("selection should hold sibling plus liberated children, got %v", sel)
	}
	for _, id := range sel {
		if !want[id] {
			t.Fatalf("unexpected selected id %s", id)
		}
	}
}

func TestUngroupEmptyContainerIsNoOp(t *testing.T) {
	s := NewSession("t1", "org1")
	b, _ := s.AddBlock(domain.BlockTypeContainer, 10, 10, 200, 100)
	s.hist = newHistory()
	s.Select(b.ID, false)

	if s.UngroupSelection() {
		t.Fatal("ungrouping a childless container must be a no-op")
	}
	if s.HistoryLen() != 0 {
		t.Fatal("no-op must not push history")
	}
}
