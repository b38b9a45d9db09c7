package builder

import (
	"testing"

	"stencil/internal/domain"
)

func TestDragSnapsToGuideWithinThreshold(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50})
	s.AddGuide(domain.GuideVertical, 153)

	s.BeginDrag(ids[0])
	// Proposed left edge lands at 150, within 5 of the guide at 153.
	s.DragBy(50, 0)

	b, _ := s.BlockByID(ids[0])
	if b.Style.X != 153 {
		t.Fatalf("left edge should lock onto the guide, x=%v", b.Style.X)
	}
	lines := s.SnapLines()
	if len(lines) != 1 || lines[0].Orientation != domain.GuideVertical || lines[0].Position != 153 {
		t.Fatalf("expected one vertical snap line at 153, got %v", lines)
	}

	s.EndDrag()
	if len(s.SnapLines()) != 0 {
		t.Fatal("snap lines must clear at gesture end")
	}
}

func TestDragOutsideThresholdFallsBackToGrid(t *testing.T) {
	s, ids := newSessionWithBlocks(t, domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50})
	s.AddGuide(domain.GuideVertical, 250)

	s.BeginDrag(ids[0])
	s.DragBy(73, 0) // proposed 173; guide 250 is far, grid is 10

	b, _ := s.BlockByID(ids[0])
	if b.Style.X != 170 {
		t.Fatalf("expected grid quantization to 170, got %v", b.Style.X)
	}
	if len(s.SnapLines()) != 0 {
		t.Fatalf("no snap line expected, got %v", s.SnapLines())
	}
	s.EndDrag()
}

func TestDragSnapsToOtherBlockEdge(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50},
		domain.BlockStyle{X: 404, Y: 300, Width: 80, Height: 40},
	)

	s.BeginDrag(ids[0])
	// Proposed right edge at 401, within 5 of the other block's left edge 404.
	s.DragBy(201, 0)

	b, _ := s.BlockByID(ids[0])
	if b.Style.X+b.Style.Width != 404 {
		t.Fatalf("right edge should meet the neighbor's left edge, got %v",
			b.Style.X+b.Style.Width)
	}
	s.EndDrag()
}

func TestSnapIgnoresBlocksInDragSet(t *testing.T) {
	s, ids := newSessionWithBlocks(t,
		domain.BlockStyle{X: 100, Y: 100, Width: 100, Height: 50},
		domain.BlockStyle{X: 204, Y: 100, Width: 100, Height: 50},
	)
	s.SelectMany(ids)

	s.BeginDrag(ids[0])
	s.DragBy(1, 0)

	// Both blocks move together; the second block's edges must not act as
	// targets for the first or the set could never move as a unit.
	a, _ := s.BlockByID(ids[0])
	bb, _ := s.BlockByID(ids[1])
	if bb.Style.X-a.Style.X != 104 {
		t.Fatalf("relative offset must be preserved, got %v", bb.Style.X-a.Style.X)
	}
	s.EndDrag()
}

func TestSnapAxisPicksSmallestDistance(t *testing.T) {
	// Start edge is 2 away from target 102; center is 3 away from 153.
	snapped, target, ok := snapAxis(100, 100, []float64{102, 153})
	if !ok {
		t.Fatal("expected a snap")
	}
	if target != 102 || snapped != 102 {
		t.Fatalf("closest target should win: snapped=%v target=%v", snapped, target)
	}
}

func TestGuidePersistence(t *testing.T) {
	s := NewSession("t1", "org1")
	g := s.AddGuide(domain.GuideHorizontal, 400)

	schema := s.Schema()
	if len(schema.Guides) != 1 || schema.Guides[0].ID != g.ID {
		t.Fatalf("guides must serialize with the schema, got %v", schema.Guides)
	}

	if !s.RemoveGuide(g.ID) {
		t.Fatal("remove guide failed")
	}
	if s.RemoveGuide(g.ID) {
		t.Fatal("double remove should report false")
	}
}
