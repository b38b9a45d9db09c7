package mcpserver

import (
	"testing"

	"stencil/internal/domain"
)

func block(x, y, w, h float64) domain.Block {
	return domain.Block{
		Type:  domain.BlockTypeText,
		Style: domain.BlockStyle{X: x, Y: y, Width: w, Height: h},
	}
}

func TestNextPositionEmptyCanvas(t *testing.T) {
	le := NewLayoutEngine()
	x, y := le.NextPosition(nil, 595, 200, 40)
	if x != 0 || y != 0 {
		t.Fatalf("empty canvas should place at origin, got (%v, %v)", x, y)
	}
}

func TestNextPositionAvoidsExisting(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Block{block(0, 0, 300, 100)}

	x, y := le.NextPosition(existing, 595, 200, 40)

	placed := rect{x, y, 200, 40}
	occ := rect{0, 0, 300, 100}
	if placed.intersects(occ) {
		t.Fatalf("placement (%v, %v) overlaps existing block", x, y)
	}
}

func TestNextPositionRespectsCanvasWidth(t *testing.T) {
	le := NewLayoutEngine()
	// A full-width block forces the next placement below it.
	existing := []domain.Block{block(0, 0, 595, 50)}

	x, y := le.NextPosition(existing, 595, 200, 40)
	if x+200 > 595 {
		t.Fatalf("placement exceeds canvas width: x=%v", x)
	}
	if y < 50 {
		t.Fatalf("expected placement below the full-width block, got y=%v", y)
	}
}

func TestNextPositionSnapsToGrid(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Block{block(3, 7, 100, 100)}

	x, y := le.NextPosition(existing, 595, 100, 100)
	if x != le.snap(x) || y != le.snap(y) {
		t.Fatalf("placement (%v, %v) is off-grid", x, y)
	}
}
