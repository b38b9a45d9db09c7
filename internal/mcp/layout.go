package mcpserver

import (
	"math"

	"stencil/internal/domain"
)

const (
	layoutGrid    = 10.0 // matches the builder's default grid
	layoutPadding = 20.0 // gap between auto-placed blocks
)

// LayoutEngine finds free canvas positions for blocks created without
// explicit coordinates, so tool-created blocks don't land on top of each
// other.
type LayoutEngine struct {
	gridSize float64
	padding  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{gridSize: layoutGrid, padding: layoutPadding}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the first non-overlapping grid position for a block of
// size (newW, newH), scanning the page top-to-bottom within canvasW.
func (le *LayoutEngine) NextPosition(existing []domain.Block, canvasW, newW, newH float64) (float64, float64) {
	if len(existing) == 0 {
		return 0, 0
	}
	if canvasW < newW {
		canvasW = newW
	}

	occupied := make([]rect, len(existing))
	for i, b := range existing {
		occupied[i] = rect{b.Style.X, b.Style.Y, b.Style.Width, b.Style.Height}
	}

	candidate := rect{w: newW, h: newH}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x+newW <= canvasW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.x, candidate.y
			}
		}
	}

	// Fallback: place below all existing blocks.
	maxY := 0.0
	for _, b := range existing {
		if b.Style.Y+b.Style.Height > maxY {
			maxY = b.Style.Y + b.Style.Height
		}
	}
	return 0, le.snap(maxY + le.padding)
}
