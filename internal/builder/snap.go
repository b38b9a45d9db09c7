package builder

import (
	"math"

	"stencil/internal/domain"
)

// SnapThreshold is the maximum distance, in points, at which a reference
// point locks onto a snap target.
const SnapThreshold = 5.0

// SnapLine is a transient alignment line shown while a drag is locked onto a
// target. Lines are recomputed on every move and cleared at gesture end.
type SnapLine struct {
	Orientation domain.GuideOrientation `json:"orientation"`
	Position    float64                 `json:"position"`
}

// SnapLines returns the currently active snap lines.
func (s *Session) SnapLines() []SnapLine {
	return append([]SnapLine(nil), s.snapLines...)
}

// resolveSnap computes the final position for the actively dragged block.
// Three reference points per axis (start edge, center, end edge) are compared
// against the canvas midlines, persistent guides, and the same three
// reference points of every block outside the drag set. The closest match
// per axis within the threshold wins and overrides the grid-quantized
// position.
func (s *Session) resolveSnap(proposed domain.BlockStyle, dragging map[string]domain.BlockStyle) (x, y float64, lines []SnapLine) {
	cw, ch := s.CanvasSize()

	xTargets := []float64{cw / 2}
	yTargets := []float64{ch / 2}
	for _, g := range s.guides {
		if g.Orientation == domain.GuideVertical {
			xTargets = append(xTargets, g.Position)
		} else {
			yTargets = append(yTargets, g.Position)
		}
	}
	for i := range s.blocks {
		b := &s.blocks[i]
		if _, inDragSet := dragging[b.ID]; inDragSet {
			continue
		}
		xTargets = append(xTargets, b.Style.X, b.Style.X+b.Style.Width/2, b.Style.X+b.Style.Width)
		yTargets = append(yTargets, b.Style.Y, b.Style.Y+b.Style.Height/2, b.Style.Y+b.Style.Height)
	}

	x = s.quantize(proposed.X)
	y = s.quantize(proposed.Y)

	if sx, target, ok := snapAxis(proposed.X, proposed.Width, xTargets); ok {
		x = sx
		lines = append(lines, SnapLine{Orientation: domain.GuideVertical, Position: target})
	}
	if sy, target, ok := snapAxis(proposed.Y, proposed.Height, yTargets); ok {
		y = sy
		lines = append(lines, SnapLine{Orientation: domain.GuideHorizontal, Position: target})
	}

	x = math.Max(0, x)
	y = math.Max(0, y)
	return x, y, lines
}

// snapAxis tests the block's start edge, center, and end edge against every
// target and returns the adjusted start coordinate for the smallest match
// within the threshold.
func snapAxis(start, size float64, targets []float64) (snapped, target float64, ok bool) {
	refs := [3]float64{start, start + size/2, start + size}

	best := math.Inf(1)
	for _, t := range targets {
		for _, r := range refs {
			d := math.Abs(r - t)
			if d < best {
				best = d
				target = t
				snapped = start + (t - r)
			}
		}
	}
	if best > SnapThreshold {
		return 0, 0, false
	}
	return snapped, target, true
}

func (s *Session) quantize(v float64) float64 {
	if s.gridSize <= 0 {
		return v
	}
	return math.Round(v/s.gridSize) * s.gridSize
}
