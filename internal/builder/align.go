package builder

import (
	"math"
	"sort"

	"stencil/internal/domain"
)

// Alignment names the target edge or center line of an align operation.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignMiddle Alignment = "middle"
	AlignBottom Alignment = "bottom"
)

type DistributeAxis string

const (
	DistributeHorizontal DistributeAxis = "horizontal"
	DistributeVertical   DistributeAxis = "vertical"
)

// canvasAlignMargin keeps edge-aligned blocks off the paper border.
const canvasAlignMargin = 20.0

// AlignSelection aligns the current selection. A single block aligns against
// the canvas bounds; two or more blocks align against the bounding box of
// the selection itself, moving only the axis the alignment implies.
func (s *Session) AlignSelection(a Alignment) bool {
	targets := s.selectedBlocks()
	if len(targets) == 0 {
		return false
	}
	s.PushHistory()
	if len(targets) == 1 {
		s.alignToCanvas(targets[0], a)
	} else {
		alignToBounds(targets, a)
	}
	s.dirty = true
	return true
}

func (s *Session) selectedBlocks() []*domain.Block {
	var out []*domain.Block
	for _, id := range s.selection {
		if b := s.findBlock(id); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (s *Session) alignToCanvas(b *domain.Block, a Alignment) {
	cw, ch := s.CanvasSize()
	switch a {
	case AlignLeft:
		b.Style.X = canvasAlignMargin
	case AlignCenter:
		b.Style.X = (cw - b.Style.Width) / 2
	case AlignRight:
		b.Style.X = cw - b.Style.Width - canvasAlignMargin
	case AlignTop:
		b.Style.Y = canvasAlignMargin
	case AlignMiddle:
		b.Style.Y = (ch - b.Style.Height) / 2
	case AlignBottom:
		b.Style.Y = ch - b.Style.Height - canvasAlignMargin
	}
	b.Style.X = math.Max(0, b.Style.X)
	b.Style.Y = math.Max(0, b.Style.Y)
}

func alignToBounds(blocks []*domain.Block, a Alignment) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range blocks {
		minX = math.Min(minX, b.Style.X)
		minY = math.Min(minY, b.Style.Y)
		maxX = math.Max(maxX, b.Style.X+b.Style.Width)
		maxY = math.Max(maxY, b.Style.Y+b.Style.Height)
	}
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2

	for _, b := range blocks {
		switch a {
		case AlignLeft:
			b.Style.X = minX
		case AlignCenter:
			b.Style.X = cx - b.Style.Width/2
		case AlignRight:
			b.Style.X = maxX - b.Style.Width
		case AlignTop:
			b.Style.Y = minY
		case AlignMiddle:
			b.Style.Y = cy - b.Style.Height/2
		case AlignBottom:
			b.Style.Y = maxY - b.Style.Height
		}
		b.Style.X = math.Max(0, b.Style.X)
		b.Style.Y = math.Max(0, b.Style.Y)
	}
}

// DistributeSelection lays the selected blocks out sequentially along the
// axis, each placed after the previous block's far edge plus the gap, and
// aligns all of them to the minimum coordinate on the perpendicular axis.
// Requires at least two selected blocks.
func (s *Session) DistributeSelection(axis DistributeAxis, gap float64) bool {
	if axis != DistributeHorizontal && axis != DistributeVertical {
		return false
	}
	targets := s.selectedBlocks()
	if len(targets) < 2 {
		return false
	}
	s.PushHistory()

	switch axis {
	case DistributeHorizontal:
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i].Style.X < targets[j].Style.X
		})
		minY := math.Inf(1)
		for _, b := range targets {
			minY = math.Min(minY, b.Style.Y)
		}
		cursor := targets[0].Style.X
		for _, b := range targets {
			b.Style.X = cursor
			b.Style.Y = minY
			cursor += b.Style.Width + gap
		}
	case DistributeVertical:
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i].Style.Y < targets[j].Style.Y
		})
		minX := math.Inf(1)
		for _, b := range targets {
			minX = math.Min(minX, b.Style.X)
		}
		cursor := targets[0].Style.Y
		for _, b := range targets {
			b.Style.Y = cursor
			b.Style.X = minX
			cursor += b.Style.Height + gap
		}
	}
	s.dirty = true
	return true
}
