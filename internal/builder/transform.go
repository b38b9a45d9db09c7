package builder

import (
	"math"

	"stencil/internal/domain"
)

// ResizeHandle names the grab point of a resize gesture.
type ResizeHandle string

const (
	HandleN  ResizeHandle = "n"
	HandleS  ResizeHandle = "s"
	HandleE  ResizeHandle = "e"
	HandleW  ResizeHandle = "w"
	HandleNE ResizeHandle = "ne"
	HandleNW ResizeHandle = "nw"
	HandleSE ResizeHandle = "se"
	HandleSW ResizeHandle = "sw"
)

// dragState tracks one drag gesture: the drag set resolved at pointer-down
// and every member's original geometry. Deltas are always applied from the
// originals so pointer moves stay commutative.
type dragState struct {
	activeID string
	ids      []string
	origins  map[string]domain.BlockStyle
}

// resizeState tracks one resize gesture. originChildren holds a deep copy of
// a container's children at gesture start so repeated moves scale from the
// origin instead of compounding.
type resizeState struct {
	id             string
	handle         ResizeHandle
	origin         domain.BlockStyle
	originChildren []domain.Block
}

func clampStyle(st domain.BlockStyle) domain.BlockStyle {
	st.X = math.Max(0, st.X)
	st.Y = math.Max(0, st.Y)
	st.Width = math.Max(domain.MinBlockWidth, st.Width)
	st.Height = math.Max(domain.MinBlockHeight, st.Height)
	return st
}

// ── Drag gesture ───────────────────────────────────────────

// BeginDrag resolves the drag set at pointer-down: the full current
// multi-selection when the clicked block is part of it, otherwise a fresh
// single selection of the clicked block. One history snapshot covers the
// whole gesture.
func (s *Session) BeginDrag(blockID string) bool {
	if s.findBlock(blockID) == nil {
		return false
	}
	if !s.IsSelected(blockID) {
		s.selection = []string{blockID}
	}

	s.PushHistory()
	ds := &dragState{
		activeID: blockID,
		ids:      append([]string(nil), s.selection...),
		origins:  make(map[string]domain.BlockStyle, len(s.selection)),
	}
	for _, id := range ds.ids {
		if b := s.findBlock(id); b != nil {
			ds.origins[id] = b.Style
		}
	}
	s.drag = ds
	return true
}

// DragBy applies the total pointer delta since BeginDrag. The actively
// dragged block is grid-quantized and snapped; the resolved delta is then
// applied uniformly to every block in the drag set, clamping each result.
func (s *Session) DragBy(dx, dy float64) {
	ds := s.drag
	if ds == nil {
		return
	}
	origin, ok := ds.origins[ds.activeID]
	if !ok {
		return
	}

	proposed := origin
	proposed.X = origin.X + dx
	proposed.Y = origin.Y + dy

	snappedX, snappedY, lines := s.resolveSnap(proposed, ds.origins)
	s.snapLines = lines

	resolvedDX := snappedX - origin.X
	resolvedDY := snappedY - origin.Y

	for _, id := range ds.ids {
		b := s.findBlock(id)
		if b == nil {
			continue
		}
		o := ds.origins[id]
		b.Style.X = math.Max(0, o.X+resolvedDX)
		b.Style.Y = math.Max(0, o.Y+resolvedDY)
	}
	s.dirty = true
}

// EndDrag finishes the gesture and clears transient snap lines.
func (s *Session) EndDrag() {
	s.drag = nil
	s.snapLines = nil
}

// MoveBlocks applies a uniform delta outside any gesture (keyboard nudge,
// tool call). Unknown ids are skipped; each result is clamped.
func (s *Session) MoveBlocks(ids []string, dx, dy float64) int {
	var targets []*domain.Block
	for _, id := range ids {
		if b := s.findBlock(id); b != nil {
			targets = append(targets, b)
		}
	}
	if len(targets) == 0 {
		return 0
	}
	s.PushHistory()
	for _, b := range targets {
		b.Style.X = math.Max(0, b.Style.X+dx)
		b.Style.Y = math.Max(0, b.Style.Y+dy)
	}
	s.dirty = true
	return len(targets)
}

// ── Resize gesture ─────────────────────────────────────────

// BeginResize starts a resize gesture on one block; the snapshot pushed here
// covers every subsequent ResizeBy until EndResize.
func (s *Session) BeginResize(blockID string, handle ResizeHandle) bool {
	b := s.findBlock(blockID)
	if b == nil {
		return false
	}
	switch handle {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
	default:
		return false
	}
	s.PushHistory()
	rs := &resizeState{id: blockID, handle: handle, origin: b.Style}
	if props, ok := b.Properties.(*domain.ContainerProperties); ok {
		rs.originChildren = domain.CloneBlocks(props.Children)
	}
	s.resizing = rs
	return true
}

// ResizeBy applies the total pointer delta since BeginResize. Minimum bounds
// are 50x20; aspectLocked derives the locked dimension from the axis that
// changed more (corner handles) or the perpendicular axis (edge handles).
// Containers with children rescale proportionally instead of a plain resize.
func (s *Session) ResizeBy(dx, dy float64, aspectLocked bool) {
	rs := s.resizing
	if rs == nil {
		return
	}
	b := s.findBlock(rs.id)
	if b == nil {
		return
	}

	st := resizeStyle(rs.origin, rs.handle, dx, dy, aspectLocked)

	if props, ok := b.Properties.(*domain.ContainerProperties); ok && len(rs.originChildren) > 0 {
		sx := st.Width / rs.origin.Width
		sy := st.Height / rs.origin.Height
		scaled := domain.CloneBlocks(rs.originChildren)
		for i := range scaled {
			scaleBlockTree(&scaled[i], sx, sy)
		}
		props.Children = scaled
	}

	b.Style = st
	s.dirty = true
}

// EndResize finishes the gesture.
func (s *Session) EndResize() {
	s.resizing = nil
}

// resizeStyle computes the post-resize geometry for one handle from the
// gesture-origin style.
func resizeStyle(origin domain.BlockStyle, handle ResizeHandle, dx, dy float64, aspectLocked bool) domain.BlockStyle {
	st := origin
	w, h := origin.Width, origin.Height
	x, y := origin.X, origin.Y

	east := handle == HandleE || handle == HandleNE || handle == HandleSE
	west := handle == HandleW || handle == HandleNW || handle == HandleSW
	south := handle == HandleS || handle == HandleSE || handle == HandleSW
	north := handle == HandleN || handle == HandleNE || handle == HandleNW

	switch {
	case east:
		w = origin.Width + dx
	case west:
		w = origin.Width - dx
	}
	switch {
	case south:
		h = origin.Height + dy
	case north:
		h = origin.Height - dy
	}

	if aspectLocked && origin.Width > 0 && origin.Height > 0 {
		ratio := origin.Width / origin.Height
		corner := (east || west) && (north || south)
		if corner {
			if math.Abs(w-origin.Width) >= math.Abs(h-origin.Height)*ratio {
				h = w / ratio
			} else {
				w = h * ratio
			}
		} else if east || west {
			h = w / ratio
		} else {
			w = h * ratio
		}
	}

	w = math.Max(domain.MinBlockWidth, w)
	h = math.Max(domain.MinBlockHeight, h)

	// Handles on the north/west edges move the origin so the opposite edge
	// stays anchored.
	if west {
		x = origin.X + origin.Width - w
	}
	if north {
		y = origin.Y + origin.Height - h
	}

	st.X = math.Max(0, x)
	st.Y = math.Max(0, y)
	st.Width = w
	st.Height = h
	return st
}

// scaleBlockTree rescales a child block's geometry and scale-sensitive style
// attributes, recursing into nested containers. Uniform attributes (font,
// padding, borders) use the mean of the two axis factors.
func scaleBlockTree(b *domain.Block, sx, sy float64) {
	st := &b.Style
	st.X *= sx
	st.Y *= sy
	st.Width *= sx
	st.Height *= sy

	u := (sx + sy) / 2
	if st.FontSize > 0 {
		st.FontSize *= u
	}
	if st.Padding > 0 {
		st.Padding *= u
	}
	if st.BorderWidth > 0 {
		st.BorderWidth *= u
	}
	if st.BorderRadius > 0 {
		st.BorderRadius *= u
	}

	if props, ok := b.Properties.(*domain.ContainerProperties); ok {
		for i := range props.Children {
			scaleBlockTree(&props.Children[i], sx, sy)
		}
	}
}
