package builder

import (
	"math"

	"github.com/google/uuid"

	"stencil/internal/domain"
)

// GroupSelection wraps the selected blocks (two or more) in a new container
// sized to their combined bounding box. Member coordinates become relative to
// the container origin; the container takes the list position of the first
// member. The container becomes the sole selection.
func (s *Session) GroupSelection() (domain.Block, bool) {
	if len(s.selection) < 2 {
		return domain.Block{}, false
	}
	member := make(map[string]bool, len(s.selection))
	for _, id := range s.selection {
		if s.blockIndex(id) >= 0 {
			member[id] = true
		}
	}
	if len(member) < 2 {
		return domain.Block{}, false
	}
	s.PushHistory()

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	insertAt := -1
	var children []domain.Block
	kept := make([]domain.Block, 0, len(s.blocks))

	for i, b := range s.blocks {
		if !member[b.ID] {
			kept = append(kept, b)
			continue
		}
		if insertAt < 0 {
			insertAt = i
		}
		minX = math.Min(minX, b.Style.X)
		minY = math.Min(minY, b.Style.Y)
		maxX = math.Max(maxX, b.Style.X+b.Style.Width)
		maxY = math.Max(maxY, b.Style.Y+b.Style.Height)
		children = append(children, b)
	}

	for i := range children {
		children[i].Style.X -= minX
		children[i].Style.Y -= minY
	}

	container := domain.Block{
		ID:         uuid.New().String(),
		Type:       domain.BlockTypeContainer,
		Properties: &domain.ContainerProperties{Children: children},
		Style: domain.BlockStyle{
			X:      minX,
			Y:      minY,
			Width:  maxX - minX,
			Height: maxY - minY,
		},
	}

	if insertAt > len(kept) {
		insertAt = len(kept)
	}
	kept = append(kept, domain.Block{})
	copy(kept[insertAt+1:], kept[insertAt:])
	kept[insertAt] = container
	s.blocks = kept

	s.selection = []string{container.ID}
	s.dirty = true
	return container.Clone(), true
}

// UngroupSelection dissolves every selected container with children:
// children are translated back to absolute canvas coordinates and spliced
// into the top-level list at the container's position. Selected blocks that
// are not containers stay selected alongside the liberated children.
func (s *Session) UngroupSelection() bool {
	selected := make(map[string]bool, len(s.selection))
	for _, id := range s.selection {
		selected[id] = true
	}

	dissolved := false
	var out []domain.Block
	var newSelection []string

	for _, b := range s.blocks {
		props, isContainer := b.Properties.(*domain.ContainerProperties)
		if !selected[b.ID] || !isContainer || len(props.Children) == 0 {
			out = append(out, b)
			if selected[b.ID] {
				newSelection = append(newSelection, b.ID)
			}
			continue
		}
		if !dissolved {
			// First container confirmed: commit the pre-mutation snapshot.
			s.PushHistory()
			dissolved = true
		}
		for _, child := range props.Children {
			child.Style.X += b.Style.X
			child.Style.Y += b.Style.Y
			out = append(out, child)
			newSelection = append(newSelection, child.ID)
		}
	}

	if !dissolved {
		return false
	}
	s.blocks = out
	s.selection = newSelection
	s.dirty = true
	return true
}
