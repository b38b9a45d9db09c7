package domain

import (
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockTypeText      BlockType = "text"
	BlockTypeTable     BlockType = "table"
	BlockTypeImage     BlockType = "image"
	BlockTypeContainer BlockType = "container"
	BlockTypeDivider   BlockType = "divider"
	BlockTypeSpacer    BlockType = "spacer"
)

// Minimum block dimensions enforced by every geometry mutation.
const (
	MinBlockWidth  = 50.0
	MinBlockHeight = 20.0
)

// BlockStyle holds a block's canvas geometry plus its visual attributes.
// X/Y are absolute canvas coordinates for top-level blocks and
// container-relative coordinates for container children.
type BlockStyle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	FontFamily      string  `json:"fontFamily,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Padding         float64 `json:"padding,omitempty"`
	BorderWidth     float64 `json:"borderWidth,omitempty"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
	ZIndex          int     `json:"zIndex,omitempty"`
}

// Block is a single positioned, styled content unit on the canvas.
// Properties is a tagged union discriminated by Type.
type Block struct {
	ID         string          `json:"id"`
	Type       BlockType       `json:"type"`
	Properties BlockProperties `json:"properties"`
	Style      BlockStyle      `json:"style"`
}

// BlockProperties is implemented by every per-type property bag.
type BlockProperties interface {
	PropertiesType() BlockType
	CloneProperties() BlockProperties
}

type TextProperties struct {
	Content string `json:"content"`
}

func (*TextProperties) PropertiesType() BlockType { return BlockTypeText }

type TableProperties struct {
	Rows         []TableRow `json:"rows"`
	ColumnWidths []float64  `json:"columnWidths,omitempty"`
}

func (*TableProperties) PropertiesType() BlockType { return BlockTypeTable }

type ImageProperties struct {
	Source string `json:"src"`
	Fit    string `json:"fit,omitempty"` // "contain" | "cover" | "fill"
	Alt    string `json:"alt,omitempty"`
}

func (*ImageProperties) PropertiesType() BlockType { return BlockTypeImage }

// ContainerProperties holds child blocks positioned relative to the
// container's origin.
type ContainerProperties struct {
	Children []Block `json:"children"`
}

func (*ContainerProperties) PropertiesType() BlockType { return BlockTypeContainer }

type DividerProperties struct {
	Thickness float64 `json:"thickness,omitempty"`
	LineStyle string  `json:"lineStyle,omitempty"` // "solid" | "dashed" | "dotted"
}

func (*DividerProperties) PropertiesType() BlockType { return BlockTypeDivider }

type SpacerProperties struct{}

func (*SpacerProperties) PropertiesType() BlockType { return BlockTypeSpacer }

// ── JSON union dispatch ────────────────────────────────────

// blockJSON is the wire shape of a Block; Properties stays raw until the
// type tag is known.
type blockJSON struct {
	ID         string          `json:"id"`
	Type       BlockType       `json:"type"`
	Properties json.RawMessage `json:"properties"`
	Style      BlockStyle      `json:"style"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	props, err := newProperties(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Properties) > 0 {
		if err := json.Unmarshal(raw.Properties, props); err != nil {
			return fmt.Errorf("block %s properties: %w", raw.ID, err)
		}
	}

	b.ID = raw.ID
	b.Type = raw.Type
	b.Properties = props
	b.Style = raw.Style
	return nil
}

func newProperties(t BlockType) (BlockProperties, error) {
	switch t {
	case BlockTypeText:
		return &TextProperties{}, nil
	case BlockTypeTable:
		return &TableProperties{}, nil
	case BlockTypeImage:
		return &ImageProperties{}, nil
	case BlockTypeContainer:
		return &ContainerProperties{}, nil
	case BlockTypeDivider:
		return &DividerProperties{}, nil
	case BlockTypeSpacer:
		return &SpacerProperties{}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", t)
	}
}

// ── Deep copy ──────────────────────────────────────────────
// History snapshots and schema exports must never alias live state.

func (b Block) Clone() Block {
	out := b
	if b.Properties != nil {
		out.Properties = b.Properties.CloneProperties()
	}
	return out
}

// CloneBlocks deep-copies a block slice.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i := range blocks {
		out[i] = blocks[i].Clone()
	}
	return out
}

func (p *TextProperties) CloneProperties() BlockProperties {
	cp := *p
	return &cp
}

func (p *TableProperties) CloneProperties() BlockProperties {
	cp := TableProperties{}
	if p.Rows != nil {
		cp.Rows = make([]TableRow, len(p.Rows))
		for i, r := range p.Rows {
			cp.Rows[i] = r.Clone()
		}
	}
	if p.ColumnWidths != nil {
		cp.ColumnWidths = append([]float64(nil), p.ColumnWidths...)
	}
	return &cp
}

func (p *ImageProperties) CloneProperties() BlockProperties {
	cp := *p
	return &cp
}

func (p *ContainerProperties) CloneProperties() BlockProperties {
	return &ContainerProperties{Children: CloneBlocks(p.Children)}
}

func (p *DividerProperties) CloneProperties() BlockProperties {
	cp := *p
	return &cp
}

func (p *SpacerProperties) CloneProperties() BlockProperties {
	return &SpacerProperties{}
}
