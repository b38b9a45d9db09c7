package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"stencil/internal/domain"
	"stencil/internal/records"
)

// ── Compose ────────────────────────────────────────────────
// Compose merges a template schema with one recipient record into a
// Document: absolutely positioned, fully resolved elements the PDF
// renderer can draw without knowing anything about variables or
// containers.

// Document is the render payload for one recipient.
type Document struct {
	Pages []Page `json:"pages"`
}

// Page is one physical page in points.
type Page struct {
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Elements []Element `json:"elements"`
}

// Element is a drawable item at absolute page coordinates. Exactly one
// of Content/Rows/Source is meaningful depending on Type.
type Element struct {
	Type    domain.BlockType  `json:"type"`
	Style   domain.BlockStyle `json:"style"`
	Content string            `json:"content,omitempty"` // text, divider label
	Source  string            `json:"source,omitempty"`  // image URL/path
	Fit     string            `json:"fit,omitempty"`
	Rows    []RowElement      `json:"rows,omitempty"` // table
}

// RowElement is one resolved table row.
type RowElement struct {
	IsHeader bool          `json:"isHeader"`
	Cells    []CellElement `json:"cells"`
}

// CellElement is one resolved table cell.
type CellElement struct {
	Content string            `json:"content"`
	ColSpan int               `json:"colSpan,omitempty"`
	RowSpan int               `json:"rowSpan,omitempty"`
	Style   *domain.CellStyle `json:"style,omitempty"`
}

// Compose resolves the schema against one recipient record. Containers
// are flattened to absolute coordinates; variables that do not resolve
// keep their literal content so a missing field is visible in the
// output instead of silently blank.
func Compose(schema domain.TemplateSchema, paper domain.PaperSize, orientation domain.Orientation, rec records.Record) *Document {
	width, height := paper.Oriented(orientation)

	page := Page{Width: width, Height: height}
	for _, b := range schema.Blocks {
		page.Elements = append(page.Elements, flattenBlock(b, 0, 0, rec)...)
	}

	return &Document{Pages: []Page{page}}
}

// flattenBlock converts a block (and, for containers, its subtree) into
// elements at absolute coordinates.
func flattenBlock(b domain.Block, offsetX, offsetY float64, rec records.Record) []Element {
	style := b.Style
	style.X += offsetX
	style.Y += offsetY

	if container, ok := b.Properties.(*domain.ContainerProperties); ok {
		var out []Element
		for _, child := range container.Children {
			out = append(out, flattenBlock(child, style.X, style.Y, rec)...)
		}
		return out
	}

	el := Element{Type: b.Type, Style: style}
	switch props := b.Properties.(type) {
	case *domain.TextProperties:
		el.Content = resolvePlaceholders(props.Content, rec)
	case *domain.TableProperties:
		el.Rows = resolveTable(props, rec)
	case *domain.ImageProperties:
		el.Source = props.Source
		el.Fit = props.Fit
	}
	return []Element{el}
}

func resolveTable(props *domain.TableProperties, rec records.Record) []RowElement {
	rows := make([]RowElement, len(props.Rows))
	for i, row := range props.Rows {
		out := RowElement{IsHeader: row.IsHeader, Cells: make([]CellElement, len(row.Cells))}
		for j, cell := range row.Cells {
			out.Cells[j] = CellElement{
				Content: resolveCell(cell, rec),
				ColSpan: cell.ColSpan,
				RowSpan: cell.RowSpan,
				Style:   cell.Style,
			}
		}
		rows[i] = out
	}
	return rows
}

// resolveCell applies the binder contract: a bound variable resolves
// through the record, label cells and plain cells render their literal
// content.
func resolveCell(cell domain.TableCell, rec records.Record) string {
	if cell.Variable == "" {
		return resolvePlaceholders(cell.Content, rec)
	}
	if v, ok := rec.Lookup(cell.Variable); ok {
		return formatValue(v)
	}
	return cell.Content
}

// ResolveText applies {{dot.path}} resolution to a standalone string,
// such as a send-job subject line.
func ResolveText(content string, rec records.Record) string {
	return resolvePlaceholders(content, rec)
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// resolvePlaceholders replaces {{dot.path}} references inside free text.
// Unresolvable references are left as-is.
func resolvePlaceholders(content string, rec records.Record) string {
	if !strings.Contains(content, "{{") {
		return content
	}
	return placeholderRe.ReplaceAllStringFunc(content, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := rec.Lookup(key); ok {
			return formatValue(v)
		}
		return match
	})
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}
