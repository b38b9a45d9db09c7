package builder

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"stencil/internal/domain"
)

// labelSuffixes is the fixed family of derived variable keys every label
// cell generates, so one label row yields multiple bindable sub-fields.
var labelSuffixes = []struct {
	key   string
	label string
}{
	{"", ""},
	{"hours", "Hours"},
	{"rate", "Rate"},
	{"amount", "Amount"},
	{"total", "Total"},
	{"quantity", "Quantity"},
	{"days", "Days"},
}

// BindCellVariable binds a variable to a table cell: the cell displays the
// variable's label (key as fallback) and any label marking is cleared —
// a cell is never both a bound-variable cell and a label cell.
func (s *Session) BindCellVariable(blockID string, row, col int, v domain.Variable) bool {
	cell := s.tableCell(blockID, row, col)
	if cell == nil {
		return false
	}
	s.PushHistory()
	cell.Variable = v.Key
	cell.Content = v.DisplayLabel()
	cell.IsLabel = false
	cell.LabelID = ""
	s.dirty = true
	return true
}

// MarkCellLabel marks a table cell as a label cell, assigning a label id
// (generated when empty) and clearing any variable binding. Returns the
// assigned label id.
func (s *Session) MarkCellLabel(blockID string, row, col int, labelID string) (string, bool) {
	cell := s.tableCell(blockID, row, col)
	if cell == nil {
		return "", false
	}
	if labelID == "" {
		labelID = uuid.New().String()
	}
	s.PushHistory()
	cell.IsLabel = true
	cell.LabelID = labelID
	cell.Variable = ""
	s.dirty = true
	return labelID, true
}

// ClearCell resets a cell's binding and label marking, keeping its content.
func (s *Session) ClearCell(blockID string, row, col int) bool {
	cell := s.tableCell(blockID, row, col)
	if cell == nil {
		return false
	}
	s.PushHistory()
	cell.Variable = ""
	cell.IsLabel = false
	cell.LabelID = ""
	s.dirty = true
	return true
}

// SetCellContent replaces a cell's free text.
func (s *Session) SetCellContent(blockID string, row, col int, content string) bool {
	cell := s.tableCell(blockID, row, col)
	if cell == nil {
		return false
	}
	s.PushHistory()
	cell.Content = content
	s.dirty = true
	return true
}

// Cell returns a copy of the addressed cell.
func (s *Session) Cell(blockID string, row, col int) (domain.TableCell, bool) {
	cell := s.tableCell(blockID, row, col)
	if cell == nil {
		return domain.TableCell{}, false
	}
	return cell.Clone(), true
}

// tableCell returns a pointer into the live table, or nil when the address
// doesn't resolve to a table cell.
func (s *Session) tableCell(blockID string, row, col int) *domain.TableCell {
	b := s.findBlock(blockID)
	if b == nil {
		return nil
	}
	props, ok := b.Properties.(*domain.TableProperties)
	if !ok {
		return nil
	}
	if row < 0 || row >= len(props.Rows) {
		return nil
	}
	cells := props.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return nil
	}
	return &cells[col]
}

// LabelVariables generates the derived variable family for one label cell.
func LabelVariables(labelID, labelText string) []domain.Variable {
	if labelText == "" {
		labelText = "Label"
	}
	out := make([]domain.Variable, 0, len(labelSuffixes))
	for _, sfx := range labelSuffixes {
		key := "label." + labelID
		label := labelText
		if sfx.key != "" {
			key += "." + sfx.key
			label += " " + sfx.label
		}
		out = append(out, domain.Variable{Key: key, Label: label, Category: "labels"})
	}
	return out
}

// labelVariablesIn collects the derived families from every label cell in a
// block (tables only).
func labelVariablesIn(b *domain.Block) []domain.Variable {
	props, ok := b.Properties.(*domain.TableProperties)
	if !ok {
		return nil
	}
	var out []domain.Variable
	for _, row := range props.Rows {
		for _, cell := range row.Cells {
			if cell.IsLabel && cell.LabelID != "" {
				out = append(out, LabelVariables(cell.LabelID, cell.Content)...)
			}
		}
	}
	return out
}

// ── Suggestion ranking ─────────────────────────────────────

// Suggestion pairs a catalog variable with its match score against a cell's
// free text.
type Suggestion struct {
	Variable domain.Variable `json:"variable"`
	Score    int             `json:"score"`
}

// maxSuggestions bounds the quick-pick list shown before the full catalog.
const maxSuggestions = 5

// SuggestVariables scores every known variable against the cell content
// (exact match > prefix > substring > word overlap) and returns the top five
// non-zero matches, best first.
func SuggestVariables(content string, catalog []domain.Variable) []Suggestion {
	needle := strings.ToLower(strings.TrimSpace(content))
	if needle == "" {
		return nil
	}

	var out []Suggestion
	for _, v := range catalog {
		score := matchScore(needle, v)
		if score > 0 {
			out = append(out, Suggestion{Variable: v, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func matchScore(needle string, v domain.Variable) int {
	label := strings.ToLower(v.Label)
	key := strings.ToLower(v.Key)

	switch {
	case needle == label || needle == key:
		return 100
	case strings.HasPrefix(label, needle) || strings.HasPrefix(key, needle):
		return 80
	case strings.Contains(label, needle) || strings.Contains(key, needle):
		return 60
	}

	// Word-overlap heuristic: shared words between the content and the
	// label, scaled into the 0-40 band.
	words := strings.Fields(needle)
	if len(words) == 0 {
		return 0
	}
	labelWords := strings.Fields(label)
	shared := 0
	for _, w := range words {
		for _, lw := range labelWords {
			if w == lw {
				shared++
				break
			}
		}
	}
	if shared == 0 {
		return 0
	}
	denom := len(words)
	if len(labelWords) > denom {
		denom = len(labelWords)
	}
	return shared * 40 / denom
}
