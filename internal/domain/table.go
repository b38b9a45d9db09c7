package domain

// CellStyle overrides table-level styling for a single cell.
type CellStyle struct {
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
}

// TableCell is a single cell of a table block.
//
// A cell is either free text, bound to exactly one variable, or marked as a
// label that spawns a family of derived variables. Variable binding and label
// marking are mutually exclusive; the binder clears one when setting the
// other.
type TableCell struct {
	Content  string     `json:"content"`
	Variable string     `json:"variable,omitempty"`
	IsLabel  bool       `json:"isLabel,omitempty"`
	LabelID  string     `json:"labelId,omitempty"`
	ColSpan  int        `json:"colSpan,omitempty"`
	RowSpan  int        `json:"rowSpan,omitempty"`
	Style    *CellStyle `json:"style,omitempty"`
}

func (c TableCell) Clone() TableCell {
	out := c
	if c.Style != nil {
		st := *c.Style
		out.Style = &st
	}
	return out
}

// TableRow is an ordered sequence of cells.
type TableRow struct {
	Cells    []TableCell `json:"cells"`
	IsHeader bool        `json:"isHeader,omitempty"`
}

func (r TableRow) Clone() TableRow {
	out := TableRow{IsHeader: r.IsHeader}
	if r.Cells != nil {
		out.Cells = make([]TableCell, len(r.Cells))
		for i, c := range r.Cells {
			out.Cells[i] = c.Clone()
		}
	}
	return out
}
