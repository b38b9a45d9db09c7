package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBlockJSONRoundTrip(t *testing.T) {
	src := Block{
		ID:   "b1",
		Type: BlockTypeTable,
		Properties: &TableProperties{
			Rows: []TableRow{
				{IsHeader: true, Cells: []TableCell{{Content: "Name"}, {Content: "Amount"}}},
				{Cells: []TableCell{{Content: "Employee", Variable: "employee.name"}, {Content: "0.00"}}},
			},
		},
		Style: BlockStyle{X: 10, Y: 20, Width: 300, Height: 120, FontSize: 11},
	}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Block
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	props, ok := got.Properties.(*TableProperties)
	if !ok {
		t.Fatalf("expected *TableProperties, got %T", got.Properties)
	}
	if len(props.Rows) != 2 || !props.Rows[0].IsHeader {
		t.Fatalf("rows not preserved: %+v", props.Rows)
	}
	if props.Rows[1].Cells[0].Variable != "employee.name" {
		t.Fatalf("cell variable lost: %+v", props.Rows[1].Cells[0])
	}
	if got.Style != src.Style {
		t.Fatalf("style mismatch: %+v != %+v", got.Style, src.Style)
	}
}

func TestBlockUnmarshalUnknownType(t *testing.T) {
	raw := `{"id":"b1","type":"video","properties":{},"style":{}}`
	var b Block
	err := json.Unmarshal([]byte(raw), &b)
	if err == nil {
		t.Fatal("expected error for unknown block type")
	}
	if !strings.Contains(err.Error(), "video") {
		t.Fatalf("error should name the bad type: %v", err)
	}
}

func TestBlockCloneIsDeep(t *testing.T) {
	inner := Block{
		ID:         "child",
		Type:       BlockTypeText,
		Properties: &TextProperties{Content: "hello"},
		Style:      BlockStyle{X: 5, Y: 5, Width: 60, Height: 30},
	}
	src := Block{
		ID:         "c1",
		Type:       BlockTypeContainer,
		Properties: &ContainerProperties{Children: []Block{inner}},
		Style:      BlockStyle{Width: 200, Height: 100},
	}

	cp := src.Clone()
	cpProps := cp.Properties.(*ContainerProperties)
	cpProps.Children[0].Style.X = 999
	cpProps.Children[0].Properties.(*TextProperties).Content = "changed"

	srcProps := src.Properties.(*ContainerProperties)
	if srcProps.Children[0].Style.X != 5 {
		t.Fatal("clone shares child geometry with original")
	}
	if srcProps.Children[0].Properties.(*TextProperties).Content != "hello" {
		t.Fatal("clone shares child properties with original")
	}
}

func TestPaperSizeOriented(t *testing.T) {
	w, h := PaperA4.Oriented(OrientationLandscape)
	if w != PaperA4.Height || h != PaperA4.Width {
		t.Fatalf("landscape should swap dimensions, got %v x %v", w, h)
	}
	w, h = PaperLetter.Oriented(OrientationPortrait)
	if w != 612 || h != 792 {
		t.Fatalf("portrait letter: got %v x %v", w, h)
	}
}
