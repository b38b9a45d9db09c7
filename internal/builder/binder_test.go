package builder

import (
	"strings"
	"testing"

	"stencil/internal/domain"
)

func newTableSession(t *testing.T) (*Session, string) {
	t.Helper()
	s := NewSession("t1", "org1")
	b, ok := s.AddBlock(domain.BlockTypeTable, 0, 0, 300, 120)
	if !ok {
		t.Fatal("add table failed")
	}
	s.hist = newHistory()
	return s, b.ID
}

func TestBindVariableClearsLabelMarking(t *testing.T) {
	s, tableID := newTableSession(t)

	labelID, ok := s.MarkCellLabel(tableID, 1, 0, "")
	if !ok || labelID == "" {
		t.Fatal("mark label failed")
	}

	v := domain.Variable{Key: "employee.name", Label: "Employee Name"}
	if !s.BindCellVariable(tableID, 1, 0, v) {
		t.Fatal("bind failed")
	}

	cell, _ := s.Cell(tableID, 1, 0)
	if cell.Variable != "employee.name" {
		t.Fatalf("variable not bound: %+v", cell)
	}
	if cell.IsLabel || cell.LabelID != "" {
		t.Fatalf("binding must clear label marking: %+v", cell)
	}
	if cell.Content != "Employee Name" {
		t.Fatalf("content should show the variable label, got %q", cell.Content)
	}
}

func TestMarkLabelClearsVariableBinding(t *testing.T) {
	s, tableID := newTableSession(t)

	s.BindCellVariable(tableID, 1, 0, domain.Variable{Key: "pay.rate"})
	if _, ok := s.MarkCellLabel(tableID, 1, 0, "lbl-1"); !ok {
		t.Fatal("mark label failed")
	}

	cell, _ := s.Cell(tableID, 1, 0)
	if cell.Variable != "" {
		t.Fatalf("label marking must clear the variable, got %q", cell.Variable)
	}
	if !cell.IsLabel || cell.LabelID != "lbl-1" {
		t.Fatalf("label not applied: %+v", cell)
	}
}

func TestBindFallsBackToKeyWithoutLabel(t *testing.T) {
	s, tableID := newTableSession(t)

	s.BindCellVariable(tableID, 0, 1, domain.Variable{Key: "pay.net"})
	cell, _ := s.Cell(tableID, 0, 1)
	if cell.Content != "pay.net" {
		t.Fatalf("content should fall back to the key, got %q", cell.Content)
	}
}

func TestCellAddressingOutOfRangeIsNoOp(t *testing.T) {
	s, tableID := newTableSession(t)

	if s.SetCellContent(tableID, 9, 0, "x") {
		t.Fatal("row out of range should be a no-op")
	}
	if s.SetCellContent(tableID, 0, 9, "x") {
		t.Fatal("column out of range should be a no-op")
	}
	if s.SetCellContent("missing", 0, 0, "x") {
		t.Fatal("unknown block should be a no-op")
	}
	if s.HistoryLen() != 0 {
		t.Fatal("no-ops must not push history")
	}
}

func TestLabelVariableFamily(t *testing.T) {
	vars := LabelVariables("lbl-7", "Regular Hours")

	wantKeys := []string{
		"label.lbl-7",
		"label.lbl-7.hours",
		"label.lbl-7.rate",
		"label.lbl-7.amount",
		"label.lbl-7.total",
		"label.lbl-7.quantity",
		"label.lbl-7.days",
	}
	if len(vars) != len(wantKeys) {
		t.Fatalf("expected %d derived variables, got %d", len(wantKeys), len(vars))
	}
	for i, want := range wantKeys {
		if vars[i].Key != want {
			t.Fatalf("key %d: got %q, want %q", i, vars[i].Key, want)
		}
	}
	if vars[1].Label != "Regular Hours Hours" {
		t.Fatalf("derived labels should extend the cell text, got %q", vars[1].Label)
	}
}

func TestSessionVariablesIncludeLabelFamilies(t *testing.T) {
	s, tableID := newTableSession(t)
	s.AddVariable(domain.Variable{Key: "employee.name", Label: "Employee Name"})

	s.SetCellContent(tableID, 1, 0, "Overtime")
	s.MarkCellLabel(tableID, 1, 0, "lbl-ot")

	vars := s.Variables()
	var derived int
	for _, v := range vars {
		if strings.HasPrefix(v.Key, "label.lbl-ot") {
			derived++
		}
	}
	if derived != 7 {
		t.Fatalf("expected 7 derived variables for the label, got %d", derived)
	}
}

func TestSuggestVariablesRanking(t *testing.T) {
	catalog := []domain.Variable{
		{Key: "employee.name", Label: "Employee Name"},
		{Key: "employee.id", Label: "Employee ID"},
		{Key: "pay.gross", Label: "Gross Pay"},
		{Key: "pay.net", Label: "Net Pay"},
		{Key: "company.name", Label: "Company Name"},
		{Key: "employee.department", Label: "Department"},
	}

	got := SuggestVariables("Employee Name", catalog)
	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	if got[0].Variable.Key != "employee.name" || got[0].Score != 100 {
		t.Fatalf("exact match must rank first with score 100, got %+v", got[0])
	}

	got = SuggestVariables("employee", catalog)
	if got[0].Score != 80 {
		t.Fatalf("prefix match should score 80, got %d", got[0].Score)
	}

	got = SuggestVariables("name", catalog)
	for _, sg := range got {
		if sg.Score == 0 {
			t.Fatal("zero-score suggestions must be filtered out")
		}
	}

	if got := SuggestVariables("zzz unrelated", catalog); len(got) != 0 {
		t.Fatalf("no match should yield no suggestions, got %v", got)
	}
}

func TestSuggestVariablesCapsAtFive(t *testing.T) {
	var catalog []domain.Variable
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		catalog = append(catalog, domain.Variable{Key: "pay." + k, Label: "Pay " + k})
	}
	got := SuggestVariables("pay", catalog)
	if len(got) != 5 {
		t.Fatalf("suggestions must cap at five, got %d", len(got))
	}
}

func TestSuggestWordOverlap(t *testing.T) {
	catalog := []domain.Variable{
		{Key: "employee.first", Label: "First Name"},
	}
	got := SuggestVariables("name first", catalog)
	if len(got) != 1 {
		t.Fatalf("word overlap should match, got %v", got)
	}
	if got[0].Score <= 0 || got[0].Score > 40 {
		t.Fatalf("overlap score must sit in the 1-40 band, got %d", got[0].Score)
	}
}
