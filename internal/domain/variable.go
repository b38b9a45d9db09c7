package domain

// Variable is a named placeholder bound to a table cell and resolved against
// a data record at render time. Keys are dot-delimited paths into the record,
// e.g. "employee.name"; the placeholder literal is "{{employee.name}}".
type Variable struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
	Sample   string `json:"sample,omitempty"`
}

// Placeholder returns the literal placeholder syntax for the variable.
func (v Variable) Placeholder() string {
	return "{{" + v.Key + "}}"
}

// DisplayLabel is the text shown in a cell bound to this variable: the label
// when present, the key otherwise.
func (v Variable) DisplayLabel() string {
	if v.Label != "" {
		return v.Label
	}
	return v.Key
}
