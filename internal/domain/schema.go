package domain

type TemplateType string

const (
	TemplateTypePayroll TemplateType = "PAYROLL"
	TemplateTypeGeneral TemplateType = "GENERAL"
)

// GlobalStyles are the template-wide style defaults applied to blocks that
// don't override them.
type GlobalStyles struct {
	FontFamily      string  `json:"fontFamily"`
	FontSize        float64 `json:"fontSize"`
	PrimaryColor    string  `json:"primaryColor"`
	SecondaryColor  string  `json:"secondaryColor"`
	AccentColor     string  `json:"accentColor,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
}

// DefaultGlobalStyles returns the styles applied to a fresh template.
func DefaultGlobalStyles() GlobalStyles {
	return GlobalStyles{
		FontFamily:     "Helvetica",
		FontSize:       12,
		PrimaryColor:   "#1a1a2e",
		SecondaryColor: "#4a4a68",
	}
}

// TemplateSchema is the persisted root of a template and the only contract
// shared with downstream collaborators (save endpoint, PDF renderer, batch
// sender). Its JSON shape must stay stable.
type TemplateSchema struct {
	Blocks       []Block      `json:"blocks"`
	Variables    []Variable   `json:"variables"`
	Guides       []Guide      `json:"guides"`
	GlobalStyles GlobalStyles `json:"globalStyles"`
	TemplateType TemplateType `json:"templateType,omitempty"`
}

// Clone deep-copies the schema so callers can hold it across later edits.
func (s TemplateSchema) Clone() TemplateSchema {
	out := s
	out.Blocks = CloneBlocks(s.Blocks)
	out.Variables = append([]Variable(nil), s.Variables...)
	out.Guides = append([]Guide(nil), s.Guides...)
	return out
}
