package domain

// PaperSize is a named page size in PostScript points (1" = 72pt).
type PaperSize struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	PaperA4     = PaperSize{Name: "A4", Width: 595.28, Height: 841.89}     // 210mm x 297mm
	PaperLetter = PaperSize{Name: "Letter", Width: 612, Height: 792}       // 8.5" x 11"
	PaperLegal  = PaperSize{Name: "Legal", Width: 612, Height: 1008}       // 8.5" x 14"
)

// PaperSizeByName resolves a paper size by its name, case-sensitive.
func PaperSizeByName(name string) (PaperSize, bool) {
	switch name {
	case PaperA4.Name:
		return PaperA4, true
	case PaperLetter.Name:
		return PaperLetter, true
	case PaperLegal.Name:
		return PaperLegal, true
	}
	return PaperSize{}, false
}

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Oriented returns the paper dimensions with width/height swapped for
// landscape orientation.
func (p PaperSize) Oriented(o Orientation) (width, height float64) {
	if o == OrientationLandscape {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}
