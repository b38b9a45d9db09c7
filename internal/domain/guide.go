package domain

type GuideOrientation string

const (
	GuideHorizontal GuideOrientation = "horizontal"
	GuideVertical   GuideOrientation = "vertical"
)

// Guide is a persistent ruler-dropped alignment line in canvas space.
// Guides are independent of blocks and serve only as snap targets.
type Guide struct {
	ID          string           `json:"id"`
	Orientation GuideOrientation `json:"orientation"`
	Position    float64          `json:"position"`
}
