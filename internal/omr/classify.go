package omr

import (
	"fmt"
	"image"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// FieldMarks is the classification of one field: a filled flag and the ink
// fraction for each bubble, in the region's order.
type FieldMarks struct {
	Name      string    `json:"name"`
	Marks     []bool    `json:"marks"`
	Fractions []float64 `json:"fractions"`

	windows []image.Rectangle
}

// Filled returns the sampling windows of the bubbles marked as filled.
func (m FieldMarks) Filled() []image.Rectangle {
	out := make([]image.Rectangle, 0, len(m.windows))
	for i, w := range m.windows {
		if m.Marks[i] {
			out = append(out, w)
		}
	}
	return out
}

// Classifier decides filled or empty for bubble windows on one image.
//
// The image is blurred with a 3x3 Gaussian and binarized with a mean-adaptive
// threshold once, when the classifier is built. Each window is then a pixel
// count: a bubble is filled when its ink fraction reaches the fill ratio.
// Pixels of a window that fall outside the image count as paper; the
// denominator is always the full window area.
type Classifier struct {
	ink       imaging.Mask
	width     int
	height    int
	fillRatio float64
}

// NewClassifier binarizes gray for mark sampling with the geometry's adaptive
// block size, offset, window size and fill ratio.
func NewClassifier(gray *image.Gray, geo FormGeometry) (*Classifier, error) {
	ink, err := imaging.AdaptiveInk(imaging.Smooth(gray), geo.AdaptiveBlock, geo.AdaptiveOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize marks: %w", err)
	}
	return newClassifier(ink, geo), nil
}

func newClassifier(ink imaging.Mask, geo FormGeometry) *Classifier {
	return &Classifier{
		ink:       ink,
		width:     geo.WindowWidth,
		height:    geo.WindowHeight,
		fillRatio: geo.FillRatio,
	}
}

// Fraction returns the share of ink pixels in the window whose top-left
// corner is (left, top).
func (c *Classifier) Fraction(left, top int) float64 {
	r := image.Rect(left, top, left+c.width, top+c.height)
	return float64(c.ink.CountInk(r)) / float64(c.width*c.height)
}

// Filled applies the fill rule. The ratio is inclusive.
func (c *Classifier) Filled(fraction float64) bool {
	return fraction >= c.fillRatio
}

// Classify samples every bubble of f.
func (c *Classifier) Classify(f FieldRegion) FieldMarks {
	m := FieldMarks{
		Name:      f.Name,
		Marks:     make([]bool, len(f.Lefts)),
		Fractions: make([]float64, len(f.Lefts)),
		windows:   f.Windows(c.width, c.height),
	}
	for i, left := range f.Lefts {
		frac := c.Fraction(left, f.Top)
		m.Fractions[i] = frac
		m.Marks[i] = c.Filled(frac)
	}
	return m
}

// ClassifyAll samples every field in order.
func (c *Classifier) ClassifyAll(fields []FieldRegion) []FieldMarks {
	out := make([]FieldMarks, len(fields))
	for i, f := range fields {
		out[i] = c.Classify(f)
	}
	return out
}
