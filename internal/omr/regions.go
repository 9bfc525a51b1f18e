package omr

import (
	"fmt"
	"image"

	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
)

// FieldRegion is the top-left corner of every bubble of one field: a single
// top edge shared by the row and one left edge per choice or digit.
type FieldRegion struct {
	Name  string `json:"name"`
	Top   int    `json:"top"`
	Lefts []int  `json:"lefts"`
}

// Windows returns the sampling rectangle of each bubble for a window of the
// given size.
func (f FieldRegion) Windows(width, height int) []image.Rectangle {
	rects := make([]image.Rectangle, len(f.Lefts))
	for i, left := range f.Lefts {
		rects[i] = image.Rect(left, f.Top, left+width, f.Top+height)
	}
	return rects
}

// Bounds returns the rectangle covering every bubble of the field.
func (f FieldRegion) Bounds(width, height int) image.Rectangle {
	var r image.Rectangle
	for i, w := range f.Windows(width, height) {
		if i == 0 {
			r = w
			continue
		}
		r = r.Union(w)
	}
	return r
}

// Regions holds the field regions of one sheet. Identity fields list their
// digit rows most significant first; Questions[i] is question i+1.
type Regions struct {
	Grade     []FieldRegion `json:"grade"`
	Class     []FieldRegion `json:"class"`
	Seat      []FieldRegion `json:"seat"`
	Questions []FieldRegion `json:"questions"`
}

// Field looks a region up by name ("grade.0", "class.1", "q17").
func (r *Regions) Field(name string) (FieldRegion, bool) {
	for _, group := range [][]FieldRegion{r.Grade, r.Class, r.Seat, r.Questions} {
		for _, f := range group {
			if f.Name == name {
				return f, true
			}
		}
	}
	return FieldRegion{}, false
}

// MapRegions derives every field region from a resolved grid.
//
// A bubble's top edge is its row anchor's y plus RowShift. Its left edge is
// its column anchor's x plus LeadingShift for identity digits and the first
// LeadingChoices choices of a question, TrailingShift for the rest.
//
// geo must have passed Validate; a grid whose axes do not match the
// geometry's anchor counts is rejected.
func MapRegions(grid *detection.Grid, geo FormGeometry) (*Regions, error) {
	if grid == nil {
		return nil, fmt.Errorf("map regions: nil grid")
	}
	if len(grid.Rows) != geo.RowAnchors || len(grid.Columns) != geo.ColumnAnchors {
		return nil, fmt.Errorf("map regions: grid is %d x %d, geometry expects %d x %d",
			len(grid.Rows), len(grid.Columns), geo.RowAnchors, geo.ColumnAnchors)
	}

	top := func(row int) int { return grid.Rows[row].Y + geo.RowShift }

	digits := func(name string, fields []DigitField) []FieldRegion {
		out := make([]FieldRegion, len(fields))
		for i, f := range fields {
			cols := f.Columns()
			lefts := make([]int, len(cols))
			for k, c := range cols {
				lefts[k] = grid.Columns[c].X + geo.LeadingShift
			}
			out[i] = FieldRegion{Name: fmt.Sprintf("%s.%d", name, i), Top: top(f.Row), Lefts: lefts}
		}
		return out
	}

	regions := &Regions{
		Grade:     digits("grade", geo.Identity.Grade),
		Class:     digits("class", geo.Identity.Class),
		Seat:      digits("seat", geo.Identity.Seat),
		Questions: make([]FieldRegion, 0, geo.QuestionCount()),
	}

	for _, b := range geo.Questions {
		for q := 0; q < b.Count; q++ {
			lefts := make([]int, geo.Choices)
			for c := range lefts {
				shift := geo.TrailingShift
				if c < geo.LeadingChoices {
					shift = geo.LeadingShift
				}
				lefts[c] = grid.Columns[b.FirstColumn+c].X + shift
			}
			regions.Questions = append(regions.Questions, FieldRegion{
				Name:  fmt.Sprintf("q%d", b.FirstQuestion+q),
				Top:   top(b.FirstRow + q),
				Lefts: lefts,
			})
		}
	}
	return regions, nil
}
