package omr

import (
	"image/color"
	"testing"

	"github.com/ironsheep/omr-sheet-mcp/internal/omr/omrtest"
)

func TestDrawGrid(t *testing.T) {
	img := omrtest.NewSheet().Image()
	r := newTestReader(t)

	grid, _, err := r.Resolve(img)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	out := DrawGrid(img, grid)

	a := grid.Rows[3]
	if got := out.NRGBAAt(a.X, a.Y); got != rowAnchorColor {
		t.Errorf("row anchor outline: got %v", got)
	}
	c := grid.Columns[5]
	if got := out.NRGBAAt(c.X, c.Y); got != columnAnchorColor {
		t.Errorf("column anchor outline: got %v", got)
	}
	// The source is untouched.
	if got := color.NRGBAModel.Convert(img.At(a.X+5, a.Y)).(color.NRGBA); got == rowAnchorColor {
		t.Error("DrawGrid modified its input")
	}
}

func TestDrawRegions(t *testing.T) {
	img := omrtest.NewSheet().Image()
	r := newTestReader(t)
	regions, err := r.MapImage(img)
	if err != nil {
		t.Fatalf("MapImage failed: %v", err)
	}

	green := color.NRGBA{G: 255, A: 255}
	out := DrawRegions(img, regions, r.Geometry(), green)

	w := regions.Questions[0].Windows(30, 24)[0]
	if got := out.NRGBAAt(w.Min.X, w.Min.Y); got != green {
		t.Errorf("q1 window corner: got %v, want green", got)
	}
	if got := out.NRGBAAt(w.Min.X+5, w.Min.Y+5); got == green {
		t.Error("only the outline should be drawn")
	}
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}
