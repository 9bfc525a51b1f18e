package omr

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

var (
	rowAnchorColor    = color.NRGBA{R: 0, G: 102, B: 255, A: 255}
	columnAnchorColor = color.NRGBA{R: 255, G: 136, B: 0, A: 255}
	labelBackground   = color.NRGBA{R: 255, G: 255, B: 255, A: 220}
)

// DrawGrid returns a copy of img with every resolved anchor outlined and
// numbered: row anchors in blue with their index to the right, column
// anchors in orange with their index below.
func DrawGrid(img image.Image, grid *detection.Grid) *image.NRGBA {
	out := imaging.Clone(img)
	for i, a := range grid.Rows {
		imaging.StrokeRect(out, a.Rect(), rowAnchorColor, 2)
		imaging.DrawLabel(out, a.X+a.Width+3, a.Y, strconv.Itoa(i), rowAnchorColor, labelBackground)
	}
	for j, a := range grid.Columns {
		imaging.StrokeRect(out, a.Rect(), columnAnchorColor, 2)
		imaging.DrawLabel(out, a.X, a.Y+a.Height+3, strconv.Itoa(j), columnAnchorColor, labelBackground)
	}
	return out
}

// DrawRegions returns a copy of img with every sampling window of regions
// outlined, filled or not.
func DrawRegions(img image.Image, regions *Regions, geo FormGeometry, c color.Color) *image.NRGBA {
	out := imaging.Clone(img)
	for _, group := range [][]FieldRegion{regions.Grade, regions.Class, regions.Seat, regions.Questions} {
		for _, f := range group {
			for _, w := range f.Windows(geo.WindowWidth, geo.WindowHeight) {
				imaging.StrokeRect(out, w, c, 1)
			}
		}
	}
	return out
}
