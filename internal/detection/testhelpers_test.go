package detection

import (
	"image"
	"image/color"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

const (
	testAnchorSize = 20
	testRowX       = 20
	testColumnY    = 20
)

// testRowY returns the top edge of row anchor i in the synthetic layout.
func testRowY(i int) int { return 100 + i*45 }

// testColumnX returns the left edge of column anchor j in the synthetic layout.
func testColumnX(j int) int { return 80 + j*60 }

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints r black.
func fillRect(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, color.Black)
		}
	}
}

// gridAnchors returns the anchor boxes of a rows x columns sheet: row anchors
// down the left margin and column anchors across the top.
func gridAnchors(rows, columns int) []image.Rectangle {
	rects := make([]image.Rectangle, 0, rows+columns)
	for i := 0; i < rows; i++ {
		rects = append(rects, image.Rect(testRowX, testRowY(i), testRowX+testAnchorSize, testRowY(i)+testAnchorSize))
	}
	for j := 0; j < columns; j++ {
		rects = append(rects, image.Rect(testColumnX(j), testColumnY, testColumnX(j)+testAnchorSize, testColumnY+testAnchorSize))
	}
	return rects
}

// createGridImage draws the given anchor boxes on a white sheet large enough
// for a 25 x 11 layout.
func createGridImage(rects []image.Rectangle) *image.RGBA {
	img := createTestImage(760, 1260, color.White)
	for _, r := range rects {
		fillRect(img, r)
	}
	return img
}

// anchorsFromRects converts boxes into an AnchorSet.
func anchorsFromRects(rects []image.Rectangle) AnchorSet {
	set := make(AnchorSet, len(rects))
	for i, r := range rects {
		set[i] = Anchor{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
	}
	return set
}

var testDetectorParams = DetectorParams{
	Threshold:       127,
	EpsilonFactor:   0.04,
	AspectTolerance: 0.2,
	MinAnchors:      36,
}

var testResolverParams = ResolverParams{Rows: 25, Columns: 11, Tolerance: 10}

// imagingGray converts a test image to the grayscale plane the detector reads.
func imagingGray(img image.Image) *image.Gray {
	return imaging.Grayscale(img)
}
