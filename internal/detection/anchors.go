package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// Anchor is one detected registration square, as its bounding box in
// origin-based pixel coordinates.
type Anchor struct {
	X      int `json:"x"`      // Left edge
	Y      int `json:"y"`      // Top edge
	Width  int `json:"width"`  // Horizontal extent in pixels
	Height int `json:"height"` // Vertical extent in pixels
}

// Rect returns the anchor's bounding box.
func (a Anchor) Rect() image.Rectangle {
	return image.Rect(a.X, a.Y, a.X+a.Width, a.Y+a.Height)
}

// AspectRatio returns Width / Height.
func (a Anchor) AspectRatio() float64 {
	if a.Height == 0 {
		return math.Inf(1)
	}
	return float64(a.Width) / float64(a.Height)
}

// AnchorSet is every anchor candidate detected on one image, ordered by
// top edge, then left edge.
type AnchorSet []Anchor

// DetectorParams holds the fixed constants of anchor detection.
type DetectorParams struct {
	// Threshold is the global cutoff; gray values at or below it are ink.
	Threshold uint8

	// EpsilonFactor scales a contour's perimeter into the polygon
	// approximation tolerance.
	EpsilonFactor float64

	// AspectTolerance bounds |width/height - 1| (exclusive) for a candidate
	// to count as square.
	AspectTolerance float64

	// MinAnchors is the fewest candidates a resolvable sheet can have.
	MinAnchors int
}

// InsufficientAnchorsError reports an image with too few anchor candidates to
// attempt grid resolution.
type InsufficientAnchorsError struct {
	Observed int `json:"observed"`
	Required int `json:"required"`
}

func (e *InsufficientAnchorsError) Error() string {
	return fmt.Sprintf("insufficient anchors: found %d, need at least %d", e.Observed, e.Required)
}

// Kind returns the stable rejection identifier for presentation layers.
func (e *InsufficientAnchorsError) Kind() string { return "insufficient_anchors" }

// FindAnchors returns every near-square quadrilateral blob in gray, without
// enforcing a minimum count.
//
// # Algorithm
//
//  1. Binarize with the inverted global threshold (dark print is foreground)
//  2. Extract the external contour of each blob
//  3. Approximate each contour by a polygon with tolerance
//     EpsilonFactor x perimeter
//  4. Keep 4-vertex polygons whose bounding box satisfies
//     |w/h - 1| < AspectTolerance
func FindAnchors(gray *image.Gray, p DetectorParams) (AnchorSet, error) {
	rects, err := quadCandidates(gray, p)
	if err != nil {
		return nil, err
	}

	anchors := make(AnchorSet, 0, len(rects))
	for _, r := range rects {
		a := Anchor{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
		if math.Abs(a.AspectRatio()-1.0) >= p.AspectTolerance {
			continue
		}
		anchors = append(anchors, a)
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		a, b := anchors[i], anchors[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		return a.Height < b.Height
	})
	return anchors, nil
}

// DetectAnchors runs FindAnchors and rejects the image with
// *InsufficientAnchorsError when fewer than p.MinAnchors candidates are found.
func DetectAnchors(gray *image.Gray, p DetectorParams) (AnchorSet, error) {
	anchors, err := FindAnchors(gray, p)
	if err != nil {
		return nil, err
	}
	if len(anchors) < p.MinAnchors {
		return anchors, &InsufficientAnchorsError{Observed: len(anchors), Required: p.MinAnchors}
	}
	return anchors, nil
}

// DetectAnchorsInImage converts img to grayscale and calls DetectAnchors.
func DetectAnchorsInImage(img image.Image, p DetectorParams) (AnchorSet, error) {
	return DetectAnchors(imaging.Grayscale(img), p)
}
