package detection

import (
	"image"
	"math"
	"reflect"
	"testing"
)

func TestArcLength(t *testing.T) {
	square := []image.Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	if got := arcLength(square); got != 40 {
		t.Errorf("square perimeter: got %v, want 40", got)
	}

	if got := arcLength([]image.Point{{3, 3}}); got != 0 {
		t.Errorf("single point: got %v, want 0", got)
	}

	// Closed two-point chain goes there and back.
	if got := arcLength([]image.Point{{0, 0}, {3, 4}}); got != 10 {
		t.Errorf("segment: got %v, want 10", got)
	}
}

func TestBoundingRect(t *testing.T) {
	pts := []image.Point{{4, 9}, {2, 3}, {7, 5}}
	if got := boundingRect(pts); got != image.Rect(2, 3, 8, 10) {
		t.Errorf("got %v, want (2,3)-(8,10)", got)
	}
	if got := boundingRect(nil); !got.Empty() {
		t.Errorf("empty input: got %v", got)
	}
}

func TestApproxPolygon_KeepsCorners(t *testing.T) {
	// Square outline sampled every pixel, as an uncompressed chain would be.
	var pts []image.Point
	for y := 0; y < 20; y++ {
		pts = append(pts, image.Pt(0, y))
	}
	for x := 0; x < 20; x++ {
		pts = append(pts, image.Pt(x, 19))
	}
	for y := 19; y > 0; y-- {
		pts = append(pts, image.Pt(19, y))
	}
	for x := 19; x > 0; x-- {
		pts = append(pts, image.Pt(x, 0))
	}

	got := approxPolygon(pts, 0.04*arcLength(pts))
	want := []image.Point{{0, 0}, {0, 19}, {19, 19}, {19, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestApproxPolygon_Triangle(t *testing.T) {
	pts := []image.Point{{0, 0}, {0, 30}, {30, 30}}
	got := approxPolygon(pts, 0.04*arcLength(pts))
	if len(got) != 3 {
		t.Errorf("triangle: got %d vertices (%v), want 3", len(got), got)
	}
}

func TestApproxPolygon_DropsSmallDeviations(t *testing.T) {
	// A square with a 1px notch on one side still simplifies to 4 corners.
	pts := []image.Point{{0, 0}, {0, 40}, {20, 40}, {21, 41}, {22, 40}, {40, 40}, {40, 0}}
	got := approxPolygon(pts, 0.04*arcLength(pts))
	if len(got) != 4 {
		t.Errorf("notched square: got %d vertices (%v), want 4", len(got), got)
	}
}

func TestSegmentDistance(t *testing.T) {
	if got := segmentDistance(image.Pt(5, 5), image.Pt(0, 0), image.Pt(10, 0)); got != 5 {
		t.Errorf("perpendicular distance: got %v, want 5", got)
	}
	if got := segmentDistance(image.Pt(3, 4), image.Pt(0, 0), image.Pt(0, 0)); math.Abs(got-5) > 1e-9 {
		t.Errorf("degenerate segment: got %v, want 5", got)
	}
}
