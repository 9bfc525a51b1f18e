package detection

import (
	"image"
	"math"
)

// arcLength returns the perimeter of the closed polygon pts.
func arcLength(pts []image.Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 0; i < n; i++ {
		length += distance(pts[i], pts[(i+1)%n])
	}
	return length
}

// boundingRect returns the smallest rectangle covering every pixel in pts.
// Max is exclusive, so a single pixel has width and height 1.
func boundingRect(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// approxPolygon simplifies the closed polygon pts with Douglas-Peucker at
// tolerance epsilon.
//
// The ring is cut at pts[0] and at the vertex farthest from it; each half is
// simplified as an open polyline and the halves are rejoined. A final check
// drops pts[0] itself when it lies within epsilon of the chord between its
// neighbours.
func approxPolygon(pts []image.Point, epsilon float64) []image.Point {
	n := len(pts)
	if n <= 2 {
		return append([]image.Point(nil), pts...)
	}

	far, best := 0, -1.0
	for i, p := range pts {
		if d := distance(p, pts[0]); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return []image.Point{pts[0]}
	}

	first := douglasPeucker(pts[:far+1], epsilon)
	tail := make([]image.Point, 0, n-far+1)
	tail = append(tail, pts[far:]...)
	tail = append(tail, pts[0])
	second := douglasPeucker(tail, epsilon)

	out := make([]image.Point, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)

	if len(out) > 3 && segmentDistance(out[0], out[len(out)-1], out[1]) <= epsilon {
		out = out[1:]
	}
	return out
}

// douglasPeucker simplifies an open polyline, always keeping both endpoints.
func douglasPeucker(pts []image.Point, epsilon float64) []image.Point {
	n := len(pts)
	if n <= 2 {
		return append([]image.Point(nil), pts...)
	}

	idx, maxDist := 0, -1.0
	for i := 1; i < n-1; i++ {
		if d := segmentDistance(pts[i], pts[0], pts[n-1]); d > maxDist {
			idx, maxDist = i, d
		}
	}
	if maxDist <= epsilon {
		return []image.Point{pts[0], pts[n-1]}
	}

	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// segmentDistance returns the distance from p to the line through a and b,
// or to a when a and b coincide.
func segmentDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return distance(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / length
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
