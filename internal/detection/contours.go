//go:build !gocv

package detection

import (
	"image"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// Backend names the contour implementation compiled into this binary.
const Backend = "native"

// quadCandidates binarizes gray with the inverted global threshold and returns
// the bounding boxes of every external contour whose polygon approximation
// has exactly four vertices.
func quadCandidates(gray *image.Gray, p DetectorParams) ([]image.Rectangle, error) {
	mask, err := imaging.GlobalInk(gray, p.Threshold)
	if err != nil {
		return nil, err
	}

	rects := make([]image.Rectangle, 0)
	for _, contour := range externalContours(mask) {
		chain := compressChain(contour)
		approx := approxPolygon(chain, p.EpsilonFactor*arcLength(chain))
		if len(approx) != 4 {
			continue
		}
		rects = append(rects, boundingRect(approx))
	}
	return rects, nil
}

// chainDirs lists the 8 neighbour offsets clockwise (y grows downward),
// starting east.
var chainDirs = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// dirIndex returns the chainDirs index of the unit step from a to b.
func dirIndex(a, b image.Point) int {
	d := b.Sub(a)
	for i, s := range chainDirs {
		if s == d {
			return i
		}
	}
	return -1
}

// externalContours returns the outer border of every 8-connected ink blob
// that is not enclosed by another blob.
//
// A blob counts as external when one of its pixels touches, 4-connected, the
// background region that reaches the image edge. Blobs sitting inside the
// hole of another blob (a mark drawn inside a printed box, say) are skipped.
// Each border is traced from the blob's first pixel in raster order, so the
// output order is deterministic.
func externalContours(mask imaging.Mask) [][]image.Point {
	width, height := mask.Width(), mask.Height()
	if width == 0 || height == 0 {
		return nil
	}

	outside := outerBackground(mask)
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]image.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			if floodFill(mask, visited, outside, x, y) {
				contours = append(contours, traceBorder(mask, image.Pt(x, y)))
			}
		}
	}
	return contours
}

// outerBackground marks the paper pixels reachable from the image edge
// through 4-connected paper.
func outerBackground(mask imaging.Mask) [][]bool {
	width, height := mask.Width(), mask.Height()
	outside := make([][]bool, height)
	for y := 0; y < height; y++ {
		outside[y] = make([]bool, width)
	}

	stack := make([]image.Point, 0, 2*(width+height))
	push := func(x, y int) {
		if x < 0 || x >= width || y < 0 || y >= height {
			return
		}
		if mask[y][x] || outside[y][x] {
			return
		}
		outside[y][x] = true
		stack = append(stack, image.Pt(x, y))
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outside
}

// floodFill marks the 8-connected ink blob containing (startX, startY) as
// visited and reports whether it borders the outer background or the image
// edge.
//
// Uses a stack-based approach (not recursive) so large blobs cannot overflow
// the goroutine stack.
func floodFill(mask imaging.Mask, visited, outside [][]bool, startX, startY int) bool {
	width, height := mask.Width(), mask.Height()
	external := false
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true

		if !external {
			for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := p.X+d.X, p.Y+d.Y
				if nx < 0 || nx >= width || ny < 0 || ny >= height || outside[ny][nx] {
					external = true
					break
				}
			}
		}

		for _, d := range chainDirs {
			stack = append(stack, p.Add(d))
		}
	}
	return external
}

// traceBorder follows the outer border of the blob whose raster-first pixel
// is start (its west, north-west, north and north-east neighbours are paper).
//
// This is the outer-border step of Suzuki-Abe border following: find the last
// border pixel by turning clockwise from the west, then walk counter-clockwise
// until the first step repeats.
func traceBorder(mask imaging.Mask, start image.Point) []image.Point {
	ink := func(p image.Point) bool { return mask.At(p.X, p.Y) }

	var last image.Point
	found := false
	for k := 0; k < 8; k++ {
		cand := start.Add(chainDirs[(4+k)%8])
		if ink(cand) {
			last, found = cand, true
			break
		}
	}
	if !found {
		return []image.Point{start}
	}

	border := []image.Point{start}
	prev, cur := last, start
	// Every border pixel is entered at most 4 times; the cap only guards
	// against a malformed mask.
	limit := 4*mask.Width()*mask.Height() + 8
	for i := 0; i < limit; i++ {
		d := dirIndex(cur, prev)
		next := cur
		for k := 1; k <= 8; k++ {
			cand := cur.Add(chainDirs[(d-k+16)%8])
			if ink(cand) {
				next = cand
				break
			}
		}
		if next == start && cur == last {
			break
		}
		border = append(border, next)
		prev, cur = cur, next
	}
	return border
}

// compressChain drops every point of a closed chain that continues in the same
// direction as the step before it, leaving only the turning points.
func compressChain(pts []image.Point) []image.Point {
	n := len(pts)
	if n <= 2 {
		return append([]image.Point(nil), pts...)
	}
	out := make([]image.Point, 0, n)
	for i, p := range pts {
		prev := pts[(i-1+n)%n]
		next := pts[(i+1)%n]
		if p.Sub(prev) != next.Sub(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		// A straight closed chain can only be a degenerate back-and-forth line.
		return []image.Point{pts[0], pts[n/2]}
	}
	return out
}
