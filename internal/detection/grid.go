package detection

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ResolverParams holds the expected grid shape and clustering tolerance.
type ResolverParams struct {
	// Rows is the number of anchors printed down the sheet's vertical axis.
	Rows int

	// Columns is the number of anchors printed along the horizontal axis.
	Columns int

	// Tolerance is the largest distance, in pixels, an anchor may sit from
	// the modal coordinate and still belong to that axis (inclusive).
	Tolerance int
}

// Grid is the sheet's logical axes: the row anchors down the side, ordered
// top to bottom, and the column anchors across the top, ordered left to right.
type Grid struct {
	Rows    []Anchor `json:"rows"`
	Columns []Anchor `json:"columns"`

	// AxisX is the modal left edge shared by the row anchors.
	AxisX int `json:"axis_x"`

	// AxisY is the modal top edge shared by the column anchors.
	AxisY int `json:"axis_y"`
}

// GridCardinalityError reports anchor clustering that did not produce the
// expected number of rows and columns.
type GridCardinalityError struct {
	Rows        int `json:"rows"`
	Columns     int `json:"columns"`
	WantRows    int `json:"want_rows"`
	WantColumns int `json:"want_columns"`
}

func (e *GridCardinalityError) Error() string {
	return fmt.Sprintf("anchor grid mismatch: got %d rows x %d columns, want %d x %d",
		e.Rows, e.Columns, e.WantRows, e.WantColumns)
}

// Kind returns the stable rejection identifier for presentation layers.
func (e *GridCardinalityError) Kind() string { return "grid_cardinality" }

// ResolveGrid splits anchors into the row axis and the column axis.
//
// Registration marks share a left edge (rows) or a top edge (columns) while
// stray candidates scatter, so the most frequent x and y coordinates locate
// the two axes:
//   - Columns: anchors with |y - mode(y)| <= Tolerance, sorted by x
//   - Rows: anchors with |x - mode(x)| <= Tolerance, sorted by y
//
// This tolerates moderate skew and noise without rectifying the image; a
// sheet photographed at a steep angle spreads the axis beyond the tolerance
// and is rejected rather than corrected.
//
// The counts must match p.Rows and p.Columns exactly, otherwise
// *GridCardinalityError is returned with the observed counts. Fewer than
// p.Rows+p.Columns anchors is reported as *InsufficientAnchorsError without
// clustering.
func ResolveGrid(anchors AnchorSet, p ResolverParams) (*Grid, error) {
	if need := p.Rows + p.Columns; len(anchors) < need {
		return nil, &InsufficientAnchorsError{Observed: len(anchors), Required: need}
	}

	xs := make([]int, len(anchors))
	ys := make([]int, len(anchors))
	for i, a := range anchors {
		xs[i] = a.X
		ys[i] = a.Y
	}
	modeX := mode(xs)
	modeY := mode(ys)

	rows := make([]Anchor, 0, p.Rows)
	columns := make([]Anchor, 0, p.Columns)
	for _, a := range anchors {
		if abs(a.X-modeX) <= p.Tolerance {
			rows = append(rows, a)
		}
		if abs(a.Y-modeY) <= p.Tolerance {
			columns = append(columns, a)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Y != rows[j].Y {
			return rows[i].Y < rows[j].Y
		}
		return rows[i].X < rows[j].X
	})
	sort.SliceStable(columns, func(i, j int) bool {
		if columns[i].X != columns[j].X {
			return columns[i].X < columns[j].X
		}
		return columns[i].Y < columns[j].Y
	})

	if len(rows) != p.Rows || len(columns) != p.Columns {
		return nil, &GridCardinalityError{
			Rows:        len(rows),
			Columns:     len(columns),
			WantRows:    p.Rows,
			WantColumns: p.Columns,
		}
	}

	return &Grid{Rows: rows, Columns: columns, AxisX: modeX, AxisY: modeY}, nil
}

// mode returns the most frequent value in values. Ties go to the smallest
// value so the result does not depend on input order.
func mode(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// GridDiagnostics summarizes how the detected axes deviate from an ideal,
// axis-aligned print. The values are informational; nothing in the reader
// adjusts coordinates from them.
type GridDiagnostics struct {
	// RowSkewDegrees is the row axis' angle from vertical, from a
	// least-squares fit of anchor x against y. Positive leans right going down.
	RowSkewDegrees float64 `json:"row_skew_degrees"`

	// ColumnSkewDegrees is the column axis' angle from horizontal, from a fit
	// of anchor y against x. Positive leans down going right.
	ColumnSkewDegrees float64 `json:"column_skew_degrees"`

	RowPitchMean      float64 `json:"row_pitch_mean"`
	RowPitchStdDev    float64 `json:"row_pitch_stddev"`
	ColumnPitchMean   float64 `json:"column_pitch_mean"`
	ColumnPitchStdDev float64 `json:"column_pitch_stddev"`
}

// Diagnostics computes skew and spacing statistics for g.
func (g *Grid) Diagnostics() GridDiagnostics {
	rowY, rowX := axisCoords(g.Rows, true)
	colX, colY := axisCoords(g.Columns, false)

	var d GridDiagnostics
	d.RowSkewDegrees = skewDegrees(rowY, rowX)
	d.ColumnSkewDegrees = skewDegrees(colX, colY)
	d.RowPitchMean, d.RowPitchStdDev = pitchStats(rowY)
	d.ColumnPitchMean, d.ColumnPitchStdDev = pitchStats(colX)
	return d
}

// axisCoords returns (along, across) coordinates of anchors: along the axis
// is y for rows and x for columns.
func axisCoords(anchors []Anchor, vertical bool) (along, across []float64) {
	along = make([]float64, len(anchors))
	across = make([]float64, len(anchors))
	for i, a := range anchors {
		if vertical {
			along[i], across[i] = float64(a.Y), float64(a.X)
		} else {
			along[i], across[i] = float64(a.X), float64(a.Y)
		}
	}
	return along, across
}

func skewDegrees(along, across []float64) float64 {
	if len(along) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(along, across, nil, false)
	return round2(math.Atan(slope) * 180 / math.Pi)
}

func pitchStats(along []float64) (mean, stddev float64) {
	if len(along) < 2 {
		return 0, 0
	}
	pitches := make([]float64, len(along)-1)
	for i := 1; i < len(along); i++ {
		pitches[i-1] = along[i] - along[i-1]
	}
	if len(pitches) == 1 {
		return round2(pitches[0]), 0
	}
	mean, stddev = stat.MeanStdDev(pitches, nil)
	return round2(mean), round2(stddev)
}

// round2 rounds to two decimals and maps non-finite values to zero so the
// diagnostics always marshal to JSON.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
