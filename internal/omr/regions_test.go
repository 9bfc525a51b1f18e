package omr

import (
	"image"
	"testing"

	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
)

// testGrid builds a perfect grid: row i at y=100+40i, column j at x=80+50j.
func testGrid() *detection.Grid {
	g := &detection.Grid{AxisX: 20, AxisY: 20}
	for i := 0; i < 25; i++ {
		g.Rows = append(g.Rows, detection.Anchor{X: 20, Y: 100 + 40*i, Width: 20, Height: 20})
	}
	for j := 0; j < 11; j++ {
		g.Columns = append(g.Columns, detection.Anchor{X: 80 + 50*j, Y: 20, Width: 20, Height: 20})
	}
	return g
}

func TestMapRegions_DefaultLayout(t *testing.T) {
	regions, err := MapRegions(testGrid(), DefaultGeometry())
	if err != nil {
		t.Fatalf("MapRegions failed: %v", err)
	}

	if len(regions.Grade) != 1 || len(regions.Class) != 2 || len(regions.Seat) != 2 {
		t.Fatalf("identity rows: got grade=%d class=%d seat=%d",
			len(regions.Grade), len(regions.Class), len(regions.Seat))
	}
	if len(regions.Questions) != 40 {
		t.Fatalf("got %d questions, want 40", len(regions.Questions))
	}

	grade := regions.Grade[0]
	if grade.Top != 101 {
		t.Errorf("grade top: got %d, want 101", grade.Top)
	}
	if want := []int{129, 179, 229}; !equalInts(grade.Lefts, want) {
		t.Errorf("grade lefts: got %v, want %v", grade.Lefts, want)
	}

	seatUnits := regions.Seat[1]
	if seatUnits.Top != 100+40*4+1 || len(seatUnits.Lefts) != 10 {
		t.Errorf("seat units: got top=%d with %d lefts", seatUnits.Top, len(seatUnits.Lefts))
	}
	if seatUnits.Lefts[9] != 80+50*10-1 {
		t.Errorf("seat units last left: got %d", seatUnits.Lefts[9])
	}

	tests := []struct {
		q     int
		top   int
		lefts []int
	}{
		{1, 301, []int{79, 129, 179, 229, 279}},
		{20, 100 + 40*24 + 1, []int{79, 129, 179, 229, 279}},
		{21, 301, []int{379, 429, 479, 529, 579}},
		{40, 100 + 40*24 + 1, []int{379, 429, 479, 529, 579}},
	}
	for _, tt := range tests {
		f := regions.Questions[tt.q-1]
		if f.Top != tt.top || !equalInts(f.Lefts, tt.lefts) {
			t.Errorf("q%d: got top=%d lefts=%v, want top=%d lefts=%v", tt.q, f.Top, f.Lefts, tt.top, tt.lefts)
		}
	}
}

func TestMapRegions_LeadingAndTrailingShift(t *testing.T) {
	geo := DefaultGeometry()
	geo.LeadingShift = -3
	geo.TrailingShift = 4

	regions, err := MapRegions(testGrid(), geo)
	if err != nil {
		t.Fatalf("MapRegions failed: %v", err)
	}
	want := []int{77, 127, 177, 234, 284}
	if got := regions.Questions[0].Lefts; !equalInts(got, want) {
		t.Errorf("q1 lefts: got %v, want %v", got, want)
	}
	// Identity digits use the leading shift throughout.
	if got := regions.Class[0].Lefts[9]; got != 80+50*10-3 {
		t.Errorf("class tens last left: got %d", got)
	}
}

func TestMapRegions_RejectsWrongGrid(t *testing.T) {
	g := testGrid()
	g.Rows = g.Rows[:24]
	if _, err := MapRegions(g, DefaultGeometry()); err == nil {
		t.Error("expected error for a 24-row grid")
	}
	if _, err := MapRegions(nil, DefaultGeometry()); err == nil {
		t.Error("expected error for a nil grid")
	}
}

func TestRegions_Field(t *testing.T) {
	regions, err := MapRegions(testGrid(), DefaultGeometry())
	if err != nil {
		t.Fatalf("MapRegions failed: %v", err)
	}
	f, ok := regions.Field("q21")
	if !ok || f.Top != 301 {
		t.Errorf("Field(q21): got %+v, %v", f, ok)
	}
	if _, ok := regions.Field("class.1"); !ok {
		t.Error("Field(class.1) not found")
	}
	if _, ok := regions.Field("q41"); ok {
		t.Error("Field(q41) should not exist")
	}
}

func TestFieldRegion_Windows(t *testing.T) {
	f := FieldRegion{Top: 10, Lefts: []int{5, 50}}
	w := f.Windows(30, 24)
	if w[0] != image.Rect(5, 10, 35, 34) || w[1] != image.Rect(50, 10, 80, 34) {
		t.Errorf("Windows: got %v", w)
	}
	if b := f.Bounds(30, 24); b != image.Rect(5, 10, 80, 34) {
		t.Errorf("Bounds: got %v", b)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
