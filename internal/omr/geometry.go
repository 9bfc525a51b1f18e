package omr

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// DigitField is one identity row: a run of bubbles, each standing for the
// label at the same position.
type DigitField struct {
	Row         int    `yaml:"row" json:"row"`
	FirstColumn int    `yaml:"first_column" json:"first_column"`
	Labels      string `yaml:"labels" json:"labels"`
}

// Columns returns the column anchor indices the field samples.
func (f DigitField) Columns() []int {
	n := utf8.RuneCountInString(f.Labels)
	cols := make([]int, n)
	for i := range cols {
		cols[i] = f.FirstColumn + i
	}
	return cols
}

// IdentityLayout places the grade, class and seat fields. Each value is read
// from one or more digit rows, most significant first.
type IdentityLayout struct {
	Grade []DigitField `yaml:"grade" json:"grade"`
	Class []DigitField `yaml:"class" json:"class"`
	Seat  []DigitField `yaml:"seat" json:"seat"`
}

// QuestionBlock is a run of consecutive questions printed one per row,
// starting at FirstRow, with their choices on consecutive columns starting
// at FirstColumn.
type QuestionBlock struct {
	FirstQuestion int `yaml:"first_question" json:"first_question"`
	Count         int `yaml:"count" json:"count"`
	FirstRow      int `yaml:"first_row" json:"first_row"`
	FirstColumn   int `yaml:"first_column" json:"first_column"`
}

// AlphabetConfig names the symbols used to render a question's marks.
type AlphabetConfig struct {
	Letters  string `yaml:"letters" json:"letters"`
	Blank    string `yaml:"blank" json:"blank"`
	Multiple string `yaml:"multiple" json:"multiple"`
}

// FormGeometry is the physical contract of one printed answer-sheet layout:
// anchor counts, detection constants, the empirical offsets between anchors
// and bubbles, and the mapping from anchor rows/columns to fields.
//
// The offsets are measured once against the printed form and never derived
// at runtime. Alternate layouts are supported by loading another geometry.
type FormGeometry struct {
	RowAnchors    int `yaml:"row_anchors" json:"row_anchors"`
	ColumnAnchors int `yaml:"column_anchors" json:"column_anchors"`

	// Anchor detection
	GlobalThreshold  uint8   `yaml:"global_threshold" json:"global_threshold"`
	PolygonEpsilon   float64 `yaml:"polygon_epsilon" json:"polygon_epsilon"`
	AspectTolerance  float64 `yaml:"aspect_tolerance" json:"aspect_tolerance"`
	ClusterTolerance int     `yaml:"cluster_tolerance" json:"cluster_tolerance"`

	// Mark binarization
	AdaptiveBlock  int `yaml:"adaptive_block" json:"adaptive_block"`
	AdaptiveOffset int `yaml:"adaptive_offset" json:"adaptive_offset"`

	// RowShift is added to a row anchor's top edge to get the bubble top.
	RowShift int `yaml:"row_shift" json:"row_shift"`

	// LeadingShift is added to a column anchor's left edge for the first
	// LeadingChoices choices of a question and for every identity digit;
	// TrailingShift applies to the remaining choices.
	LeadingShift   int `yaml:"leading_shift" json:"leading_shift"`
	TrailingShift  int `yaml:"trailing_shift" json:"trailing_shift"`
	LeadingChoices int `yaml:"leading_choices" json:"leading_choices"`

	Choices      int     `yaml:"choices" json:"choices"`
	WindowWidth  int     `yaml:"window_width" json:"window_width"`
	WindowHeight int     `yaml:"window_height" json:"window_height"`
	FillRatio    float64 `yaml:"fill_ratio" json:"fill_ratio"`

	AnnotationColor     string `yaml:"annotation_color" json:"annotation_color"`
	AnnotationThickness int    `yaml:"annotation_thickness" json:"annotation_thickness"`

	Identity  IdentityLayout  `yaml:"identity" json:"identity"`
	Questions []QuestionBlock `yaml:"questions" json:"questions"`
	Alphabet  AlphabetConfig  `yaml:"alphabet" json:"alphabet"`
}

const decimalDigits = "0123456789"

// DefaultGeometry returns the layout of the standard 40-question sheet:
// 25 row anchors down the left margin, 11 column anchors across the top.
//
//	row 0      grade (columns 1-3)
//	rows 1-2   class tens, class units (columns 1-10)
//	rows 3-4   seat tens, seat units (columns 1-10)
//	rows 5-24  questions 1-20 (columns 0-4) and 21-40 (columns 6-10)
func DefaultGeometry() FormGeometry {
	return FormGeometry{
		RowAnchors:          25,
		ColumnAnchors:       11,
		GlobalThreshold:     127,
		PolygonEpsilon:      0.04,
		AspectTolerance:     0.2,
		ClusterTolerance:    10,
		AdaptiveBlock:       51,
		AdaptiveOffset:      2,
		RowShift:            1,
		LeadingShift:        -1,
		TrailingShift:       -1,
		LeadingChoices:      3,
		Choices:             5,
		WindowWidth:         30,
		WindowHeight:        24,
		FillRatio:           0.5,
		AnnotationColor:     "#FF0000",
		AnnotationThickness: 2,
		Identity: IdentityLayout{
			Grade: []DigitField{{Row: 0, FirstColumn: 1, Labels: "123"}},
			Class: []DigitField{
				{Row: 1, FirstColumn: 1, Labels: decimalDigits},
				{Row: 2, FirstColumn: 1, Labels: decimalDigits},
			},
			Seat: []DigitField{
				{Row: 3, FirstColumn: 1, Labels: decimalDigits},
				{Row: 4, FirstColumn: 1, Labels: decimalDigits},
			},
		},
		Questions: []QuestionBlock{
			{FirstQuestion: 1, Count: 20, FirstRow: 5, FirstColumn: 0},
			{FirstQuestion: 21, Count: 20, FirstRow: 5, FirstColumn: 6},
		},
		Alphabet: AlphabetConfig{Letters: "ABCDE", Blank: "=", Multiple: "*"},
	}
}

// LoadGeometry reads a YAML file over DefaultGeometry and validates the
// result. Keys missing from the file keep their default values.
func LoadGeometry(path string) (FormGeometry, error) {
	geo := DefaultGeometry()

	data, err := os.ReadFile(path)
	if err != nil {
		return geo, fmt.Errorf("failed to read form geometry: %w", err)
	}
	if err := yaml.Unmarshal(data, &geo); err != nil {
		return geo, fmt.Errorf("failed to parse form geometry %s: %w", path, err)
	}
	if err := geo.Validate(); err != nil {
		return geo, fmt.Errorf("invalid form geometry %s: %w", path, err)
	}
	return geo, nil
}

// QuestionCount returns the total number of questions across all blocks.
func (g FormGeometry) QuestionCount() int {
	n := 0
	for _, b := range g.Questions {
		n += b.Count
	}
	return n
}

// DetectorParams returns the anchor detection constants.
func (g FormGeometry) DetectorParams() detection.DetectorParams {
	return detection.DetectorParams{
		Threshold:       g.GlobalThreshold,
		EpsilonFactor:   g.PolygonEpsilon,
		AspectTolerance: g.AspectTolerance,
		MinAnchors:      g.RowAnchors + g.ColumnAnchors,
	}
}

// ResolverParams returns the grid clustering constants.
func (g FormGeometry) ResolverParams() detection.ResolverParams {
	return detection.ResolverParams{
		Rows:      g.RowAnchors,
		Columns:   g.ColumnAnchors,
		Tolerance: g.ClusterTolerance,
	}
}

// Validate checks that every field references anchors that exist, that the
// question blocks number questions 1..N without gaps, and that the detection
// and classification constants are usable. All problems are reported
// together.
func (g FormGeometry) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if g.RowAnchors < 1 || g.ColumnAnchors < 1 {
		fail("anchor counts must be positive, got %d rows x %d columns", g.RowAnchors, g.ColumnAnchors)
	}
	if g.GlobalThreshold == 255 {
		fail("global_threshold must be below 255")
	}
	if g.PolygonEpsilon <= 0 {
		fail("polygon_epsilon must be positive")
	}
	if g.AspectTolerance <= 0 {
		fail("aspect_tolerance must be positive")
	}
	if g.ClusterTolerance < 0 {
		fail("cluster_tolerance must not be negative")
	}
	if g.AdaptiveBlock < 3 || g.AdaptiveBlock%2 == 0 {
		fail("adaptive_block must be odd and >= 3, got %d", g.AdaptiveBlock)
	}
	if g.Choices < 1 || g.Choices > maxChoices {
		fail("choices must be between 1 and %d, got %d", maxChoices, g.Choices)
	}
	if g.LeadingChoices < 0 || g.LeadingChoices > g.Choices {
		fail("leading_choices must be between 0 and choices, got %d", g.LeadingChoices)
	}
	if g.WindowWidth < 1 || g.WindowHeight < 1 {
		fail("window must be at least 1x1, got %dx%d", g.WindowWidth, g.WindowHeight)
	}
	if g.FillRatio <= 0 || g.FillRatio > 1 {
		fail("fill_ratio must be in (0, 1], got %v", g.FillRatio)
	}
	if _, err := imaging.ParseHexColor(g.AnnotationColor); err != nil {
		fail("annotation_color: %v", err)
	}

	checkRow := func(what string, row int) {
		if row < 0 || row >= g.RowAnchors {
			fail("%s: row %d outside 0..%d", what, row, g.RowAnchors-1)
		}
	}
	checkColumns := func(what string, first, count int) {
		if first < 0 || first+count > g.ColumnAnchors {
			fail("%s: columns %d..%d outside 0..%d", what, first, first+count-1, g.ColumnAnchors-1)
		}
	}

	identity := []struct {
		name   string
		fields []DigitField
	}{
		{"grade", g.Identity.Grade},
		{"class", g.Identity.Class},
		{"seat", g.Identity.Seat},
	}
	for _, id := range identity {
		for i, f := range id.fields {
			what := fmt.Sprintf("%s digit %d", id.name, i)
			n := utf8.RuneCountInString(f.Labels)
			if n == 0 {
				fail("%s: labels must not be empty", what)
			}
			checkRow(what, f.Row)
			checkColumns(what, f.FirstColumn, n)
		}
	}

	if len(g.Questions) == 0 {
		fail("at least one question block is required")
	}
	next := 1
	for i, b := range g.Questions {
		what := fmt.Sprintf("question block %d", i)
		if b.FirstQuestion != next {
			fail("%s: starts at question %d, want %d", what, b.FirstQuestion, next)
		}
		if b.Count < 1 {
			fail("%s: count must be positive", what)
			continue
		}
		checkRow(what, b.FirstRow)
		checkRow(what, b.FirstRow+b.Count-1)
		checkColumns(what, b.FirstColumn, g.Choices)
		next = b.FirstQuestion + b.Count
	}

	if _, err := NewAnswerAlphabet(g.Alphabet, g.Choices); err != nil {
		fail("alphabet: %v", err)
	}

	return errors.Join(errs...)
}
