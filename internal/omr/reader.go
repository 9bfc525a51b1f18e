package omr

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// Reading is the outcome of one successful sheet read.
type Reading struct {
	Result *SheetResult

	// Annotated is a copy of the input with every filled bubble outlined.
	Annotated *image.NRGBA

	Anchors detection.AnchorSet
	Grid    *detection.Grid
	Regions *Regions
}

// Reader runs the whole pipeline for one form geometry: anchors, grid,
// regions, classification and extraction.
//
// A Reader holds only immutable configuration and may be used from many
// goroutines at once. Every Read allocates its own buffers.
type Reader struct {
	geo       FormGeometry
	extractor *Extractor
	color     color.NRGBA
	debug     bool
}

// ReaderOption configures a Reader at construction.
type ReaderOption func(*Reader)

// WithDebug enables a debug log line per read sheet.
func WithDebug(debug bool) ReaderOption {
	return func(r *Reader) { r.debug = debug }
}

// NewReader validates geo and prepares a reader for it.
func NewReader(geo FormGeometry, opts ...ReaderOption) (*Reader, error) {
	if err := geo.Validate(); err != nil {
		return nil, fmt.Errorf("invalid form geometry: %w", err)
	}
	alphabet, err := NewAnswerAlphabet(geo.Alphabet, geo.Choices)
	if err != nil {
		return nil, err
	}
	c, err := imaging.ParseHexColor(geo.AnnotationColor)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		geo:       geo,
		extractor: NewExtractor(geo.Identity, alphabet),
		color:     c,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Geometry returns the reader's form geometry.
func (r *Reader) Geometry() FormGeometry { return r.geo }

// ReadBytes decodes data and reads the sheet. Undecodable input fails with
// *imaging.DecodeError before any detection runs.
func (r *Reader) ReadBytes(data []byte) (*Reading, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return r.Read(img)
}

// Read runs the pipeline on a decoded image.
//
// Errors are *detection.InsufficientAnchorsError when too few anchor
// candidates are found and *detection.GridCardinalityError when the anchors
// do not cluster into the expected rows and columns. Neither is retried.
func (r *Reader) Read(img image.Image) (*Reading, error) {
	gray := imaging.Grayscale(img)

	grid, anchors, err := r.resolve(gray)
	if err != nil {
		return nil, err
	}

	regions, err := MapRegions(grid, r.geo)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(gray, r.geo)
	if err != nil {
		return nil, err
	}
	grade := classifier.ClassifyAll(regions.Grade)
	class := classifier.ClassifyAll(regions.Class)
	seat := classifier.ClassifyAll(regions.Seat)
	questions := classifier.ClassifyAll(regions.Questions)

	result, err := r.extractor.Extract(grade, class, seat, questions)
	if err != nil {
		return nil, err
	}

	annotated := imaging.Clone(img)
	for _, group := range [][]FieldMarks{grade, class, seat, questions} {
		for _, m := range group {
			for _, w := range m.Filled() {
				imaging.StrokeRect(annotated, w, r.color, r.geo.AnnotationThickness)
			}
		}
	}

	if r.debug {
		log.Printf("Read sheet: %d anchors, grade=%q class=%q seat=%q letters=%s",
			len(anchors), result.Grade.Value, result.Class.Value, result.Seat.Value, result.Letters)
	}

	return &Reading{
		Result:    result,
		Annotated: annotated,
		Anchors:   anchors,
		Grid:      grid,
		Regions:   regions,
	}, nil
}

// Detect runs anchor detection only. The candidates found are returned even
// when there are too few of them.
func (r *Reader) Detect(img image.Image) (detection.AnchorSet, error) {
	return detection.DetectAnchorsInImage(img, r.geo.DetectorParams())
}

// Resolve runs anchor detection and grid resolution.
func (r *Reader) Resolve(img image.Image) (*detection.Grid, detection.AnchorSet, error) {
	return r.resolve(imaging.Grayscale(img))
}

// MapImage runs detection, grid resolution and region mapping.
func (r *Reader) MapImage(img image.Image) (*Regions, error) {
	grid, _, err := r.Resolve(img)
	if err != nil {
		return nil, err
	}
	return MapRegions(grid, r.geo)
}

func (r *Reader) resolve(gray *image.Gray) (*detection.Grid, detection.AnchorSet, error) {
	anchors, err := detection.DetectAnchors(gray, r.geo.DetectorParams())
	if err != nil {
		return nil, anchors, err
	}
	grid, err := detection.ResolveGrid(anchors, r.geo.ResolverParams())
	if err != nil {
		return nil, anchors, err
	}
	return grid, anchors, nil
}
