// Package omrtest renders synthetic answer sheets for tests.
//
// A Sheet draws the registration anchors of the standard 25 x 11 form on a
// white page and fills bubbles at the positions the default form geometry
// samples, so a read of the rendered image is exact.
package omrtest

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// Layout places anchors and bubbles on a synthetic page.
type Layout struct {
	Width, Height int

	Rows, Columns int
	AnchorSize    int

	// Row anchors sit at (RowX, FirstRowY + i*RowPitch).
	RowX, FirstRowY, RowPitch int

	// Column anchors sit at (FirstColumnX + j*ColumnPitch, ColumnY).
	ColumnY, FirstColumnX, ColumnPitch int

	// A bubble's window starts at its column anchor's x + ColumnShift and its
	// row anchor's y + RowShift.
	RowShift, ColumnShift     int
	WindowWidth, WindowHeight int
}

// DefaultLayout matches the default form geometry.
func DefaultLayout() Layout {
	return Layout{
		Width:        640,
		Height:       1120,
		Rows:         25,
		Columns:      11,
		AnchorSize:   20,
		RowX:         20,
		FirstRowY:    100,
		RowPitch:     40,
		ColumnY:      20,
		FirstColumnX: 80,
		ColumnPitch:  50,
		RowShift:     1,
		ColumnShift:  -1,
		WindowWidth:  30,
		WindowHeight: 24,
	}
}

// RowY returns the top edge of row anchor i.
func (l Layout) RowY(i int) int { return l.FirstRowY + i*l.RowPitch }

// ColumnX returns the left edge of column anchor j.
func (l Layout) ColumnX(j int) int { return l.FirstColumnX + j*l.ColumnPitch }

// Window returns the sampling window of the bubble on row i, column j.
func (l Layout) Window(i, j int) image.Rectangle {
	x := l.ColumnX(j) + l.ColumnShift
	y := l.RowY(i) + l.RowShift
	return image.Rect(x, y, x+l.WindowWidth, y+l.WindowHeight)
}

// Sheet is a synthetic answer sheet under construction.
type Sheet struct {
	Layout

	// Paper is the page colour; Ink is used for anchors and marks.
	Paper, Ink color.Gray

	// Shade darkens the page from left to right by up to Shade levels,
	// imitating uneven lighting.
	Shade uint8

	marks   []image.Rectangle
	extra   []image.Rectangle
	dropped map[image.Rectangle]bool
}

// NewSheet returns a blank sheet with the default layout.
func NewSheet() *Sheet {
	return &Sheet{
		Layout:  DefaultLayout(),
		Paper:   color.Gray{Y: 255},
		Ink:     color.Gray{Y: 30},
		dropped: make(map[image.Rectangle]bool),
	}
}

// Fill marks the bubble on row i, column j.
func (s *Sheet) Fill(i, j int) *Sheet {
	s.marks = append(s.marks, s.Window(i, j))
	return s
}

// FillRect inks an arbitrary rectangle inside the page.
func (s *Sheet) FillRect(r image.Rectangle) *Sheet {
	s.marks = append(s.marks, r)
	return s
}

// Answer marks choice (0-based) of question q (1-based) in the standard
// two-block layout: questions 1-20 on columns 0-4, 21-40 on columns 6-10,
// both starting at row 5.
func (s *Sheet) Answer(q, choice int) *Sheet {
	row, col := 5+q-1, choice
	if q > 20 {
		row, col = 5+q-21, 6+choice
	}
	return s.Fill(row, col)
}

// Digit marks the bubble for digit d (0-9) on identity row i (1-4).
func (s *Sheet) Digit(i, d int) *Sheet { return s.Fill(i, 1+d) }

// Grade marks grade g (1-3) on row 0.
func (s *Sheet) Grade(g int) *Sheet { return s.Fill(0, g) }

// AddSquare draws an extra square of ink at r, such as a stray anchor.
func (s *Sheet) AddSquare(r image.Rectangle) *Sheet {
	s.extra = append(s.extra, r)
	return s
}

// DropRowAnchor leaves row anchor i unprinted.
func (s *Sheet) DropRowAnchor(i int) *Sheet {
	s.dropped[s.rowAnchor(i)] = true
	return s
}

// DropColumnAnchor leaves column anchor j unprinted.
func (s *Sheet) DropColumnAnchor(j int) *Sheet {
	s.dropped[s.columnAnchor(j)] = true
	return s
}

func (s *Sheet) rowAnchor(i int) image.Rectangle {
	y := s.RowY(i)
	return image.Rect(s.RowX, y, s.RowX+s.AnchorSize, y+s.AnchorSize)
}

func (s *Sheet) columnAnchor(j int) image.Rectangle {
	x := s.ColumnX(j)
	return image.Rect(x, s.ColumnY, x+s.AnchorSize, s.ColumnY+s.AnchorSize)
}

// Image renders the sheet.
func (s *Sheet) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for x := 0; x < s.Width; x++ {
		v := s.Paper.Y
		if s.Shade > 0 {
			v -= uint8(int(s.Shade) * x / s.Width)
		}
		for y := 0; y < s.Height; y++ {
			img.Set(x, y, color.Gray{Y: v})
		}
	}

	ink := image.NewUniform(s.Ink)
	paint := func(r image.Rectangle) {
		draw.Draw(img, r.Intersect(img.Bounds()), ink, image.Point{}, draw.Src)
	}
	for i := 0; i < s.Rows; i++ {
		if r := s.rowAnchor(i); !s.dropped[r] {
			paint(r)
		}
	}
	for j := 0; j < s.Columns; j++ {
		if r := s.columnAnchor(j); !s.dropped[r] {
			paint(r)
		}
	}
	for _, r := range s.extra {
		paint(r)
	}
	for _, r := range s.marks {
		paint(r)
	}
	return img
}

// PNG renders the sheet and encodes it.
func (s *Sheet) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
