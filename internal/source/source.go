// Package source turns input paths into sheet images: image files are one
// sheet each, PDF scans contribute one sheet per page.
package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// DefaultDPI is the resolution PDF pages are rendered at unless configured.
const DefaultDPI = 200

// Source is a file holding one or more sheet images.
type Source interface {
	PageCount() int
	RenderPage(index int) (image.Image, error)
	Close() error
}

// ImageFileSource is a single image file.
type ImageFileSource struct {
	path string
}

// NewImageFileSource returns a source for the image at path. The file is
// read when the page is rendered.
func NewImageFileSource(path string) *ImageFileSource {
	return &ImageFileSource{path: path}
}

func (s *ImageFileSource) PageCount() int { return 1 }

func (s *ImageFileSource) RenderPage(index int) (image.Image, error) {
	if index != 0 {
		return nil, fmt.Errorf("page %d out of range for image file %s", index, s.path)
	}
	return imaging.LoadFile(s.path)
}

func (s *ImageFileSource) Close() error { return nil }

// FitzPDFSource renders the pages of a PDF scan with MuPDF.
//
// A fitz.Document is not safe for concurrent use, so every render opens its
// own document; pages of one PDF can then be read in parallel.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

// NewFitzPDFSource opens the PDF at path, rendering pages at dpi.
func NewFitzPDFSource(path string, dpi int) (*FitzPDFSource, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) RenderPage(index int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(f.dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// IsPDF reports whether path names a PDF by its extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Open returns the source for path: a FitzPDFSource for PDFs, an
// ImageFileSource otherwise.
func Open(path string, dpi int) (Source, error) {
	if IsPDF(path) {
		return NewFitzPDFSource(path, dpi)
	}
	return NewImageFileSource(path), nil
}

// Page is one sheet to read. A page whose source could not be opened carries
// the error and reports it from Load.
type Page struct {
	Name string

	src   Source
	index int
	err   error
}

// Load renders the page.
func (p Page) Load() (image.Image, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.src.RenderPage(p.index)
}

// Set is the pages of every opened input, in input order.
type Set struct {
	Pages   []Page
	sources []Source
}

// OpenAll opens every path and lists its pages. PDF pages are named
// "file.pdf#N" with N counted from 1. A path that cannot be opened becomes a
// single failing page rather than an error, so one bad input does not hide
// the others.
func OpenAll(paths []string, dpi int) *Set {
	set := &Set{}
	for _, path := range paths {
		src, err := Open(path, dpi)
		if err != nil {
			set.Pages = append(set.Pages, Page{Name: path, err: err})
			continue
		}
		set.sources = append(set.sources, src)

		n := src.PageCount()
		if n == 0 {
			set.Pages = append(set.Pages, Page{Name: path, err: fmt.Errorf("%s has no pages", path)})
			continue
		}
		for i := 0; i < n; i++ {
			name := path
			if IsPDF(path) {
				name = fmt.Sprintf("%s#%d", path, i+1)
			}
			set.Pages = append(set.Pages, Page{Name: name, src: src, index: i})
		}
	}
	return set
}

// Close releases every opened source.
func (s *Set) Close() error {
	var first error
	for _, src := range s.sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DPIFromEnv returns the PDF render resolution from OMR_PDF_DPI, or
// DefaultDPI when the variable is unset.
func DPIFromEnv() (int, error) {
	v := os.Getenv("OMR_PDF_DPI")
	if v == "" {
		return DefaultDPI, nil
	}
	dpi, err := strconv.Atoi(v)
	if err != nil || dpi <= 0 {
		return DefaultDPI, fmt.Errorf("invalid OMR_PDF_DPI %q", v)
	}
	return dpi, nil
}
