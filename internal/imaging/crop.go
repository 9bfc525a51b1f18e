package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image, optionally rescaling it.
//
// The region is expressed in origin-based coordinates (see package docs) and
// must lie within the image.
func Crop(img image.Image, r image.Rectangle, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	frame := image.Rect(0, 0, bounds.Dx(), bounds.Dy())

	// Validate coordinates
	if r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	if !r.In(frame) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, frame.Max.X, frame.Max.Y)
	}

	cropped := imaging.Crop(img, r.Add(bounds.Min))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := EncodePNGBase64(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
