package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Clone returns an origin-based, independently owned copy of img suitable for
// drawing audit overlays without touching the source.
func Clone(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// StrokeRect outlines r on dst with the given stroke thickness. The stroke is
// drawn inward from r's edges; pixels outside dst are skipped.
func StrokeRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	bounds := dst.Bounds()
	uniform := image.NewUniform(c)
	for t := 0; t < thickness; t++ {
		inner := image.Rect(r.Min.X+t, r.Min.Y+t, r.Max.X-t, r.Max.Y-t)
		if inner.Empty() {
			break
		}
		edges := []image.Rectangle{
			image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1),
			image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y),
			image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y),
			image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(dst, e.Intersect(bounds), uniform, image.Point{}, draw.Src)
		}
	}
}

// DrawLabel renders text with its top-left corner at (x, y) on a filled
// background box, using the 7x13 bitmap face.
func DrawLabel(dst draw.Image, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	box := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" (leading '#' optional).
func ParseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}

	alpha := uint8(255)
	switch len(hex) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in color %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
