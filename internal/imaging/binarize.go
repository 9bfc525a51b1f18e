package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Mask is a binary image indexed as Mask[y][x]; true marks an ink pixel.
type Mask [][]bool

// NewMask allocates an all-paper mask of the given size.
func NewMask(width, height int) Mask {
	m := make(Mask, height)
	for y := range m {
		m[y] = make([]bool, width)
	}
	return m
}

// Width returns the mask width in pixels.
func (m Mask) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Height returns the mask height in pixels.
func (m Mask) Height() int { return len(m) }

// At reports whether (x, y) is ink. Coordinates outside the mask are paper.
func (m Mask) At(x, y int) bool {
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return m[y][x]
}

// CountInk returns the number of ink pixels inside r. The part of r that falls
// outside the mask contributes nothing.
func (m Mask) CountInk(r image.Rectangle) int {
	r = r.Intersect(image.Rect(0, 0, m.Width(), m.Height()))
	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m[y]
		for x := r.Min.X; x < r.Max.X; x++ {
			if row[x] {
				count++
			}
		}
	}
	return count
}

// Grayscale converts img to an 8-bit luminance plane whose bounds start at the
// origin, using the ITU-R BT.601 weights (0.299R + 0.587G + 0.114B), rounded.
func Grayscale(img image.Image) *image.Gray {
	// bild writes the luminance to R, G and B alike; R is copied out.
	lum := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	b := lum.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := lum.Pix[y*lum.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}

// GlobalInk binarizes gray with a single cutoff. Pixels at or below threshold
// are ink, so dark print becomes foreground.
func GlobalInk(gray *image.Gray, threshold uint8) (Mask, error) {
	if threshold == 255 {
		return nil, fmt.Errorf("global threshold must be below 255")
	}
	b := gray.Bounds()
	mask := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x, v := range row {
			mask[y][x] = v <= threshold
		}
	}
	return mask, nil
}

// Smooth applies the 3x3 binomial Gaussian kernel (sigma 0.8) and returns the
// result as a grayscale plane. Borders are reflected without repeating the
// edge pixel (dcb|abcd|cba), matching OpenCV's default border.
func Smooth(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return image.NewGray(image.Rect(0, 0, width, height))
	}

	// Convolve3x3 replicates borders, so a one-pixel reflected frame gives
	// every interior pixel its reflected neighbours.
	padded := image.NewGray(image.Rect(0, 0, width+2, height+2))
	for y := 0; y < height+2; y++ {
		sy := reflect101(y-1, height)
		for x := 0; x < width+2; x++ {
			padded.Pix[y*padded.Stride+x] = gray.Pix[sy*gray.Stride+reflect101(x-1, width)]
		}
	}

	blurred := imaging.Convolve3x3(padded, [9]float64{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}, &imaging.ConvolveOptions{Normalize: true})

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := blurred.Pix[(y+1)*blurred.Stride+4:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < width; x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}

// reflect101 maps an index one step outside [0, n) back inside by mirroring
// about the edge pixel. A single-pixel axis has nothing to mirror and clamps.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*(n-1) - i
	}
	return i
}

// AdaptiveInk binarizes gray against the mean of each pixel's
// blockSize x blockSize neighbourhood. A pixel is ink when
//
//	value <= round(mean) - offset
//
// Neighbourhoods that cross the image edge replicate the border pixels.
// blockSize must be odd and at least 3.
//
// # Algorithm
//
// Box sums are computed separably: a sliding horizontal sum per row, then a
// sliding vertical sum of those per column. Both passes are O(width x height)
// regardless of blockSize.
func AdaptiveInk(gray *image.Gray, blockSize, offset int) (Mask, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("adaptive block size must be odd and >= 3, got %d", blockSize)
	}

	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	mask := NewMask(width, height)
	if width == 0 || height == 0 {
		return mask, nil
	}

	radius := blockSize / 2
	area := int32(blockSize * blockSize)

	pixel := func(x, y int) int32 {
		return int32(gray.Pix[y*gray.Stride+x])
	}

	// Horizontal pass
	rowSums := make([]int32, width*height)
	for y := 0; y < height; y++ {
		var sum int32
		for k := -radius; k <= radius; k++ {
			sum += pixel(clamp(k, 0, width-1), y)
		}
		rowSums[y*width] = sum
		for x := 1; x < width; x++ {
			sum += pixel(clamp(x+radius, 0, width-1), y) - pixel(clamp(x-1-radius, 0, width-1), y)
			rowSums[y*width+x] = sum
		}
	}

	// Vertical pass and comparison
	threshold := int32(offset)
	for x := 0; x < width; x++ {
		var sum int32
		for k := -radius; k <= radius; k++ {
			sum += rowSums[clamp(k, 0, height-1)*width+x]
		}
		for y := 0; y < height; y++ {
			if y > 0 {
				sum += rowSums[clamp(y+radius, 0, height-1)*width+x] - rowSums[clamp(y-1-radius, 0, height-1)*width+x]
			}
			mean := (sum + area/2) / area
			mask[y][x] = pixel(x, y) <= mean-threshold
		}
	}

	return mask, nil
}

// clamp restricts v to the range [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
