//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Backend names the contour implementation compiled into this binary.
const Backend = "opencv"

// quadCandidates binarizes gray with the inverted global threshold and returns
// the bounding boxes of every external contour whose polygon approximation
// has exactly four vertices.
//
// This variant delegates contour extraction and simplification to OpenCV and
// is selected with the gocv build tag.
func quadCandidates(gray *image.Gray, p DetectorParams) ([]image.Rectangle, error) {
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image for OpenCV: %w", err)
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(src, &binary, float32(p.Threshold), 255, gocv.ThresholdBinaryInv)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	rects := make([]image.Rectangle, 0)
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		approx := gocv.ApproxPolyDP(contour, p.EpsilonFactor*gocv.ArcLength(contour, true), true)
		if approx.Size() == 4 {
			rects = append(rects, gocv.BoundingRect(approx))
		}
		approx.Close()
	}
	return rects, nil
}
