// Package detection locates the registration squares printed on an answer
// sheet and resolves them into the sheet's row and column axes.
//
// # Pipeline
//
//  1. Anchor detection (FindAnchors, DetectAnchors): binarize with a fixed
//     global threshold, extract external blob contours, approximate each by a
//     polygon and keep near-square quadrilaterals.
//  2. Grid resolution (ResolveGrid): take the most frequent x and y over all
//     candidates; anchors near the modal x form the row axis, anchors near the
//     modal y form the column axis. Both counts must match the form exactly.
//
// # Backends
//
// Contour extraction has two implementations with the same contract:
//   - native (default): border following and Douglas-Peucker in pure Go
//   - opencv (build tag gocv): gocv's FindContours / ApproxPolyDP
//
// The Backend constant reports which one is compiled in.
//
// # Coordinate System
//
// All coordinates are origin-based pixels:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Anchor X/Y is the bounding box's top-left corner
//
// # Errors
//
// Rejections carry the observed counts so the caller can decide between a
// re-scan and manual entry:
//   - *InsufficientAnchorsError: fewer candidates than rows + columns
//   - *GridCardinalityError: clustering did not yield exactly rows x columns
//
// Nothing here retries with other thresholds; tolerances are fixed by the form.
//
// # Limitations
//
// Mode-based clustering is an approximation of geometric rectification. It
// absorbs a few pixels of skew across the sheet, not perspective distortion
// from a steeply angled photograph.
package detection
