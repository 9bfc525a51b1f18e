// Package imaging provides the raster operations the answer-sheet reader is
// built on: decoding, grayscale conversion, binarization, annotation and
// cropping.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// Images produced by this package (grayscale planes, masks, annotated copies)
// always start at the origin, whatever the bounds of the decoded source. All
// downstream coordinates (anchors, field windows) are expressed in that
// origin-based system:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// # Binarization
//
// Two binarizations are provided and they serve different stages:
//   - GlobalInk applies one fixed cutoff. Anchor detection uses it because the
//     registration squares are printed solid black.
//   - AdaptiveInk compares every pixel with the mean of its neighbourhood, so
//     a photographed sheet with a shadow across it still separates pencil
//     marks from paper. Mark classification uses it.
//
// Both return a Mask where true means ink.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and allocates its own output, so concurrent calls on different
// (or the same, read-only) images are safe.
//
// # Error Handling
//
// Decode failures are reported as *DecodeError so callers can tell a bad
// upload apart from a detection failure. Other functions return errors for
// invalid inputs such as regions outside the image bounds.
package imaging
