// Package omr reads the marks on a photographed answer sheet.
//
// A Reader chains the stages of one read:
//
//	bytes -> imaging.Decode -> detection.DetectAnchors -> detection.ResolveGrid
//	      -> MapRegions -> Classifier -> Extractor -> Reading
//
// # Form Geometry
//
// Everything specific to the printed form lives in FormGeometry: the anchor
// counts, the detection constants, the offsets between anchors and bubbles,
// the sampling window, and which anchor rows and columns make up each field.
// DefaultGeometry is the standard 40-question sheet; LoadGeometry reads a
// YAML override.
//
// # Results
//
// Question marks are returned as raw vectors, one bool per choice, and also
// rendered through an AnswerAlphabet (A-E for a single mark, "=" for blank,
// "*" for several). Identity rows reduce to a DigitRead that is unique, none
// or multiple; a grade, class or seat value is only filled in when all of its
// digits are unique.
//
// # Errors
//
// Failed reads return *imaging.DecodeError, *detection.InsufficientAnchorsError
// or *detection.GridCardinalityError. RejectionOf turns any of them into a
// Rejection value carrying the observed counts.
//
// # Thread Safety
//
// A Reader and its AnswerAlphabet are immutable after construction. Each Read
// allocates its own buffers, so sheets may be read concurrently.
package omr
