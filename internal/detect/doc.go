// Package detect defines the normalized prediction records produced from raw
// detector output.
//
// A Detection is the detector's own vocabulary: an axis-aligned box, a
// confidence score, and a class id. Format converts detections into
// Predictions, the center/size representation the rest of the pipeline works
// with, assigning each one a fresh unique identifier. Sorting helpers order
// predictions by coordinate axis for presentation without touching identity.
package detect
