// Package classifier partitions directories of images by running a
// subject-specific detector over each one.
//
// A Session owns the per-subject model handles. Filter lists an input
// directory, runs the bound detector on every image with an allowed
// extension, formats the detections into predictions, and copies images
// whose prediction count strictly exceeds the subject's threshold into an
// output directory. Sources are never moved or mutated; an image that fails
// to decode is logged and skipped without failing the batch.
package classifier
