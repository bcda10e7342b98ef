// Package yolo mediates access to the external trainer CLI used for
// fine-tuning detection models.
//
// It renders the sparse key=value command line (unset hyperparameters are
// omitted so the trainer applies its own defaults), parses epoch progress
// from stdout, and reads the metrics the trainer leaves behind in
// results.csv.
//
// Prefer this package over ad-hoc exec.Command usage when invoking the
// trainer so argument rendering and timeout handling remain consistent.
package yolo
