// Package services defines shared utilities consumed by the workflow stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and filter subjects
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that tag failures with a
//     consistent kind (not-found, config, invalid-argument, precondition,
//     external-tool) callers can match with errors.Is.
//   - Thin abstractions that make command execution and progress streaming from
//     external tools testable.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
