// Package runs persists pipeline run state in SQLite.
//
// A run records one pass through the pipeline for a project version and
// subject: dataset fetch, manifest preparation, training, model binding,
// and filtering. Status transitions are guarded so a stage cannot be
// skipped, and every mutation lands in the database before the next stage
// starts, which makes runs resumable across process restarts.
package runs
