// Package workflow drives a pipeline run through its stages.
//
// The manager maps each run status to the stage handler that advances it
// and executes stages strictly in sequence, persisting the new status after
// every stage so an interrupted run resumes where it stopped. A file lock
// under the log directory guarantees a single active workflow per
// workspace. Stage failures mark the run failed with the originating stage
// and a human-readable message; nothing retries automatically.
package workflow
