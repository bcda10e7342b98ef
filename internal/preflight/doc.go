// Package preflight provides readiness checks for the external tools,
// directories, and services the pipeline depends on.
//
// These checks run in two contexts:
//   - The CLI "logicmate status" command renders the full check list plus
//     a host resource report.
//   - Commands that start expensive work (train, run) call RunAll first so
//     a doomed run fails in seconds instead of hours.
//
// Checks gated by configuration are skipped when the feature is unset.
package preflight
