// Package config loads, normalizes, and validates LogicMate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LOGICMATE_API_KEY. The Config type centralizes every knob the CLI and
// workflow need, allowing workspace directories and provider credentials to
// be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
