// Package config loads, normalizes, and validates avid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AVID_LLM_API_KEY. The Config type centralizes every knob the daemon and
// CLI need: project storage, silence detection tuning, provider
// credentials, and export behavior are all discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
