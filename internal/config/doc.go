// Package config loads, normalizes, and validates whisperstudio configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WHISPER_MODEL. Optional document assets resolve relative to the assets
// directory so a bare install works without any logo or font files.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, positive tool timeouts, and clear validation errors.
package config
