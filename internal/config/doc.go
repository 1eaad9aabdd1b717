// Package config loads, normalizes, and validates unitcam configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// UNITCAM_SERVER_URL. The Config type centralizes every knob the capture and
// analytics commands need so camera devices, retry timing, and the extraction
// service endpoint are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
