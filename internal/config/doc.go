// Package config loads, normalizes, and validates scenecode configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCENECODE_LLM_API_KEY. The Config type centralizes every knob the CLI
// needs, so the results tree, detection parameters, and external service
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
