// Package config loads, normalizes, and validates moviescene configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment overrides such as MOVIESCENE_LOG_LEVEL. The Config type
// centralizes the knobs the compiler, the template store and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
