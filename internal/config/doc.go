// Package config loads, normalizes, and validates podcaster configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files and honours environment
// overrides such as OPENAI_API_KEY and ELEVENLABS_API_KEY. The Config type
// centralizes every knob the CLI and daemon need: output folders, provider
// credentials, media dimensions, stage toggles and daemon timing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
