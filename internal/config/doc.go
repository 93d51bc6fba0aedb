// Package config loads, normalizes, and validates reelforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional dotenv file, and honours
// environment fallbacks for provider credentials such as ELEVENLABS_API_KEY.
// The Config type centralizes every knob the daemon and CLI need so work
// directories, compositor settings, and artifact storage are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
