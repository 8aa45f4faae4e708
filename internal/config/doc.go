// Package config loads, normalizes, and validates audioscribe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the AUDIOSCRIBE_API_BASE_URL
// environment override for the transcription service location. Upload limits
// (accepted suffixes, batch size, filename length) are compiled in and exposed
// read-only through Limits.
//
// Construct a Config once at startup and pass it to the components that need
// it; nothing in the repository reads configuration from package state.
package config
