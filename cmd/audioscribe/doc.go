// Package main hosts the audioscribe CLI entrypoint and command graph.
//
// One-shot commands (health, list, search, upload, history) each build a
// fresh session against the configured transcription service, while the
// session command keeps one open for interactive use. Configuration
// resolution, logging setup, and the history and notification wiring live in
// commandContext so subcommands only deal with presentation.
package main
