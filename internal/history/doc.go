// Package history journals upload batches in a local SQLite database.
//
// Each batch row records the service it was sent to, when it started and
// finished, and how it ended. File rows keep the submitted name, size, blake3
// digest, and the reconciled status with any reason the service gave. The
// journal is append-only; the CLI reads it back with Recent.
package history
