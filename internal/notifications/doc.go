// Package notifications sends ntfy push messages when an upload batch
// finishes or fails and when the transcription service reports unhealthy.
// Without a configured topic every call is a no-op.
package notifications
