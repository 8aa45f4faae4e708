// Package transcripts is the HTTP client for the transcription service.
//
// The service exposes four endpoints under a configurable base URL: a health
// probe, the full transcription listing, a filename search, and a multipart
// batch upload that transcribes audio files and reports per-file outcomes.
// Every call accepts a context, stamps an X-Request-ID header, and returns
// errors tagged with services.ErrTransport (or services.ErrUnhealthy for the
// health probe) so view controllers can scope their failure messages.
package transcripts
