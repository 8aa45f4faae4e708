// Package app composes the transcription client with the list, search, and
// upload controllers into one session.
//
// An App owns the canonical transcription list. Start issues the health check
// and the initial list fetch together; either may finish first and each only
// touches its own state. A failed health check raises a banner that stays up
// for the life of the App. The upload controller refreshes the canonical list
// through the App after every successful batch, and the App journals each
// submitted batch and pushes a notification when those are configured.
package app
