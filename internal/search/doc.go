// Package search runs filename searches against the transcription service and
// keeps the result set separate from the canonical transcription list.
package search
