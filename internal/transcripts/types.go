package transcripts

import (
	"fmt"
	"io"
	"strings"

	"audioscribe/internal/services"
)

// Transcription is one transcribed audio file. Filename identifies the record
// within a session.
type Transcription struct {
	Filename      string `json:"filename"`
	Transcription string `json:"transcription"`
}

// FileError is a per-file failure reported by the transcribe endpoint.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// TranscribeResponse is the body returned by POST /transcribe. Transcriptions
// lists exactly the files that succeeded.
type TranscribeResponse struct {
	Transcriptions []Transcription `json:"transcriptions"`
	Errors         []FileError     `json:"errors"`
}

// SucceededFilenames returns the set of filenames reported as transcribed.
func (r *TranscribeResponse) SucceededFilenames() map[string]struct{} {
	out := make(map[string]struct{}, len(r.Transcriptions))
	for _, t := range r.Transcriptions {
		out[t.Filename] = struct{}{}
	}
	return out
}

// ErrorFor returns the server-reported reason for filename, if any.
func (r *TranscribeResponse) ErrorFor(filename string) (string, bool) {
	for _, e := range r.Errors {
		if e.Filename == filename {
			return e.Error, true
		}
	}
	return "", false
}

// UploadFile is an audio file that can be streamed into a transcribe request.
type UploadFile interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return services.ErrTransport }
