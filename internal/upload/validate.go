package upload

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"audioscribe/internal/config"
	"audioscribe/internal/services"
	"audioscribe/internal/transcripts"
)

// Validation failure kinds. A *ValidationError matches its kind and
// services.ErrValidation under errors.Is.
var (
	ErrTooManyFiles     = errors.New("too many files")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrDuplicate        = errors.New("duplicate filename")
	ErrNothingStaged    = errors.New("no files staged")
	ErrUploadInProgress = fmt.Errorf("upload: %w", services.ErrBusy)
)

// ValidationError is a local failure surfaced to the user without contacting
// the service.
type ValidationError struct {
	Kind     error
	Filename string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Filename, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	return []error{e.Kind, services.ErrValidation}
}

func tooManyFiles(limits config.Limits) *ValidationError {
	return &ValidationError{
		Kind:    ErrTooManyFiles,
		Message: fmt.Sprintf("Only %d files are allowed.", limits.MaxBatchSize),
	}
}

func nothingStaged() *ValidationError {
	return &ValidationError{Kind: ErrNothingStaged, Message: "No valid files selected."}
}

// NormalizeName returns the NFC form used for length and duplicate checks so
// composed and decomposed spellings of the same name compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// knownNames indexes the normalized filenames of the canonical list.
func knownNames(items []transcripts.Transcription) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[NormalizeName(item.Filename)] = struct{}{}
	}
	return out
}

// validateName applies the suffix, length, and duplicate checks in that
// order and reports the first failure.
func validateName(name string, limits config.Limits, known map[string]struct{}) *ValidationError {
	normalized := NormalizeName(name)

	allowed := false
	for _, suffix := range limits.AllowedSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationError{
			Kind:     ErrUnsupportedType,
			Filename: name,
			Message:  fmt.Sprintf("Only %s files are allowed.", strings.Join(limits.AllowedSuffixes, ", ")),
		}
	}

	if utf8.RuneCountInString(normalized) > limits.MaxFilenameLength {
		return &ValidationError{
			Kind:     ErrFilenameTooLong,
			Filename: name,
			Message:  fmt.Sprintf("Filename cannot exceed %d characters.", limits.MaxFilenameLength),
		}
	}

	if _, ok := known[normalized]; ok {
		return &ValidationError{
			Kind:     ErrDuplicate,
			Filename: name,
			Message:  "At least one file has already been processed before.",
		}
	}
	return nil
}
