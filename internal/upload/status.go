package upload

// Status is the per-file state of a staged upload.
type Status string

const (
	// StatusPending means the file is staged and awaiting (or inside) an upload.
	StatusPending Status = "Pending"

	// StatusSuccess means the service reported a transcription for the file.
	StatusSuccess Status = "Success"

	// StatusFailed means the upload failed or the service did not transcribe the file.
	StatusFailed Status = "Failed"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsFinished returns true once the file has an outcome.
func (s Status) IsFinished() bool {
	return s == StatusSuccess || s == StatusFailed
}
