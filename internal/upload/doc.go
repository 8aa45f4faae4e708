// Package upload stages audio files into a batch, validates them against the
// compiled-in limits and the known transcriptions, submits the batch, and
// reconciles per-file outcomes from the service response.
//
// Reconciliation is by filename only: a staged file succeeded exactly when its
// name appears in the response's transcription list. Validation and upload
// failures share one message slot; the most recent write wins.
package upload
