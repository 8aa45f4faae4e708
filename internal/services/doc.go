// Package services defines shared utilities consumed by the API client and
// the view controllers.
//
// Key responsibilities:
//   - Context helpers that stamp correlation and batch identifiers for
//     logging and request headers.
//   - Structured error markers plus the Wrap helper so callers can tell local
//     validation failures, transport failures, and busy controls apart with
//     errors.Is.
package services
