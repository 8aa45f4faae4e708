package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks local failures that never reach the server.
	ErrValidation = errors.New("validation error")
	// ErrTransport marks failed requests and non-2xx responses.
	ErrTransport = errors.New("transport error")
	// ErrUnhealthy marks a failed health check.
	ErrUnhealthy = errors.New("server unhealthy")
	// ErrBusy marks an operation rejected because the same control is in flight.
	ErrBusy = errors.New("operation in progress")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, component, operation string, err error) error {
	detail := buildDetail(component, operation)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation string) string {
	parts := make([]string, 0, 2)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
