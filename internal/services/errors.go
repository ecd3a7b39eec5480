package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying failures surfaced by the export pipeline and
// its collaborators. Wrap tags errors with one of these so callers can branch
// on the class without parsing messages.
var (
	// ErrValidation marks invalid, overlapping, or out-of-range segment
	// definitions. Local, never retried.
	ErrValidation = errors.New("validation error")
	// ErrProbe marks media files the probe tool cannot read.
	ErrProbe = errors.New("probe error")
	// ErrSynthesis marks speech synthesis failures after all transport
	// attempts are exhausted.
	ErrSynthesis = errors.New("synthesis error")
	// ErrEncoding marks media engine subprocess failures.
	ErrEncoding = errors.New("encoding error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks operations that exceeded their deadline budget.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the human-readable class name for a wrapped error.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrSynthesis):
		return "synthesis"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
