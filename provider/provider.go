package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// CompletionProvider sends a prompt to an external text-generation service and
// returns the JSON payload of the reply. Implementations are treated as
// opaque: callers only depend on "text in, parsed JSON out" plus the error
// taxonomy below.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (json.RawMessage, error)
}

// ErrorKind classifies upstream failures so callers can decide whether a
// retry is worthwhile.
type ErrorKind string

const (
	// KindTimeout means the request exceeded the transport deadline.
	KindTimeout ErrorKind = "timeout"
	// KindRateLimited maps HTTP 429 responses.
	KindRateLimited ErrorKind = "rate_limited"
	// KindUnavailable covers connection failures and non-429 error statuses.
	KindUnavailable ErrorKind = "unavailable"
	// KindFormat means the response body lacked the expected candidate shape.
	KindFormat ErrorKind = "format"
	// KindParse means the candidate text was not valid JSON.
	KindParse ErrorKind = "parse"
)

// Error is a classified completion-service failure. Raw carries the
// unparseable reply for diagnostic logging; it must never be surfaced to the
// end user verbatim.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Raw     string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("completion service %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("completion service %s: %s", e.Kind, e.Message)
}

// KindOf extracts the classification from err when it wraps a provider Error.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
