package synth

import (
	"fmt"
	"strings"
)

// Kind classifies a synthesis failure.
type Kind string

const (
	KindTooManySpeakers  Kind = "too_many_speakers"
	KindContentBlocked   Kind = "content_blocked"
	KindEmptyResponse    Kind = "empty_response"
	KindRemoteError      Kind = "remote_error"
	KindUnexpectedFormat Kind = "unexpected_format"
	KindTransport        Kind = "transport"
)

// Error carries a failure kind and a message already safe to show users.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// AsError returns the typed synthesis error inside err, if any.
func AsError(err error) (*Error, bool) {
	se, ok := err.(*Error)
	return se, ok
}

// sanitize maps a raw failure message to a user-safe one. Raw messages can
// carry credentials, quota identifiers, or internal hostnames; only the
// generic category ever reaches a caller. Substring rules apply in priority
// order, case-insensitive.
func sanitize(kind Kind, raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "api_key"), strings.Contains(lower, "api key"),
		strings.Contains(lower, "token"):
		return "API authentication error. Please check your configuration."
	case strings.Contains(lower, "quota"), strings.Contains(lower, "limit"):
		return "API quota exceeded. Please try again later."
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		return "Request timed out. Please try again."
	case strings.Contains(lower, "connection"):
		return "Connection error. Please check your network."
	default:
		return fmt.Sprintf("Speech generation failed (%s).", kind)
	}
}
