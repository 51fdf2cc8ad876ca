package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies analysis failures so the orchestrator's caller can react:
// auth_required triggers a re-authentication flow, payload_too_large tells
// the caller to reduce input, everything else is terminal for the run.
type Kind string

const (
	KindAuthRequired    Kind = "auth_required"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindEmptyResponse   Kind = "empty_response"
	KindParseFailure    Kind = "parse_failure"
	KindUpstream        Kind = "upstream"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("analysis %s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("analysis %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("analysis %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain, or KindUpstream when
// the error did not originate here.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUpstream
}

// IsAuthRequired reports whether the service rejected our credentials and the
// caller should prompt for re-authentication.
func IsAuthRequired(err error) bool {
	return KindOf(err) == KindAuthRequired
}
