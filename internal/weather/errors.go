package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusClientClosedRequest is the non-standard status for a caller that went away.
const StatusClientClosedRequest = 499

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing %q query param", e.Field)
	}
	return fmt.Sprintf("invalid %q: %s", e.Field, e.Reason)
}

// ConfigError reports a server-side credential or setting that is not configured.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return e.Key + " not configured"
}

// UpstreamError is a non-2xx answer from a third-party API.
type UpstreamError struct {
	Provider string
	Status   int
	Details  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.Status)
}

// TransportError is a network-level failure talking to a third-party API.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CancelledError means the caller aborted the request.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string { return "request cancelled" }

func (e *CancelledError) Unwrap() error { return e.Err }

// StatusFor maps an error from the service to the HTTP status returned to the caller.
func StatusFor(err error) int {
	var (
		validation *ValidationError
		config     *ConfigError
		upstream   *UpstreamError
		transport  *TransportError
		cancelled  *CancelledError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &cancelled):
		return StatusClientClosedRequest
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		if upstream.Status < 400 || upstream.Status > 599 {
			return http.StatusBadGateway
		}
		return upstream.Status
	case errors.As(err, &config), errors.As(err, &transport):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// IsCancelled reports whether err stems from the caller aborting.
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled)
}
