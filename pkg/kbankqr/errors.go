package kbankqr

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidCodeError is returned when a wire code is outside its enum's closed set.
type InvalidCodeError struct {
	Family string
	Code   string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid %s code: %q", e.Family, e.Code)
}

// TransportError surfaces a non-2xx HTTP response. Body is the raw response
// body; it is never decoded.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kbank api error: endpoint=%s status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
}

// MalformedResponseError marks a 2xx response whose body does not have the
// expected shape. Field is the wire name of the offending field when known.
type MalformedResponseError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed response from %s: field %q: %v", e.Endpoint, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ConfigurationError is returned before any request is sent when the caller
// supplied an unusable combination of inputs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "kbank configuration error: " + e.Reason
}

// errMissingField is wrapped by MalformedResponseError for absent required fields.
var errMissingField = errors.New("required field is missing")

// IsRetryable reports whether err is a transient transport failure worth
// retrying: 408, 429 and 5xx responses. Malformed responses, invalid codes
// and configuration errors are contract violations and never retryable.
func IsRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch {
	case te.StatusCode == http.StatusRequestTimeout, te.StatusCode == http.StatusTooManyRequests:
		return true
	case te.StatusCode >= 500:
		return true
	}
	return false
}

// IsUnauthorized reports whether the remote rejected the access token, which
// usually means it expired and a new Session must be created.
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized
}
