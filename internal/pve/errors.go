package pve

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports a request that never produced an HTTP response
// (connection refused, TLS failure, timeout, cancelled context).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a reply with a non-2xx status code.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// DecodeError reports a reply whose body does not have the expected shape.
type DecodeError struct {
	Path string
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStatus reports whether err is (or wraps) a *StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsDecode reports whether err is (or wraps) a *DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsUnauthorized reports whether err is a 401 reply, which usually means the
// ticket expired or the credentials are wrong.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
