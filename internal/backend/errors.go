// SPDX-License-Identifier: MIT

package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotEntitled         = errors.New("backend: not entitled")
	ErrNotFound            = errors.New("backend: resource not found")
	ErrUpstreamUnavailable = errors.New("backend: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("backend: internal error (5xx)")
	ErrUpstreamBadResponse = errors.New("backend: invalid response format or malformed data")
	ErrTimeout             = errors.New("backend: request timed out")
)

// Reason codes the backend attaches to 403 responses. The two no-media codes
// drive the documented one-shot unencrypted-DRM retry in the playable layer.
const (
	CodeNoMediaOnChannel  = "NO_MEDIA_ON_CHANNEL"
	CodeNoMediaForProgram = "NO_MEDIA_FOR_PROGRAM"
	CodeNotEntitled       = "NOT_ENTITLED"
)

// APIError is a rich error type that wraps the sentinel errors with context.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Code      string
	Message   string
	Response  *http.Response // response the error was derived from, body drained
	Err       error          // nested lower-level error (e.g. net.Error)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("backend: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}

// ReasonCode extracts the backend reason code from an error chain, or ""
// when the error carries none.
func ReasonCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// StatusOf extracts the HTTP status from an error chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
