// Package api is the typed client for the ভোটমামু REST backend.  Every
// method issues exactly one request; there is no retry, backoff or cache.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors let callers branch on the failure class without looking
// at status codes.  *Error matches them through errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// GenericMessage is shown when the backend did not explain a failure.
const GenericMessage = "কিছু একটা ভুল হয়েছে, আবার চেষ্টা করুন"

// Error is a request the backend rejected, either with a non-2xx status or
// with a success:false envelope.
type Error struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Is maps the status code onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity || len(e.Errors) > 0
	}
	return false
}

// Message extracts a user-facing message from err: the server's message
// (or its first field error) when present, fallback otherwise.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if len(apiErr.Errors) > 0 {
			keys := make([]string, 0, len(apiErr.Errors))
			for k := range apiErr.Errors {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if msgs := apiErr.Errors[k]; len(msgs) > 0 {
					return strings.TrimSpace(msgs[0])
				}
			}
		}
	}
	if fallback == "" {
		return GenericMessage
	}
	return fallback
}
