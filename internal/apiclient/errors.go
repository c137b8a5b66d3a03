package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrServiceUnavailable = errors.New("quiz service unavailable")
	// ErrUnauthorized means the session could not be refreshed and local
	// auth state has been cleared.
	ErrUnauthorized = errors.New("session expired, please log in again")
	ErrForbidden    = errors.New("not allowed to view this resource")
	ErrNotFound     = errors.New("resource not found")
)

// APIError is a non-2xx response. Fields holds per-field validation
// messages when the server sent them.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return FormatFields(e.Fields)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// FormatFields renders field errors as "field: m1, m2; other: m3" with keys
// in sorted order.
func FormatFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(fields[key], ", "))
	}
	return strings.Join(parts, "; ")
}

func decodeAPIError(statusCode int, status string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			var text string
			if raw, ok := object[key]; ok && json.Unmarshal(raw, &text) == nil && strings.TrimSpace(text) != "" {
				apiErr.Message = text
				return apiErr
			}
		}
		apiErr.Fields = make(map[string][]string, len(object))
		for key, raw := range object {
			apiErr.Fields[key] = fieldMessages(raw)
		}
		if len(apiErr.Fields) > 0 {
			return apiErr
		}
		apiErr.Fields = nil
	}

	var text string
	if err := json.Unmarshal(body, &text); err == nil && strings.TrimSpace(text) != "" {
		apiErr.Message = text
		return apiErr
	}

	apiErr.Message = status
	return apiErr
}

func fieldMessages(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []string{text}
	}
	return []string{string(raw)}
}
