package expo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is the backend's structured error shape: a message plus an
// optional machine code and the HTTP status it arrived with.
type APIError struct {
	Message    string
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (code %s)", e.Code)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	return b.String()
}

// apiErrorFromBody decodes a non-2xx body into an APIError. The backend
// usually sends {message, code, statusCode}; anything else falls back
// to the HTTP status text.
func apiErrorFromBody(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Message    string          `json:"message"`
		Code       json.RawMessage `json:"code"`
		StatusCode int             `json:"statusCode"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Message = envelope.Message
		apiErr.Code = rawToString(envelope.Code)
		if envelope.StatusCode != 0 {
			apiErr.StatusCode = envelope.StatusCode
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("HTTP %d", statusCode)
		}
	}
	return apiErr
}

// rawToString renders a code field that may be a JSON string or number.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strings.TrimSuffix(fmt.Sprintf("%v", n), ".0")
	}
	return string(raw)
}
