package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// CorrelationIDHeader carries the server-side correlation id on responses.
const CorrelationIDHeader = "X-Tl-Correlation-Id"

// fallbackTitle is used when neither a body title nor a reason phrase exists.
const fallbackTitle = "server_error"

// problemBody is the modern error envelope.
type problemBody struct {
	Type    string              `json:"type"`
	Title   string              `json:"title"`
	TraceID string              `json:"trace_id"`
	Detail  string              `json:"detail"`
	Errors  map[string][]string `json:"errors"`
}

// legacyBody is the legacy error envelope.
type legacyBody struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	ErrorDetails     map[string]string `json:"error_details"`
}

// FromResponse normalizes a non-2xx response into an APIError. The body
// is tried as the modern envelope, then the legacy envelope, then a
// generic error is built from the reason phrase. It never fails.
//
// status is the numeric status code, reason the full status line as
// reported by net/http (e.g. "400 Bad Request") and may be empty.
func FromResponse(status int, reason string, header http.Header, body []byte) *APIError {
	correlationID := header.Get(CorrelationIDHeader)

	if apiErr, ok := parseProblem(status, body); ok {
		return apiErr
	}
	if apiErr, ok := parseLegacy(status, correlationID, body); ok {
		return apiErr
	}
	return &APIError{
		Title:   reasonPhrase(status, reason),
		Status:  status,
		TraceID: correlationID,
	}
}

func parseProblem(status int, body []byte) (*APIError, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	if gjson.GetBytes(body, "title").Type != gjson.String || gjson.GetBytes(body, "type").Type != gjson.String {
		return nil, false
	}
	var p problemBody
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, false
	}
	return &APIError{
		Type:    p.Type,
		Title:   p.Title,
		Status:  status,
		TraceID: p.TraceID,
		Detail:  p.Detail,
		Errors:  p.Errors,
	}, true
}

func parseLegacy(status int, correlationID string, body []byte) (*APIError, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	if gjson.GetBytes(body, "error").Type != gjson.String {
		return nil, false
	}
	var l legacyBody
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, false
	}
	apiErr := &APIError{
		Title:   l.Error,
		Status:  status,
		TraceID: correlationID,
		Detail:  l.ErrorDescription,
	}
	if len(l.ErrorDetails) > 0 {
		apiErr.Errors = make(map[string][]string, len(l.ErrorDetails))
		for field, msg := range l.ErrorDetails {
			apiErr.Errors[field] = []string{msg}
		}
	}
	return apiErr, true
}

// reasonPhrase strips the numeric prefix from a status line, falling back
// to the canonical text for the code.
func reasonPhrase(status int, statusLine string) string {
	phrase := strings.TrimSpace(strings.TrimPrefix(statusLine, strconv.Itoa(status)))
	if phrase == "" {
		phrase = http.StatusText(status)
	}
	if phrase == "" {
		phrase = fallbackTitle
	}
	return phrase
}
