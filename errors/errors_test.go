package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOther},
		{"transport", NewTransportError("send", stderrors.New("refused")), KindTransport},
		{"api", &APIError{Status: 400, Title: "Bad Request"}, KindAPI},
		{"signing", NewSigningError("streaming body", nil), KindSigning},
		{"timeout", &TimeoutError{Attempts: 3}, KindTimeout},
		{"other", Otherf("unsupported token type %q", "mac"), KindOther},
		{"wrapped api", fmt.Errorf("create payment: %w", &APIError{Status: 422}), KindAPI},
		{"plain", stderrors.New("boom"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", NewTransportError("send", stderrors.New("reset")), true},
		{"transport timeout", NewTimeoutTransportError("send", stderrors.New("deadline")), true},
		{"canceled", NewTransportError("send", context.Canceled), false},
		{"429", &APIError{Status: 429}, true},
		{"503", &APIError{Status: 503}, true},
		{"408", &APIError{Status: 408}, true},
		{"400", &APIError{Status: 400}, false},
		{"404", &APIError{Status: 404}, false},
		{"signing", NewSigningError("bad key", nil), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		Type:    "https://errors.example/validation",
		Title:   "Invalid Parameters",
		Status:  400,
		TraceID: "trace-1",
		Detail:  "amount is negative",
		Errors:  map[string][]string{"amount": {"must be positive"}},
	}
	msg := err.Error()
	for _, want := range []string{"400", "Invalid Parameters", "amount is negative", "trace-1", "amount: must be positive"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q should contain %q", msg, want)
		}
	}
}

func TestFromResponse_ModernShape(t *testing.T) {
	body := []byte(`{
		"type": "https://errors.example/validation",
		"title": "Invalid Parameters",
		"trace_id": "abc-123",
		"detail": "Some fields are invalid",
		"errors": {"amount": ["must be positive", "must be an integer"], "currency": ["unsupported"]}
	}`)

	got := FromResponse(400, "400 Bad Request", http.Header{}, body)

	want := &APIError{
		Type:    "https://errors.example/validation",
		Title:   "Invalid Parameters",
		Status:  400,
		TraceID: "abc-123",
		Detail:  "Some fields are invalid",
		Errors: map[string][]string{
			"amount":   {"must be positive", "must be an integer"},
			"currency": {"unsupported"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromResponse() = %+v, want %+v", got, want)
	}
}

func TestFromResponse_LegacyShape(t *testing.T) {
	header := http.Header{}
	header.Set(CorrelationIDHeader, "correlation-id")
	body := []byte(`{
		"error": "invalid_request",
		"error_description": "Missing parameter",
		"error_details": {"parameter": "client_id"}
	}`)

	got := FromResponse(400, "400 Bad Request", header, body)

	if got.Title != "invalid_request" {
		t.Errorf("expected title invalid_request, got %q", got.Title)
	}
	if got.Detail != "Missing parameter" {
		t.Errorf("expected detail, got %q", got.Detail)
	}
	if got.TraceID != "correlation-id" {
		t.Errorf("expected trace id from correlation header, got %q", got.TraceID)
	}
	if got.Status != 400 {
		t.Errorf("expected status 400, got %d", got.Status)
	}
	if !reflect.DeepEqual(got.Errors, map[string][]string{"parameter": {"client_id"}}) {
		t.Errorf("unexpected errors map: %v", got.Errors)
	}
}

func TestFromResponse_LegacyWithoutOptionalFields(t *testing.T) {
	got := FromResponse(401, "401 Unauthorized", http.Header{}, []byte(`{"error":"invalid_client"}`))
	if got.Title != "invalid_client" {
		t.Errorf("expected title invalid_client, got %q", got.Title)
	}
	if got.Detail != "" || got.Errors != nil {
		t.Errorf("expected empty detail and errors, got %+v", got)
	}
}

func TestFromResponse_Fallback(t *testing.T) {
	header := http.Header{}
	header.Set(CorrelationIDHeader, "correlation-id")

	tests := []struct {
		name   string
		status int
		reason string
		body   string
		title  string
	}{
		{"non-json", 400, "400 Bad Request", "<html>oops</html>", "Bad Request"},
		{"empty body", 502, "502 Bad Gateway", "", "Bad Gateway"},
		{"unknown json", 500, "500 Internal Server Error", `{"message":"boom"}`, "Internal Server Error"},
		{"legacy with wrong types", 400, "400 Bad Request", `{"error":"x","error_details":{"a":1}}`, "Bad Request"},
		{"missing status line", 418, "", "teapot", "I'm a teapot"},
		{"custom reason", 400, "400 Nope", "", "Nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromResponse(tt.status, tt.reason, header, []byte(tt.body))
			if got.Title != tt.title {
				t.Errorf("expected title %q, got %q", tt.title, got.Title)
			}
			if got.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, got.Status)
			}
			if got.TraceID != "correlation-id" {
				t.Errorf("expected correlation id, got %q", got.TraceID)
			}
		})
	}
}

func TestAsAPIError(t *testing.T) {
	wrapped := fmt.Errorf("get payment: %w", &APIError{Status: 404, Title: "Not Found"})
	apiErr, ok := AsAPIError(wrapped)
	if !ok {
		t.Fatal("expected APIError")
	}
	if apiErr.Status != 404 {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
	if _, ok := AsAPIError(stderrors.New("other")); ok {
		t.Error("plain error should not be an APIError")
	}
}
