package httpclient

import (
	"net/http"
	"strings"
	"testing"
)

func TestRequest_SensitiveHeadersAreRedacted(t *testing.T) {
	req := NewRequest(http.MethodGet, "/payments")
	req.SetSensitiveHeader("authorization", "Bearer secret-token")
	req.SetHeader("Idempotency-Key", "key-1")

	if !req.IsSensitiveHeader("Authorization") {
		t.Fatal("expected Authorization to be sensitive")
	}
	if req.IsSensitiveHeader("Idempotency-Key") {
		t.Error("Idempotency-Key should not be sensitive")
	}

	headers := req.RedactedHeaders()
	if headers["Authorization"] != RedactedValue {
		t.Errorf("expected redacted authorization, got %q", headers["Authorization"])
	}
	if headers["Idempotency-Key"] != "key-1" {
		t.Errorf("expected idempotency key, got %q", headers["Idempotency-Key"])
	}
	for _, v := range headers {
		if strings.Contains(v, "secret-token") {
			t.Fatal("secret leaked into rendered headers")
		}
	}
	if got := req.Header.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("wire value should be untouched, got %q", got)
	}
}

func TestRequest_CloneIsIndependent(t *testing.T) {
	req := NewRequest(http.MethodPost, "/payments").SetBody([]byte(`{"a":1}`), "application/json")
	req.Query = map[string]string{"q": "1"}
	req.SetSensitiveHeader("Authorization", "Bearer a")

	clone := req.Clone()
	clone.Header.Set("Tl-Signature", "sig")
	clone.Body[0] = 'X'
	clone.Query["q"] = "2"
	clone.SetSensitiveHeader("X-Secret", "s")

	if req.Header.Get("Tl-Signature") != "" {
		t.Error("clone header leaked into original")
	}
	if req.Body[0] != '{' {
		t.Error("clone body leaked into original")
	}
	if req.Query["q"] != "1" {
		t.Error("clone query leaked into original")
	}
	if req.IsSensitiveHeader("X-Secret") {
		t.Error("clone sensitivity leaked into original")
	}
	if !clone.IsSensitiveHeader("Authorization") {
		t.Error("clone should keep sensitive flags")
	}
}

func TestRequest_URLPath(t *testing.T) {
	tests := map[string]string{
		"/payments?limit=1":                       "/payments",
		"https://api.example.com/v3/payments/abc": "/v3/payments/abc",
		"/connect/token":                          "/connect/token",
	}
	for in, want := range tests {
		req := NewRequest(http.MethodGet, in)
		if got := req.URLPath(); got != want {
			t.Errorf("URLPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequest_BodyKinds(t *testing.T) {
	req := NewRequest("post", "/x")
	if req.Method != http.MethodPost {
		t.Errorf("expected upper-cased method, got %s", req.Method)
	}

	req.SetStream(strings.NewReader("data"), "")
	if !req.IsStreaming() || req.Body != nil {
		t.Error("SetStream should switch to streaming")
	}

	req.SetBody([]byte("data"), "text/plain")
	if req.IsStreaming() {
		t.Error("SetBody should clear the stream")
	}
	if req.Header.Get("Content-Type") != "text/plain" {
		t.Errorf("expected content type, got %q", req.Header.Get("Content-Type"))
	}
}
