package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
)

// RedactedValue replaces sensitive header values wherever requests are rendered.
const RedactedValue = "[REDACTED]"

// Request describes an outbound HTTP request as it travels through the
// middleware chain. Middlewares receive their own clone per attempt, so
// mutating a request never leaks into a retry of it.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL.
	Path string
	// Query are URL query parameters.
	Query map[string]string
	// Header holds request headers.
	Header http.Header
	// Body is the fully materialized request body, if any.
	Body []byte
	// Stream is a streaming body. It can be neither signed nor replayed.
	Stream io.Reader

	sensitive map[string]struct{}
}

// NewRequest creates a request with an empty header map.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Header: make(http.Header),
	}
}

// SetHeader sets a header, replacing existing values.
func (r *Request) SetHeader(name, value string) *Request {
	r.ensureHeader()
	r.Header.Set(name, value)
	return r
}

// SetSensitiveHeader sets a header whose value must never be rendered in
// logs or traces.
func (r *Request) SetSensitiveHeader(name, value string) *Request {
	r.SetHeader(name, value)
	if r.sensitive == nil {
		r.sensitive = make(map[string]struct{})
	}
	r.sensitive[http.CanonicalHeaderKey(name)] = struct{}{}
	return r
}

// IsSensitiveHeader reports whether the named header was flagged sensitive.
func (r *Request) IsSensitiveHeader(name string) bool {
	_, ok := r.sensitive[http.CanonicalHeaderKey(name)]
	return ok
}

// SetBody sets a fully materialized body and its content type.
func (r *Request) SetBody(body []byte, contentType string) *Request {
	r.Body = body
	r.Stream = nil
	if contentType != "" {
		r.SetHeader("Content-Type", contentType)
	}
	return r
}

// SetJSON encodes v as the request body.
func (r *Request) SetJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("httpclient: encode body: %w", err)
	}
	r.SetBody(data, "application/json")
	return nil
}

// SetStream sets a streaming body.
func (r *Request) SetStream(body io.Reader, contentType string) *Request {
	r.Stream = body
	r.Body = nil
	if contentType != "" {
		r.SetHeader("Content-Type", contentType)
	}
	return r
}

// IsStreaming reports whether the body is a stream rather than bytes.
func (r *Request) IsStreaming() bool {
	return r.Stream != nil
}

// URLPath returns the path component of Path, without query or host.
func (r *Request) URLPath() string {
	u, err := url.Parse(r.Path)
	if err != nil {
		return r.Path
	}
	return u.EscapedPath()
}

// RedactedHeaders returns a flat copy of the headers with sensitive
// values replaced by RedactedValue.
func (r *Request) RedactedHeaders() map[string]string {
	result := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if r.IsSensitiveHeader(k) {
			result[k] = RedactedValue
			continue
		}
		result[k] = strings.Join(v, ", ")
	}
	return result
}

// Clone returns a deep copy of the request. A streaming body is shared,
// since it cannot be duplicated.
func (r *Request) Clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	c.Query = maps.Clone(r.Query)
	c.sensitive = maps.Clone(r.sensitive)
	if r.Body != nil {
		c.Body = bytes.Clone(r.Body)
	}
	return &c
}

func (r *Request) ensureHeader() {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status line, e.g. "200 OK".
	Status string
	// Header holds the response headers.
	Header http.Header
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("httpclient: decode response body: %w", err)
	}
	return nil
}
