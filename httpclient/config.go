package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout              = 30 * time.Second
	defaultHTTP2ReadIdleTimeout = 30 * time.Second
)

// Config configures the base transport.
type Config struct {
	// BaseURL is the base URL prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single physical request. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures TLS settings for the transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// DisableHTTP2 keeps the transport on HTTP/1.1.
	DisableHTTP2 bool `yaml:"disable_http2" mapstructure:"disable_http2"`

	// HTTP2ReadIdleTimeout is the idle period after which an HTTP/2
	// connection is health-checked with a ping. Defaults to 30s.
	HTTP2ReadIdleTimeout time.Duration `yaml:"http2_read_idle_timeout" mapstructure:"http2_read_idle_timeout"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.HTTP2ReadIdleTimeout <= 0 {
		c.HTTP2ReadIdleTimeout = defaultHTTP2ReadIdleTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return nil
}
