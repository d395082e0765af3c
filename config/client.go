package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kbukum/payclient/auth"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/observability"
	"github.com/kbukum/payclient/pollable"
	"github.com/kbukum/payclient/resilience"
	"github.com/kbukum/payclient/validation"
)

// ClientConfig is everything needed to build a payments client.
//
//	name: payclient
//	environment: sandbox
//	credentials:
//	  client_id: my-client
//	  scope: payments
//	signing:
//	  key_id: 0f8c...
//	  private_key_path: ./ec512-private-key.pem
//
// Secrets usually come from the environment, e.g.
// PAYCLIENT_CREDENTIALS_CLIENT_SECRET.
type ClientConfig struct {
	Name        string            `yaml:"name" mapstructure:"name"`
	Environment string            `yaml:"environment" mapstructure:"environment" validate:"oneof=live sandbox custom"`
	URLs        URLConfig         `yaml:"urls" mapstructure:"urls"`
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Signing     SigningConfig     `yaml:"signing" mapstructure:"signing"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Poll        PollConfig        `yaml:"poll" mapstructure:"poll"`
	Guards      GuardsConfig      `yaml:"guards" mapstructure:"guards"`

	HTTP    httpclient.Config          `yaml:"http" mapstructure:"http"`
	Logging logger.Config              `yaml:"logging" mapstructure:"logging"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// URLConfig holds the service URLs of a custom environment.
type URLConfig struct {
	Auth       string `yaml:"auth" mapstructure:"auth" validate:"omitempty,url"`
	Payments   string `yaml:"payments" mapstructure:"payments" validate:"omitempty,url"`
	HostedPage string `yaml:"hosted_page" mapstructure:"hosted_page" validate:"omitempty,url"`
}

// CredentialsConfig describes the grant used to obtain access tokens.
type CredentialsConfig struct {
	GrantType    string      `yaml:"grant_type" mapstructure:"grant_type" validate:"oneof=client_credentials authorization_code refresh_token"`
	ClientID     string      `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	ClientSecret auth.Secret `yaml:"client_secret" mapstructure:"client_secret" validate:"required"`
	Scope        string      `yaml:"scope" mapstructure:"scope"`
	Code         string      `yaml:"code" mapstructure:"code"`
	RedirectURI  string      `yaml:"redirect_uri" mapstructure:"redirect_uri"`
	RefreshToken auth.Secret `yaml:"refresh_token" mapstructure:"refresh_token"`
}

// SigningConfig locates the request signing key. Signing is off when
// KeyID is empty.
type SigningConfig struct {
	KeyID          string      `yaml:"key_id" mapstructure:"key_id"`
	PrivateKeyPath string      `yaml:"private_key_path" mapstructure:"private_key_path"`
	PrivateKeyPEM  auth.Secret `yaml:"private_key_pem" mapstructure:"private_key_pem"`
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	Disabled    bool          `yaml:"disabled" mapstructure:"disabled"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries" validate:"min=0"`
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval" mapstructure:"max_interval"`
	Jitter      float64       `yaml:"jitter" mapstructure:"jitter" validate:"min=0,max=1"`
}

// PollConfig configures waits for payments to settle.
type PollConfig struct {
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval" mapstructure:"max_interval"`
	Total       time.Duration `yaml:"total" mapstructure:"total"`
}

// GuardsConfig turns on the optional request guards. Each guard is off
// while its threshold is zero.
type GuardsConfig struct {
	BreakerFailures    int           `yaml:"breaker_failures" mapstructure:"breaker_failures" validate:"min=0"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout" mapstructure:"breaker_open_timeout"`
	RateLimit          float64       `yaml:"rate_limit" mapstructure:"rate_limit" validate:"min=0"`
	RateBurst          int           `yaml:"rate_burst" mapstructure:"rate_burst" validate:"min=0"`
	MaxConcurrent      int           `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"min=0"`
	MaxWait            time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// ApplyDefaults fills in zero values.
func (c *ClientConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "payclient"
	}
	if c.Environment == "" {
		c.Environment = "sandbox"
	}
	if c.Credentials.GrantType == "" {
		c.Credentials.GrantType = string(auth.GrantClientCredentials)
	}
	if c.Credentials.GrantType == string(auth.GrantClientCredentials) && c.Credentials.Scope == "" {
		c.Credentials.Scope = "payments"
	}

	if c.Retry.MaxRetries == 0 && c.Retry.MinInterval == 0 {
		c.Retry.MaxRetries = 3
		c.Retry.Jitter = 0.1
	}
	if c.Retry.MinInterval <= 0 {
		c.Retry.MinInterval = 100 * time.Millisecond
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = 5 * time.Second
	}

	if c.Poll.MinInterval < pollable.MinInterval {
		c.Poll.MinInterval = pollable.MinInterval
	}
	if c.Poll.MaxInterval <= 0 {
		c.Poll.MaxInterval = 30 * time.Second
	}
	if c.Poll.Total <= 0 {
		c.Poll.Total = 5 * time.Minute
	}

	c.HTTP.ApplyDefaults()
	c.Logging.ApplyDefaults()
	applyTelemetryDefaults(c)
}

func applyTelemetryDefaults(c *ClientConfig) {
	tracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = tracing.ServiceName
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracing.Endpoint
		c.Tracing.Insecure = tracing.Insecure
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = tracing.SampleRate
	}

	metrics := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = metrics.ServiceName
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = metrics.Endpoint
		c.Metrics.Insecure = metrics.Insecure
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = metrics.Interval
	}
}

// Validate checks the configuration. Call ApplyDefaults first.
func (c *ClientConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Environment == "custom" && (c.URLs.Auth == "" || c.URLs.Payments == "" || c.URLs.HostedPage == "") {
		return fmt.Errorf("config.urls: auth, payments and hosted_page are required for a custom environment")
	}
	if c.Signing.KeyID != "" && c.Signing.PrivateKeyPath == "" && c.Signing.PrivateKeyPEM.IsZero() {
		return fmt.Errorf("config.signing: private_key_path or private_key_pem is required with key_id")
	}
	if c.Retry.MaxInterval < c.Retry.MinInterval {
		return fmt.Errorf("config.retry: max_interval must not be below min_interval")
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("config.http: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if _, err := c.Grant(); err != nil {
		return fmt.Errorf("config.credentials: %w", err)
	}
	return nil
}

// Grant builds the credential grant.
func (c *ClientConfig) Grant() (auth.Grant, error) {
	id := auth.ClientIdentity{ClientID: c.Credentials.ClientID, ClientSecret: c.Credentials.ClientSecret}

	var g auth.Grant
	switch auth.GrantType(c.Credentials.GrantType) {
	case auth.GrantClientCredentials:
		g = auth.ClientCredentials{ClientIdentity: id, Scope: c.Credentials.Scope}
	case auth.GrantAuthorizationCode:
		g = auth.AuthorizationCode{ClientIdentity: id, Code: c.Credentials.Code, RedirectURI: c.Credentials.RedirectURI}
	case auth.GrantRefreshToken:
		g = auth.RefreshToken{ClientIdentity: id, Token: c.Credentials.RefreshToken}
	default:
		return nil, fmt.Errorf("unknown grant type %q", c.Credentials.GrantType)
	}
	if err := auth.ValidateGrant(g); err != nil {
		return nil, err
	}
	return g, nil
}

// SigningKey returns the PEM encoded signing key, or nil when signing is
// off.
func (c *ClientConfig) SigningKey() ([]byte, error) {
	if c.Signing.KeyID == "" {
		return nil, nil
	}
	if !c.Signing.PrivateKeyPEM.IsZero() {
		return []byte(c.Signing.PrivateKeyPEM.Expose()), nil
	}
	pem, err := os.ReadFile(c.Signing.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("config.signing: read private key: %w", err)
	}
	return pem, nil
}

// RetryPolicy returns the transient-failure retry policy.
func (c *ClientConfig) RetryPolicy() resilience.Policy {
	b := resilience.NewExponentialBackoff(c.Retry.MinInterval, c.Retry.MaxInterval, c.Retry.MaxRetries)
	b.Jitter = c.Retry.Jitter
	return b
}

// PollOptions returns the options used to wait for payments.
func (c *ClientConfig) PollOptions() pollable.Options {
	return pollable.Options{
		Policy:      resilience.NewExponentialBackoffWithTotalDuration(c.Poll.MinInterval, c.Poll.MaxInterval, c.Poll.Total),
		MinInterval: c.Poll.MinInterval,
	}
}

// CircuitBreaker returns the configured breaker, or nil when off.
func (c *ClientConfig) CircuitBreaker() *resilience.CircuitBreaker {
	if c.Guards.BreakerFailures == 0 {
		return nil
	}
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        c.Name,
		MaxFailures: c.Guards.BreakerFailures,
		OpenTimeout: c.Guards.BreakerOpenTimeout,
	})
}

// RateLimiter returns the configured limiter, or nil when off.
func (c *ClientConfig) RateLimiter() *resilience.RateLimiter {
	if c.Guards.RateLimit == 0 {
		return nil
	}
	return resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: c.Guards.RateLimit, Burst: c.Guards.RateBurst})
}

// Bulkhead returns the configured concurrency cap, or nil when off.
func (c *ClientConfig) Bulkhead() *resilience.Bulkhead {
	if c.Guards.MaxConcurrent == 0 {
		return nil
	}
	return resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: c.Guards.MaxConcurrent, MaxWait: c.Guards.MaxWait})
}
