package client

import "fmt"

// Default service URLs.
const (
	LiveAuthURL          = "https://auth.truelayer.com"
	LivePaymentsURL      = "https://api.truelayer.com"
	LiveHostedPageURL    = "https://payment.truelayer.com"
	SandboxAuthURL       = "https://auth.truelayer-sandbox.com"
	SandboxPaymentsURL   = "https://api.truelayer-sandbox.com"
	SandboxHostedPageURL = "https://payment.truelayer-sandbox.com"
)

// Environment is the set of base URLs the client talks to.
type Environment struct {
	Name          string `yaml:"name" mapstructure:"name"`
	AuthURL       string `yaml:"auth_url" mapstructure:"auth_url" validate:"required,url"`
	PaymentsURL   string `yaml:"payments_url" mapstructure:"payments_url" validate:"required,url"`
	HostedPageURL string `yaml:"hosted_page_url" mapstructure:"hosted_page_url" validate:"required,url"`
}

// Live is the production environment.
func Live() Environment {
	return Environment{Name: "live", AuthURL: LiveAuthURL, PaymentsURL: LivePaymentsURL, HostedPageURL: LiveHostedPageURL}
}

// Sandbox is the testing environment.
func Sandbox() Environment {
	return Environment{Name: "sandbox", AuthURL: SandboxAuthURL, PaymentsURL: SandboxPaymentsURL, HostedPageURL: SandboxHostedPageURL}
}

// Custom returns an environment with explicit URLs.
func Custom(authURL, paymentsURL, hostedPageURL string) Environment {
	return Environment{Name: "custom", AuthURL: authURL, PaymentsURL: paymentsURL, HostedPageURL: hostedPageURL}
}

// SingleURL returns a custom environment serving everything from one base
// URL, as a mock server does.
func SingleURL(url string) Environment {
	return Custom(url, url, url)
}

// EnvironmentByName resolves "live" or "sandbox".
func EnvironmentByName(name string) (Environment, error) {
	switch name {
	case "live", "":
		return Live(), nil
	case "sandbox":
		return Sandbox(), nil
	default:
		return Environment{}, fmt.Errorf("client: unknown environment %q", name)
	}
}
