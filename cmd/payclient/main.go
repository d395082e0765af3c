// Command payclient authenticates against the payments platform and can
// create a payment and wait for it to settle.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kbukum/payclient/client"
	"github.com/kbukum/payclient/config"
	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/observability"
	"github.com/kbukum/payclient/payments"
	"github.com/kbukum/payclient/version"
)

type flags struct {
	configPath string
	envFile    string
	showVer    bool

	create     bool
	paymentID  string
	wait       bool
	amount     uint64
	currency   string
	merchantID string
	userName   string
	userEmail  string
	returnURI  string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Config file path")
	flag.StringVar(&f.envFile, "env-file", "", "Env file path")
	flag.BoolVar(&f.showVer, "version", false, "Print version and exit")
	flag.BoolVar(&f.create, "create", false, "Create a payment")
	flag.StringVar(&f.paymentID, "payment", "", "Fetch the payment with this id")
	flag.BoolVar(&f.wait, "wait", false, "Wait for the payment to reach a terminal status")
	flag.Uint64Var(&f.amount, "amount", 1, "Amount in minor units")
	flag.StringVar(&f.currency, "currency", payments.CurrencyGBP, "Currency code")
	flag.StringVar(&f.merchantID, "merchant-account", "", "Beneficiary merchant account id")
	flag.StringVar(&f.userName, "user-name", "", "Payer name")
	flag.StringVar(&f.userEmail, "user-email", "", "Payer email")
	flag.StringVar(&f.returnURI, "return-uri", "", "Return URI for the hosted payment page link")
	flag.Parse()

	if f.showVer {
		fmt.Println(version.Get().Short())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		fmt.Fprintln(os.Stderr, "payclient:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	var cfg config.ClientConfig
	loadOpts := []config.LoaderOption{config.WithLogger(logger.NewFromEnv("payclient"))}
	if f.configPath != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(f.configPath))
	}
	if f.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(f.envFile))
	}
	if err := config.Load("payclient", &cfg, loadOpts...); err != nil {
		return err
	}

	log := logger.New(&cfg.Logging, cfg.Name)

	opts, shutdown, err := clientOptions(ctx, &cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	grant, err := cfg.Grant()
	if err != nil {
		return err
	}
	c, err := client.New(grant, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	tok, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}
	log.Info("authenticated", map[string]interface{}{
		"environment": c.Environment().Name,
		"expires_at":  tok.AccessToken.ExpiresAt,
	})

	id := f.paymentID
	if f.create {
		created, err := c.Payments.Create(ctx, paymentRequest(f))
		if err != nil {
			return err
		}
		id = created.ID
		log.Info("payment created", map[string]interface{}{"payment_id": id, "status": created.Status})
		if f.returnURI != "" {
			fmt.Println(c.Payments.HostedPageLink(id, created.ResourceToken, f.returnURI))
		}
	}
	if id == "" {
		return nil
	}

	var p *payments.Payment
	if f.wait {
		p, err = c.Payments.WaitForTerminalState(ctx, id, cfg.PollOptions())
	} else {
		p, err = c.Payments.Get(ctx, id)
	}
	if err != nil {
		return err
	}
	return printJSON(p)
}

// clientOptions maps the configuration onto client options and starts
// telemetry exporters when enabled.
func clientOptions(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) ([]client.Option, func(), error) {
	env, err := environment(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []client.Option{
		client.WithEnvironment(env),
		client.WithHTTPConfig(cfg.HTTP),
		client.WithLogger(log),
	}
	if cfg.Retry.Disabled {
		opts = append(opts, client.WithoutRetry())
	} else {
		opts = append(opts, client.WithRetryPolicy(cfg.RetryPolicy()))
	}

	if cb := cfg.CircuitBreaker(); cb != nil {
		opts = append(opts, client.WithCircuitBreaker(cb))
	}
	if rl := cfg.RateLimiter(); rl != nil {
		opts = append(opts, client.WithRateLimiter(rl))
	}
	if b := cfg.Bulkhead(); b != nil {
		opts = append(opts, client.WithMaxConcurrency(b))
	}

	key, err := cfg.SigningKey()
	if err != nil {
		return nil, nil, err
	}
	if key != nil {
		opts = append(opts, client.WithSigningKey(cfg.Signing.KeyID, key))
	}

	var closers []func(context.Context) error
	if cfg.Tracing.Enabled {
		cfg.Tracing.ServiceVersion = version.Version
		tp, err := observability.InitTracer(ctx, cfg.Tracing, log)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, tp.Shutdown)
		opts = append(opts, client.WithTracer(tp.Tracer(observability.InstrumentationName)))
	}
	if cfg.Metrics.Enabled {
		cfg.Metrics.ServiceVersion = version.Version
		mp, err := observability.InitMeter(ctx, cfg.Metrics, log)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, mp.Shutdown)
		metrics, err := observability.NewMetrics(mp.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, client.WithMetrics(metrics))
	}

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, fn := range closers {
			if err := fn(sctx); err != nil {
				log.WithError(err).Warn("telemetry shutdown failed")
			}
		}
	}
	return opts, shutdown, nil
}

func environment(cfg *config.ClientConfig) (client.Environment, error) {
	if cfg.Environment == "custom" {
		return client.Custom(cfg.URLs.Auth, cfg.URLs.Payments, cfg.URLs.HostedPage), nil
	}
	return client.EnvironmentByName(cfg.Environment)
}

func paymentRequest(f flags) payments.CreateRequest {
	return payments.CreateRequest{
		AmountInMinor: f.amount,
		Currency:      f.currency,
		PaymentMethod: payments.PaymentMethod{
			Type:              "bank_transfer",
			ProviderSelection: payments.ProviderSelection{Type: "user_selected"},
			Beneficiary: payments.Beneficiary{
				Type:              "merchant_account",
				MerchantAccountID: f.merchantID,
			},
		},
		User: payments.User{Name: f.userName, Email: f.userEmail},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
