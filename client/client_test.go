package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/payclient/auth"
	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/payments"
	"github.com/kbukum/payclient/pollable"
	"github.com/kbukum/payclient/resilience"
	"github.com/kbukum/payclient/signing"
	"github.com/kbukum/payclient/testutil"
	"github.com/kbukum/payclient/testutil/mockserver"
)

var testGrant = auth.ClientCredentials{
	ClientIdentity: auth.ClientIdentity{ClientID: "client-id", ClientSecret: "client-secret"},
	Scope:          "payments",
}

func fastRetries() resilience.Policy {
	return resilience.MaxRetries(3, resilience.PolicyFunc(func(int) resilience.Decision {
		return resilience.RetryAfter(time.Millisecond)
	}))
}

func fastPoll() pollable.Options {
	return pollable.Options{Policy: resilience.MaxRetries(10, resilience.PolicyFunc(func(int) resilience.Decision {
		return resilience.RetryAfter(0)
	})), MinInterval: time.Millisecond}
}

func startServer(t *testing.T, cfg mockserver.Config) *mockserver.Server {
	t.Helper()
	srv := mockserver.New(cfg)
	testutil.T(t).Setup(srv)
	return srv
}

func newClient(t *testing.T, srv *mockserver.Server, grant auth.Grant, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithEnvironment(SingleURL(srv.URL())),
		WithHTTPClient(srv.Client()),
		WithRetryPolicy(fastRetries()),
	}, opts...)
	c, err := New(grant, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func validPayment() payments.CreateRequest {
	return payments.CreateRequest{
		AmountInMinor: 100,
		Currency:      payments.CurrencyGBP,
		PaymentMethod: payments.PaymentMethod{
			Type:              "bank_transfer",
			ProviderSelection: payments.ProviderSelection{Type: "user_selected"},
			Beneficiary: payments.Beneficiary{
				Type:              "merchant_account",
				MerchantAccountID: "merchant-1",
				Reference:         "ref",
			},
		},
		User: payments.User{Name: "Jane", Email: "jane@example.com"},
	}
}

func TestClient_AccessTokenIsCached(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)

	first, err := c.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	second, err := c.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if first.AccessToken.Token.Expose() != second.AccessToken.Token.Expose() {
		t.Error("expected the cached token to be reused")
	}
	if srv.TokenRequests() != 1 {
		t.Errorf("expected 1 token request, got %d", srv.TokenRequests())
	}
}

func TestClient_ConcurrentCallersShareOneTokenRequest(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.AccessToken(context.Background())
			if err == nil {
				tokens[i] = res.AccessToken.Token.Expose()
			}
		}(i)
	}
	wg.Wait()

	for _, tok := range tokens {
		if tok == "" || tok != tokens[0] {
			t.Fatalf("expected one shared token, got %v", tokens)
		}
	}
	if srv.TokenRequests() != 1 {
		t.Errorf("expected 1 token request, got %d", srv.TokenRequests())
	}
}

func TestClient_GrantRotatesToRefreshToken(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour, IssueRefreshTokens: true})

	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	c := newClient(t, srv, testGrant, WithClock(clock))

	if _, err := c.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	mu.Lock()
	now = now.Add(55 * time.Minute)
	mu.Unlock()
	if _, err := c.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken after expiry: %v", err)
	}

	want := []string{"client_credentials", "refresh_token"}
	if got := srv.GrantTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected grants %v, got %v", want, got)
	}
}

func TestClient_InvalidCredentials(t *testing.T) {
	srv := startServer(t, mockserver.Config{})
	grant := testGrant
	grant.ClientSecret = "wrong"
	c := newClient(t, srv, grant)

	_, err := c.AccessToken(context.Background())
	apiErr, ok := clienterrors.AsAPIError(err)
	if !ok {
		t.Fatalf("expected API error, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Title != "invalid_client" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if apiErr.TraceID == "" {
		t.Error("expected the correlation id as trace id")
	}
}

func TestClient_CreateSignedPaymentAndWait(t *testing.T) {
	key := newKey(t)
	signer, err := signing.NewSignerFromKey("kid-1", key)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour, SigningKey: &key.PublicKey})
	c := newClient(t, srv, testGrant, WithSigner(signer))

	created, err := c.Payments.Create(context.Background(), validPayment())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Status != payments.StatusAuthorizationRequired {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if created.ResourceToken.IsZero() {
		t.Error("expected a resource token")
	}

	p, err := c.Payments.WaitForTerminalState(context.Background(), created.ID, fastPoll())
	if err != nil {
		t.Fatalf("WaitForTerminalState: %v", err)
	}
	if p.Status != payments.StatusExecuted || p.ExecutedAt == nil {
		t.Errorf("expected executed payment, got %+v", p)
	}
	if p.AmountInMinor != 100 || p.Currency != "GBP" {
		t.Errorf("unexpected payment fields: %+v", p)
	}
}

func TestClient_RejectsWrongSigningKey(t *testing.T) {
	signer, err := signing.NewSignerFromKey("kid-1", newKey(t))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour, SigningKey: &newKey(t).PublicKey})
	c := newClient(t, srv, testGrant, WithSigner(signer))

	_, err = c.Payments.Create(context.Background(), validPayment())
	apiErr, ok := clienterrors.AsAPIError(err)
	if !ok || apiErr.Status != http.StatusUnauthorized || apiErr.Title != "Invalid Signature" {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
}

func TestClient_CreateRetriedWithSameIdempotencyKey(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)
	srv.FailNext("POST /payments", http.StatusServiceUnavailable, http.StatusTooManyRequests)

	if _, err := c.Payments.Create(context.Background(), validPayment()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if srv.PaymentPosts() != 3 {
		t.Errorf("expected 3 attempts, got %d", srv.PaymentPosts())
	}
	if srv.Payments() != 1 {
		t.Errorf("expected a single payment, got %d", srv.Payments())
	}
}

func TestClient_PostWithoutKeyIsNotRetried(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)
	srv.FailNext("POST /payments", http.StatusServiceUnavailable)

	req := httpclient.NewRequest(http.MethodPost, "/payments").SetBody([]byte(`{}`), "application/json")
	_, err := c.Do(context.Background(), req)

	apiErr, ok := clienterrors.AsAPIError(err)
	if !ok || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
	if srv.PaymentPosts() != 1 {
		t.Errorf("expected a single attempt, got %d", srv.PaymentPosts())
	}
}

func TestClient_CircuitBreakerFailsFast(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "payments", MaxFailures: 2, OpenTimeout: time.Hour})
	c := newClient(t, srv, testGrant, WithoutRetry(), WithCircuitBreaker(breaker))
	srv.FailNext("GET /payments/:id", http.StatusBadGateway, http.StatusBadGateway)

	for i := 0; i < 2; i++ {
		if _, err := c.Payments.Get(context.Background(), "p-1"); !clienterrors.IsAPI(err) {
			t.Fatalf("call %d: expected API error, got %v", i, err)
		}
	}
	if _, err := c.Payments.Get(context.Background(), "p-1"); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected an open circuit, got %v", err)
	}
	if _, err := c.AccessToken(context.Background()); err != nil {
		t.Errorf("token endpoint must not be guarded: %v", err)
	}
}

func TestClient_ValidationErrorsAreNormalized(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)

	err := c.DoJSON(context.Background(), http.MethodPost, "/payments", map[string]any{"currency": ""}, nil)
	apiErr, ok := clienterrors.AsAPIError(err)
	if !ok {
		t.Fatalf("expected API error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Title != "Invalid Parameters" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if len(apiErr.Errors["amount_in_minor"]) != 1 || len(apiErr.Errors["currency"]) != 1 {
		t.Errorf("expected field errors, got %v", apiErr.Errors)
	}
	if apiErr.TraceID == "" || apiErr.Type == "" {
		t.Errorf("expected type and trace id, got %+v", apiErr)
	}
}

func TestClient_GetMissingPayment(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)

	_, err := c.Payments.Get(context.Background(), "missing")
	if !payments.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = c.Payments.WaitForTerminalState(context.Background(), "missing", fastPoll())
	if clienterrors.KindOf(err) != clienterrors.KindOther {
		t.Errorf("expected Other while polling a missing payment, got %v", err)
	}
}

func TestClient_ClosedClient(t *testing.T) {
	srv := startServer(t, mockserver.Config{ExpiresIn: time.Hour})
	c := newClient(t, srv, testGrant)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := c.AccessToken(context.Background())
	if !errors.Is(err, auth.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestNew_RejectsInvalidSetup(t *testing.T) {
	if _, err := New(testGrant, WithEnvironment(Custom("not a url", "", ""))); err == nil {
		t.Error("expected invalid environment to fail")
	}
	if _, err := New(testGrant, WithSigningKey("kid", []byte("not pem"))); err == nil {
		t.Error("expected invalid signing key to fail")
	}
	if _, err := New(auth.ClientCredentials{}); err == nil {
		t.Error("expected invalid grant to fail")
	}
}

func TestEnvironmentByName(t *testing.T) {
	live, err := EnvironmentByName("live")
	if err != nil || live != Live() {
		t.Errorf("expected live, got %+v, %v", live, err)
	}
	sandbox, err := EnvironmentByName("sandbox")
	if err != nil || sandbox.AuthURL != SandboxAuthURL {
		t.Errorf("expected sandbox, got %+v, %v", sandbox, err)
	}
	if _, err := EnvironmentByName("staging"); err == nil {
		t.Error("expected an unknown environment to fail")
	}
}

func TestClient_ResolvesRelativePaths(t *testing.T) {
	c := &Client{env: Custom("https://auth.test", "https://api.test/", "https://hpp.test")}
	if got := c.resolve("/payments/1"); got != "https://api.test/payments/1" {
		t.Errorf("unexpected resolution %q", got)
	}
	if got := c.resolve("https://other.test/x"); got != "https://other.test/x" {
		t.Errorf("absolute URLs must be kept, got %q", got)
	}
}
