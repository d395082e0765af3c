package mockserver

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationIDHeader is set on every response.
const CorrelationIDHeader = "X-Tl-Correlation-Id"

// Config configures the mock API.
type Config struct {
	// ClientID and ClientSecret are the accepted client credentials.
	ClientID     string
	ClientSecret string

	// ExpiresIn is the lifetime reported for issued tokens. Zero omits
	// expires_in from the token response.
	ExpiresIn time.Duration

	// IssueRefreshTokens adds a refresh_token to every token response.
	IssueRefreshTokens bool

	// TokenType overrides the reported token type. Defaults to "Bearer".
	TokenType string

	// SigningKey verifies Tl-Signature on mutating payment requests. Nil
	// disables verification.
	SigningKey *ecdsa.PublicKey

	// Statuses is the sequence a payment goes through, one step per read.
	// Defaults to authorization_required, authorizing, authorized, executed.
	Statuses []string
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "client-id"
	}
	if c.ClientSecret == "" {
		c.ClientSecret = "client-secret"
	}
	if c.TokenType == "" {
		c.TokenType = "Bearer"
	}
	if len(c.Statuses) == 0 {
		c.Statuses = []string{"authorization_required", "authorizing", "authorized", "executed"}
	}
}

// Server is an in-process payments API: a token endpoint, payment
// creation with signature and idempotency checks, and payment reads that
// walk through Config.Statuses.
type Server struct {
	cfg    Config
	engine *gin.Engine
	srv    *httptest.Server

	mu       sync.Mutex
	state    state
	failures map[string][]int
}

type state struct {
	grants        []string
	tokenBodies   [][]byte
	accessTokens  map[string]bool
	refreshTokens map[string]bool
	payments      map[string]*payment
	idempotency   map[string]string
	paymentPosts  int
}

type payment struct {
	id       string
	body     map[string]any
	created  time.Time
	reads    int
	token    string
	statuses []string
}

// New builds a server. Call Start before use.
func New(cfg Config) *Server {
	cfg.applyDefaults()
	gin.SetMode(gin.TestMode)

	s := &Server{cfg: cfg, failures: make(map[string][]int)}
	s.state = newState()

	engine := gin.New()
	engine.Use(gin.Recovery(), correlationID())
	engine.POST("/connect/token", s.handleToken)
	api := engine.Group("/payments", s.authenticate())
	api.POST("", s.verifySignature(), s.handleCreatePayment)
	api.GET("/:id", s.handleGetPayment)
	s.engine = engine
	return s
}

func newState() state {
	return state{
		accessTokens:  make(map[string]bool),
		refreshTokens: make(map[string]bool),
		payments:      make(map[string]*payment),
		idempotency:   make(map[string]string),
	}
}

// Name implements testutil.TestComponent.
func (s *Server) Name() string { return "mockserver" }

// Start listens on a random local port.
func (s *Server) Start(context.Context) error {
	if s.srv != nil {
		return fmt.Errorf("mockserver: already started")
	}
	s.srv = httptest.NewServer(s.engine)
	return nil
}

// Stop closes the listener.
func (s *Server) Stop(context.Context) error {
	if s.srv != nil {
		s.srv.Close()
		s.srv = nil
	}
	return nil
}

// Reset forgets issued tokens, payments and queued failures.
func (s *Server) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = newState()
	s.failures = make(map[string][]int)
	return nil
}

// URL is the base URL of the running server.
func (s *Server) URL() string {
	if s.srv == nil {
		return ""
	}
	return s.srv.URL
}

// Client returns an *http.Client that talks to the server.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// FailNext makes the next requests to route fail with the given statuses,
// one per request. route is "METHOD /path", e.g. "POST /payments".
func (s *Server) FailNext(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], statuses...)
}

// TokenRequests returns the number of token requests received.
func (s *Server) TokenRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.grants)
}

// GrantTypes returns the grant_type of every token request, in order.
func (s *Server) GrantTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.grants...)
}

// PaymentPosts returns the number of payment creation requests received,
// failed and replayed ones included.
func (s *Server) PaymentPosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.paymentPosts
}

// Payments returns the number of distinct payments created.
func (s *Server) Payments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.payments)
}

// takeFailure pops the next injected status for route, or 0.
func (s *Server) takeFailure(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.failures[route]
	if len(queue) == 0 {
		return 0
	}
	s.failures[route] = queue[1:]
	return queue[0]
}

func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(CorrelationIDHeader, uuid.NewString())
		c.Next()
	}
}

// problem writes an error in the modern shape.
func problem(c *gin.Context, status int, title, detail string, fields map[string][]string) {
	body := gin.H{
		"type":     "https://docs.example.com/errors/" + http.StatusText(status),
		"title":    title,
		"trace_id": c.Writer.Header().Get(CorrelationIDHeader),
		"detail":   detail,
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

// injected aborts with a queued failure status, if any.
func (s *Server) injected(c *gin.Context) bool {
	status := s.takeFailure(c.Request.Method + " " + c.FullPath())
	if status == 0 {
		return false
	}
	problem(c, status, http.StatusText(status), "injected failure", nil)
	return true
}
