package mockserver

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kbukum/payclient/signing"
)

const bodyKey = "mockserver.body"

func (s *Server) handleToken(c *gin.Context) {
	if s.injected(c) {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !gjson.ValidBytes(body) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	req := gjson.ParseBytes(body)
	grant := req.Get("grant_type").String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.grants = append(s.state.grants, grant)
	s.state.tokenBodies = append(s.state.tokenBodies, body)

	if req.Get("client_id").String() != s.cfg.ClientID || req.Get("client_secret").String() != s.cfg.ClientSecret {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	switch grant {
	case "client_credentials":
	case "authorization_code":
		if req.Get("code").String() == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":         "invalid_grant",
				"error_details": gin.H{"code": "missing"},
			})
			return
		}
	case "refresh_token":
		if !s.state.refreshTokens[req.Get("refresh_token").String()] {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_grant",
				"error_description": "unknown refresh token",
			})
			return
		}
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}

	access := "at-" + uuid.NewString()
	s.state.accessTokens[access] = true
	resp := gin.H{"token_type": s.cfg.TokenType, "access_token": access}
	if s.cfg.ExpiresIn > 0 {
		resp["expires_in"] = int64(s.cfg.ExpiresIn / time.Second)
	}
	if s.cfg.IssueRefreshTokens {
		refresh := "rt-" + uuid.NewString()
		s.state.refreshTokens[refresh] = true
		resp["refresh_token"] = refresh
	}
	c.JSON(http.StatusOK, resp)
}

// TokenBodies returns the raw JSON body of every token request.
func (s *Server) TokenBodies() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.state.tokenBodies...)
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		s.mu.Lock()
		valid := ok && s.state.accessTokens[token]
		s.mu.Unlock()
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		c.Next()
	}
}

// verifySignature buffers the body and checks Tl-Signature against it.
func (s *Server) verifySignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			problem(c, http.StatusBadRequest, "Invalid Request", "unreadable body", nil)
			return
		}
		c.Set(bodyKey, body)

		if s.cfg.SigningKey == nil {
			c.Next()
			return
		}
		err = signing.Verify(s.cfg.SigningKey, c.GetHeader(signing.HeaderSignature),
			c.Request.Method, c.Request.URL.EscapedPath(), c.Request.Header, body)
		if err != nil {
			problem(c, http.StatusUnauthorized, "Invalid Signature", err.Error(), nil)
			return
		}
		c.Next()
	}
}

func (s *Server) handleCreatePayment(c *gin.Context) {
	s.mu.Lock()
	s.state.paymentPosts++
	s.mu.Unlock()

	if s.injected(c) {
		return
	}

	key := c.GetHeader(signing.HeaderIdempotencyKey)
	if key == "" {
		problem(c, http.StatusBadRequest, "Missing Idempotency Key", "Idempotency-Key header is required", nil)
		return
	}

	raw := c.MustGet(bodyKey).([]byte)
	body := gjson.ParseBytes(raw)
	if fields := validatePayment(body); len(fields) > 0 {
		problem(c, http.StatusBadRequest, "Invalid Parameters", "Some fields are invalid", fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.state.idempotency[key]; ok {
		c.JSON(http.StatusCreated, s.state.payments[id].created201())
		return
	}

	p := &payment{
		id:       uuid.NewString(),
		body:     body.Value().(map[string]any),
		created:  time.Now().UTC(),
		token:    "rs-" + uuid.NewString(),
		statuses: s.cfg.Statuses,
	}
	s.state.payments[p.id] = p
	s.state.idempotency[key] = p.id
	c.JSON(http.StatusCreated, p.created201())
}

func (s *Server) handleGetPayment(c *gin.Context) {
	if s.injected(c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.state.payments[c.Param("id")]
	if !ok {
		problem(c, http.StatusNotFound, "Not Found", "payment not found", nil)
		return
	}
	c.JSON(http.StatusOK, p.snapshot())
	p.reads++
}

func validatePayment(body gjson.Result) map[string][]string {
	fields := map[string][]string{}
	if !body.IsObject() {
		fields["body"] = []string{"must be a JSON object"}
		return fields
	}
	if body.Get("amount_in_minor").Uint() == 0 {
		fields["amount_in_minor"] = append(fields["amount_in_minor"], "must be greater than 0")
	}
	if body.Get("currency").String() == "" {
		fields["currency"] = append(fields["currency"], "is required")
	}
	if !body.Get("payment_method.type").Exists() {
		fields["payment_method.type"] = append(fields["payment_method.type"], "is required")
	}
	return fields
}

func (p *payment) status() string {
	i := min(p.reads, len(p.statuses)-1)
	return p.statuses[i]
}

func (p *payment) created201() gin.H {
	return gin.H{
		"id":             p.id,
		"resource_token": p.token,
		"user":           gin.H{"id": "user-" + p.id[:8]},
		"status":         "authorization_required",
	}
}

func (p *payment) snapshot() gin.H {
	out := gin.H{
		"id":              p.id,
		"amount_in_minor": p.body["amount_in_minor"],
		"currency":        p.body["currency"],
		"payment_method":  p.body["payment_method"],
		"user":            gin.H{"id": "user-" + p.id[:8]},
		"created_at":      p.created.Format(time.RFC3339Nano),
		"status":          p.status(),
	}
	if md, ok := p.body["metadata"]; ok {
		out["metadata"] = md
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	switch p.status() {
	case "executed":
		out["executed_at"] = now
	case "settled":
		out["executed_at"] = now
		out["settled_at"] = now
	case "failed":
		out["failed_at"] = now
		out["failure_stage"] = "authorizing"
		out["failure_reason"] = "provider_rejected"
	}
	return out
}
