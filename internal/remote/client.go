// Package remote is the storefront client's only path to the HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 15 * time.Second

	responseBodyLimit int64 = 1 << 20

	HeaderRequestID      = "X-Request-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
)

type requestIDKey struct{}

// WithRequestID makes calls made with ctx reuse requestID instead of minting
// their own, so one console request can be traced into the API.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// TokenSource yields the bearer token held for a role.
type TokenSource interface {
	Token(role enums.Role) (string, bool)
}

// Client calls the storefront API. It never retries and never logs a failure
// without returning it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	tokens     TokenSource
	metrics    *metrics.RemoteMetrics
	logg       *logger.Logger
	validate   *validator.Validate
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every call. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithMetrics(m *metrics.RemoteMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// NewClient builds a client for baseURL that reads bearer tokens from tokens.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "api base url is required")
	}
	if tokens == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "token source is required")
	}

	client := &Client{
		httpClient: &http.Client{},
		baseURL:    trimmed,
		timeout:    DefaultTimeout,
		tokens:     tokens,
		logg:       logger.Nop(),
		validate:   newValidator(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type authMode int

const (
	authNone authMode = iota
	// authAny sends the most privileged token held, or nothing.
	authAny
	authAdmin
	// authCustomer sends the customer token when one is held.
	authCustomer
)

type call struct {
	op      string
	method  string
	path    string
	auth    authMode
	body    any
	headers map[string]string
	out     any
	// accept reports extra statuses that count as success.
	accept func(status int) bool
}

// send performs one call. A nil error means a 2xx (or accepted) response was
// received and, when out is set, decoded into it.
func (c *Client) send(ctx context.Context, cl call) (status int, err error) {
	start := time.Now()
	ctx = c.logg.WithOperation(ctx, cl.op)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = strings.ToLower(string(pkgerrors.CodeOf(err)))
		}
		c.metrics.Observe(cl.op, outcome, time.Since(start))
	}()

	token, err := c.bearer(cl.auth)
	if err != nil {
		return 0, err
	}

	var payload io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+cl.op+" request")
		}
		payload = bytes.NewReader(raw)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, cl.method, c.baseURL+cl.path, payload)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+cl.op+" request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := requestIDFrom(ctx)
	req.Header.Set(HeaderRequestID, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}
	ctx = c.logg.WithRequestID(ctx, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeTransport, err, cl.op+" request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "read "+cl.op+" response")
	}

	accepted := cl.accept != nil && cl.accept(resp.StatusCode)
	if (resp.StatusCode < 200 || resp.StatusCode > 299) && !accepted {
		remoteErr := pkgerrors.Remote(resp.StatusCode, remoteMessage(body))
		c.logg.Debug(c.logg.WithField(ctx, "status", resp.StatusCode), "remote call rejected")
		return resp.StatusCode, remoteErr
	}

	if cl.out != nil && !accepted {
		if err := json.Unmarshal(body, cl.out); err != nil {
			return resp.StatusCode, invalidResponse(resp.StatusCode, cl.op, err)
		}
	}
	c.logg.Debug(c.logg.WithField(ctx, "status", resp.StatusCode), "remote call completed")
	return resp.StatusCode, nil
}

func (c *Client) bearer(mode authMode) (string, error) {
	switch mode {
	case authAdmin:
		token, ok := c.tokens.Token(enums.RoleAdmin)
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "admin login required")
		}
		return token, nil
	case authCustomer:
		token, _ := c.tokens.Token(enums.RoleCustomer)
		return token, nil
	case authAny:
		for _, role := range enums.RolesByPrivilege() {
			if token, ok := c.tokens.Token(role); ok {
				return token, nil
			}
		}
	}
	return "", nil
}

func remoteMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	// The console nests {error: {message}}; the API sends {error: "..."}.
	switch v := parsed.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}

func invalidResponse(status int, op string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInvalidResponse, err, "invalid "+op+" response").WithStatus(status)
}
