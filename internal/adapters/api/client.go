// Package api is the HTTP client for the task service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// CorrelationHeader names the request id header the server echoes into its logs.
const CorrelationHeader = "X-Correlation-ID"

// DefaultTimeout bounds one HTTP round trip.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token; "" means anonymous.
type TokenSource interface {
	Token() string
}

// Logger receives request diagnostics.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client. The caller's client is used as is;
// WithTimeout does not modify it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default transport client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithUnauthorized registers the callback run when an authenticated call returns 401.
func WithUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithLogger sets the diagnostics sink.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the task service. It is safe for concurrent use.
type Client struct {
	base           *url.URL
	http           *http.Client
	timeout        time.Duration
	tokens         TokenSource
	onUnauthorized func()
	logger         Logger
	newID          func() string
}

// New constructs a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{
		base:    base,
		timeout: DefaultTimeout,
		logger:  nopLogger{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c, nil
}

// loginRequest is the login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse accepts either token key.
type loginResponse struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// Login exchanges credentials for a session. A 401 here means bad credentials,
// not an expired session, so the unauthorized callback is not run.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   loginRequest{Username: username, Password: password},
		out:    &resp,
	})
	if err != nil {
		if errors.Is(err, app.ErrUnauthorized) {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				apiErr.Err = app.ErrInvalidCredentials
			}
		}
		return domain.Session{}, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, &Error{Op: "login", Status: http.StatusOK, Message: "response carried no token", Err: domain.ErrInvalidToken}
	}
	session := domain.Session{Token: token, User: resp.User, CreatedAt: time.Now().UTC()}
	if claims, ok := parseClaims(token); ok {
		if session.User.ID <= 0 {
			session.User.ID = claims.UserID
		}
		session.ExpiresAt = claims.ExpiresAt
	}
	return session, nil
}

// registerRequest is the account creation payload.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerResponse accepts the user either bare or under "user".
type registerResponse struct {
	domain.User
	Wrapped *domain.User `json:"user"`
}

// Register creates an account. It does not sign in; a 409 means the username or
// email is taken.
func (c *Client) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	var resp registerResponse
	err := c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   registerRequest{Username: username, Email: email, Password: password},
		out:    &resp,
	})
	if err != nil {
		return domain.User{}, err
	}
	if resp.Wrapped != nil {
		return *resp.Wrapped, nil
	}
	return resp.User, nil
}

// changePasswordRequest is the change-password payload.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the signed-in user's password. A 401 means the current
// password was wrong when a session is still held.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, call{
		op:     "change password",
		method: http.MethodPost,
		path:   "/api/auth/change-password",
		body:   changePasswordRequest{CurrentPassword: current, NewPassword: next},
		auth:   true,
	})
}

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        any
	rawBody     io.Reader
	contentType string
	out         any
	auth        bool
}

// do sends one request and decodes a JSON response into c.out.
func (c *Client) do(ctx context.Context, in call) error {
	req, err := c.newRequest(ctx, in)
	if err != nil {
		return &Error{Op: in.op, Err: err}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "op", in.op, "method", in.method, "path", in.path, "err", err)
		return &Error{Op: in.op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("api request",
		"op", in.op,
		"method", in.method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"correlation_id", req.Header.Get(CorrelationHeader),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{
			Op:      in.op,
			Status:  resp.StatusCode,
			Message: extractMessage(raw),
			Err:     statusError(resp.StatusCode),
		}
		if resp.StatusCode == http.StatusUnauthorized && in.auth && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if in.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(in.out); err != nil {
		return &Error{Op: in.op, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// newRequest builds the HTTP request with auth and correlation headers.
func (c *Client) newRequest(ctx context.Context, in call) (*http.Request, error) {
	target := *c.base
	target.Path = c.base.Path + in.path
	if len(in.query) > 0 {
		target.RawQuery = in.query.Encode()
	}

	body := in.rawBody
	contentType := in.contentType
	if in.body != nil {
		encoded, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	id, ok := app.CorrelationIDFromContext(ctx)
	if !ok {
		id = c.newID()
	}
	req.Header.Set(CorrelationHeader, id)
	if in.auth && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// nopLogger discards diagnostics.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
