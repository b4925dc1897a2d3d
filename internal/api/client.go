// Package api is the commerce REST API client. Every call goes through Do,
// which attaches credentials and recovers once from an expired access token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/credentials"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	refreshPath                 = "/auth/token/refresh"
	responseBodyReadLimit int64 = 4 << 20
	breakerName                 = "commerce-api"
)

var errServerFailure = errors.New("commerce api server failure")

// Doer is the transport. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request describes one logical API call.
type Request struct {
	Method string
	Path   string
	// Endpoint is the metrics label, e.g. "/products/{id}". Defaults to Path.
	Endpoint string
	Query    url.Values
	Body     any
	// SkipRefresh returns a 401 as-is; used by the credential endpoints, where a
	// 401 means bad input rather than an expired token.
	SkipRefresh bool
}

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into dest.
func (r *Response) Decode(dest any) error {
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

// attempt carries the per-call retry state explicitly instead of mutating the request.
type attempt struct {
	retried bool
	// bearer overrides the stored access token, used for the retry after a refresh.
	bearer string
}

// Client talks to the commerce API.
type Client struct {
	doer           Doer
	baseURL        string
	consumerKey    string
	consumerSecret string

	vault   *credentials.Vault
	log     *logger.Logger
	metrics *metrics.APIClientMetrics
	breaker *gobreaker.CircuitBreaker[*http.Response]

	refreshGroup     singleflight.Group
	onSessionExpired func(context.Context)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default transport.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithMetrics(m *metrics.APIClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSessionExpired registers a callback run after a failed refresh cleared the credentials.
func WithSessionExpired(fn func(context.Context)) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// NewClient builds the client from config. The vault supplies and receives tokens.
func NewClient(cfg config.APIConfig, vault *credentials.Vault, opts ...Option) (*Client, error) {
	if vault == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credential vault is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		doer: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:        strings.TrimSpace(cfg.BaseURL),
		consumerKey:    strings.TrimSpace(cfg.ConsumerKey),
		consumerSecret: strings.TrimSpace(cfg.ConsumerSecret),
		vault:          vault,
		log:            logger.Nop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api base url is required")
	}
	if cfg.BreakerFailures > 0 {
		client.breaker = newBreaker(cfg, client.log)
	}
	return client, nil
}

func newBreaker(cfg config.APIConfig, log *logger.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	threshold := cfg.BreakerFailures
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    breakerName,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := log.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			log.Warn(ctx, "commerce api circuit breaker changed state")
		},
	})
}

// Do sends the request and returns the 2xx response or a coded error.
// A 401 is recovered at most once by refreshing the access token.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "api client not configured")
	}
	ctx = c.log.WithRequestID(ctx, uuid.NewString())
	return c.send(ctx, req, attempt{retried: req.SkipRefresh})
}

func (c *Client) send(ctx context.Context, req Request, at attempt) (*Response, error) {
	resp, err := c.roundTrip(ctx, req, at)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && !at.retried {
		return c.recoverUnauthorized(ctx, req, resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.FromResponse(resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// recoverUnauthorized refreshes the access token and re-issues req exactly once.
func (c *Client) recoverUnauthorized(ctx context.Context, req Request, resp *Response) (*Response, error) {
	original := pkgerrors.FromResponse(resp.StatusCode, resp.Body)

	refreshToken, ok, err := c.vault.RefreshToken(ctx)
	if err != nil {
		c.log.Error(ctx, "failed to read refresh token", err)
		return nil, original
	}
	if !ok {
		c.metrics.IncRefresh(metrics.RefreshSkipped)
		return nil, original
	}

	accessToken, err := c.refreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req, attempt{retried: true, bearer: accessToken})
}

// refreshAccessToken coalesces concurrent refreshes of the same refresh token.
// The exchange is detached from the caller's cancellation so one caller giving
// up neither aborts the shared refresh nor ends the session; the transport
// timeout still bounds it.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(refreshToken, func() (any, error) {
		return c.exchangeRefreshToken(detached, refreshToken)
	})

	select {
	case <-ctx.Done():
		return "", pkgerrors.Wrap(pkgerrors.CodeNetwork, ctx.Err(), "token refresh abandoned")
	case res := <-ch:
		if res.Shared {
			c.log.Debug(ctx, "joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	generation := c.vault.Generation()

	resp, err := c.send(ctx, Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		Body:   map[string]string{"refresh_token": refreshToken},
	}, attempt{retried: true})

	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	if err == nil {
		err = resp.Decode(&refreshed)
	}
	if err == nil && strings.TrimSpace(refreshed.AccessToken) == "" {
		err = pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh response did not include an access token")
	}
	if err != nil && errors.Is(err, context.Canceled) {
		c.metrics.IncRefresh(metrics.RefreshFailure)
		c.log.Warn(ctx, "token refresh interrupted, keeping credentials")
		return "", err
	}
	if err != nil {
		c.metrics.IncRefresh(metrics.RefreshFailure)
		c.log.Error(ctx, "token refresh failed, clearing credentials", err)
		if clearErr := c.vault.Clear(ctx); clearErr != nil {
			c.log.Error(ctx, "failed to clear credentials", clearErr)
		}
		if c.onSessionExpired != nil {
			c.onSessionExpired(ctx)
		}
		return "", err
	}

	kept, err := c.vault.SaveRefreshed(ctx, generation, refreshed.AccessToken)
	if err != nil {
		c.metrics.IncRefresh(metrics.RefreshFailure)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refreshed access token")
	}
	if !kept {
		c.metrics.IncRefresh(metrics.RefreshFailure)
		c.log.Warn(ctx, "discarding access token refreshed for an ended session")
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended while refreshing credentials")
	}

	c.metrics.IncRefresh(metrics.RefreshSuccess)
	c.log.Info(ctx, "access token refreshed")
	return refreshed.AccessToken, nil
}

// roundTrip performs one transport call and reads the whole body.
func (c *Client) roundTrip(ctx context.Context, req Request, at attempt) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	c.authorize(ctx, httpReq, at)

	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	start := time.Now()
	resp, err := c.execute(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(httpReq.Method, endpoint, 0, time.Since(start))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commerce api temporarily unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	c.metrics.ObserveRequest(httpReq.Method, endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "read response body")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// execute runs the transport behind the circuit breaker when one is configured.
// 5xx responses count as breaker failures but are still returned to the caller.
func (c *Client) execute(httpReq *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.doer.Do(httpReq)
	}
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.doer.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerFailure
		}
		return resp, nil
	})
	if errors.Is(err, errServerFailure) {
		return resp, nil
	}
	return resp, err
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "marshal request body")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// authorize attaches the bearer token from the vault, falling back to the
// consumer key pair as basic auth when no token is stored.
func (c *Client) authorize(ctx context.Context, httpReq *http.Request, at attempt) {
	if at.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+at.bearer)
		return
	}

	token, ok, err := c.vault.AccessToken(ctx)
	if err != nil {
		c.log.Error(ctx, "failed to read access token", err)
	}
	if ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		return
	}
	if c.consumerKey != "" && c.consumerSecret != "" {
		httpReq.SetBasicAuth(c.consumerKey, c.consumerSecret)
	}
}

// ClearAuth removes the stored access and refresh tokens.
func (c *Client) ClearAuth(ctx context.Context) error {
	return c.vault.Clear(ctx)
}
