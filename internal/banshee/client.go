// Package banshee is a typed client for the banshee web API.
package banshee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nicolastakashi/banshee-console/internal/cache"
	"github.com/prometheus/client_golang/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a fresh id on every mutating request.
const RequestIDHeader = "X-Request-ID"

type Client struct {
	api      api.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	store    cache.Store
	cacheTTL time.Duration

	requestDuration *prometheus.HistogramVec
}

type Option func(*Client)

// WithTimeout bounds every request, 0 leaves requests bounded only by their context.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache caches the static configuration endpoints in store for ttl.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.store = store
		c.cacheTTL = ttl
	}
}

func NewClient(address string, reg prometheus.Registerer, opts ...Option) (*Client, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse banshee address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid scheme for banshee URL %q, only 'http' and 'https' are supported", address)
	}

	apiClient, err := api.NewClient(api.Config{
		Address:      address,
		RoundTripper: otelhttp.NewTransport(api.DefaultRoundTripper),
	})
	if err != nil {
		return nil, fmt.Errorf("create banshee client: %w", err)
	}

	c := &Client{api: apiClient}
	for _, opt := range opts {
		opt(c)
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c.requestDuration = promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "banshee_client_request_duration_seconds",
		Help:    "Duration of requests to the banshee API by endpoint, method and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method", "code"})

	return c, nil
}

type request struct {
	method      string
	endpoint    string
	args        map[string]string
	query       url.Values
	body        io.Reader
	contentType string
}

func idArg(id int) map[string]string {
	return map[string]string{"id": strconv.Itoa(id)}
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(b), nil
}

// do sends r and decodes a successful JSON response into out. Non 2xx
// responses become *APIError. Nothing is retried.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.api.URL(r.endpoint, r.args)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", r.method, r.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		contentType := r.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if r.method != http.MethodGet {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit %s %s: %w", r.method, r.endpoint, err)
		}
	}

	start := time.Now()
	resp, body, err := c.api.Do(ctx, req)
	if err != nil {
		c.requestDuration.WithLabelValues(r.endpoint, r.method, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%s %s: %w", r.method, r.endpoint, err)
	}
	c.requestDuration.WithLabelValues(r.endpoint, r.method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(r.endpoint, resp.StatusCode, body)
		slog.Debug("banshee request failed", "method", r.method, "endpoint", r.endpoint, "code", apiErr.Code, "msg", apiErr.Msg)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.endpoint, err)
	}
	return nil
}

// getCached serves GET endpoint from the cache when configured, filling it
// on a miss. Cache failures fall through to the API.
func (c *Client) getCached(ctx context.Context, endpoint string, out any) error {
	if c.store == nil {
		return c.do(ctx, request{method: http.MethodGet, endpoint: endpoint}, out)
	}

	if b, ok, err := c.store.Get(ctx, endpoint); err != nil {
		slog.Warn("unable to read banshee cache", "endpoint", endpoint, "err", err)
	} else if ok {
		if err := json.Unmarshal(b, out); err == nil {
			return nil
		}
	}

	if err := c.do(ctx, request{method: http.MethodGet, endpoint: endpoint}, out); err != nil {
		return err
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	if err := c.store.Set(ctx, endpoint, b, c.cacheTTL); err != nil {
		slog.Warn("unable to write banshee cache", "endpoint", endpoint, "err", err)
	}
	return nil
}
