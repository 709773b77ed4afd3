// Package clients provides the outbound HTTP client used by exporters
package clients

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/metrics"
)

// HTTPClient wraps an http.Client with rate limiting, a circuit breaker and metrics
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport

	totalRequests  int64
	failedRequests int64

	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`

	// HTTP/2 settings
	EnableHTTP2 bool `mapstructure:"enable_http2" yaml:"enable_http2"`

	// Timeouts
	DialTimeout           time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `mapstructure:"tls_handshake_timeout" yaml:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" yaml:"response_header_timeout"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// TLS settings
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`

	// Rate limiting, requests per second. Zero disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`

	// Circuit breaker
	CircuitBreakerEnabled bool          `mapstructure:"circuit_breaker_enabled" yaml:"circuit_breaker_enabled"`
	FailureThreshold      int           `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	SuccessThreshold      int           `mapstructure:"success_threshold" yaml:"success_threshold"`
	OpenTimeout           time.Duration `mapstructure:"open_timeout" yaml:"open_timeout"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// DefaultHTTPConfig returns the default client configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		EnableHTTP2:           true,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		RequestTimeout:        60 * time.Second,
		RateLimit:             50,
		RateBurst:             10,
		CircuitBreakerEnabled: true,
		FailureThreshold:      5,
		SuccessThreshold:      2,
		OpenTimeout:           30 * time.Second,
		UserAgent:             "Penguin-HTTPClient/1.0",
	}
}

// NewHTTPClient creates a client. A non-nil token source authenticates every
// request with an Authorization header.
func NewHTTPClient(config *HTTPConfig, tokens oauth2.TokenSource, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &HTTPClient{
		config: config,
		logger: logger.With(zap.String("component", "http_client")),
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // opt-in for test endpoints
			MinVersion:         tls.VersionTLS12,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	var rt http.RoundTripper = client.transport
	if tokens != nil {
		rt = &oauth2.Transport{Source: tokens, Base: client.transport}
	}
	client.httpClient = &http.Client{
		Transport: rt,
		Timeout:   config.RequestTimeout,
	}

	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		client.rateLimiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	if config.CircuitBreakerEnabled {
		client.circuitBreaker = NewCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: config.FailureThreshold,
			SuccessThreshold: config.SuccessThreshold,
			Timeout:          config.OpenTimeout,
		}, client.logger)
	}
	return client
}

// Post performs an HTTP POST request
func (c *HTTPClient) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "build request")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	return c.Do(req)
}

// Do performs a request through the rate limiter and circuit breaker. Responses
// with a 5xx status count as circuit breaker failures but are still returned.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			atomic.AddInt64(&c.failedRequests, 1)
			return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "rate limit wait")
		}
	}

	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		atomic.AddInt64(&c.failedRequests, 1)
		return nil, errors.New(errors.ErrorTypeConnection, "circuit breaker open").
			WithDetail("host", req.URL.Host)
	}

	atomic.AddInt64(&c.totalRequests, 1)
	timer := metrics.NewTimer()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveHTTPRequest(req.URL.Host, timer.Stop(), err)

	if err != nil {
		atomic.AddInt64(&c.failedRequests, 1)
		if c.circuitBreaker != nil {
			c.circuitBreaker.RecordFailure()
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "http request failed").
			WithDetail("host", req.URL.Host)
	}

	if c.circuitBreaker != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			c.circuitBreaker.RecordFailure()
		} else {
			c.circuitBreaker.RecordSuccess()
		}
	}
	return resp, nil
}

// HTTPStats represents HTTP client statistics
type HTTPStats struct {
	TotalRequests  int64  `json:"total_requests"`
	FailedRequests int64  `json:"failed_requests"`
	CircuitState   string `json:"circuit_state,omitempty"`
}

// GetStats returns current client statistics
func (c *HTTPClient) GetStats() HTTPStats {
	stats := HTTPStats{
		TotalRequests:  atomic.LoadInt64(&c.totalRequests),
		FailedRequests: atomic.LoadInt64(&c.failedRequests),
	}
	if c.circuitBreaker != nil {
		stats.CircuitState = c.circuitBreaker.State().String()
	}
	return stats
}

// Close releases idle connections
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
