package exporters

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/clients"
	"github.com/ajitpratap0/penguin/pkg/connector/base"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// HTTPConfig configures the HTTP exporter.
type HTTPConfig struct {
	URL     string             `mapstructure:"url" yaml:"url" validate:"omitempty,url"`
	Headers map[string]string  `mapstructure:"headers" yaml:"headers,omitempty"`
	Auth    clients.AuthConfig `mapstructure:"auth" yaml:"auth,omitempty"`
	Client  clients.HTTPConfig `mapstructure:"client" yaml:"client,omitempty"`
	Retry   *base.RetryPolicy  `mapstructure:"retry" yaml:"retry,omitempty"`
}

// HTTP POSTs each payload as JSON. Any 2xx response counts as delivered.
type HTTP struct {
	url     string
	headers map[string]string
	client  *clients.HTTPClient
	retry   *base.RetryPolicy
	logger  *zap.Logger
}

// NewHTTP builds an HTTP exporter, resolving the configured auth into a token source.
func NewHTTP(ctx context.Context, cfg HTTPConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "http exporter requires a url")
	}
	tokens, err := clients.TokenSource(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}

	clientCfg := clients.DefaultHTTPConfig()
	if cfg.Client != (clients.HTTPConfig{}) {
		c := cfg.Client
		clientCfg = &c
	}
	log := logger.Get().With(zap.String("component", "exporter"), zap.String("exporter", NameHTTP))
	return NewHTTPWithClient(cfg, clients.NewHTTPClient(clientCfg, tokens, log)), nil
}

// NewHTTPWithClient builds an HTTP exporter over an existing client.
func NewHTTPWithClient(cfg HTTPConfig, client *clients.HTTPClient) *HTTP {
	retry := cfg.Retry
	if retry == nil {
		retry = base.DefaultRetryPolicy()
	}
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return &HTTP{
		url:     cfg.URL,
		headers: headers,
		client:  client,
		retry:   retry,
		logger:  logger.Get().With(zap.String("component", "exporter"), zap.String("exporter", NameHTTP)),
	}
}

// Name implements output.Exporter.
func (h *HTTP) Name() string { return NameHTTP }

// Export implements output.Exporter. Connection failures and 5xx responses are retried.
func (h *HTTP) Export(ctx context.Context, o *output.PremiseOutput, payload []byte) error {
	return h.retry.Execute(ctx, func(ctx context.Context) error {
		resp, err := h.client.Post(ctx, h.url, bytes.NewReader(payload), h.headers)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		errType := errors.ErrorTypeExport
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			errType = errors.ErrorTypeConnection
		}
		h.logger.Debug("export rejected",
			zap.String("premise", subjectName(o.Premise())),
			zap.Int("status", resp.StatusCode))
		return errors.Newf(errType, "endpoint returned %s", resp.Status).
			WithDetail("status_code", resp.StatusCode)
	})
}

// Close releases the underlying client.
func (h *HTTP) Close() error { return h.client.Close() }
