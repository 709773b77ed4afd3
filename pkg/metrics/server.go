package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls the metrics endpoint.
type Config struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address" validate:"required_if=Enabled true"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

// Handler returns a mux serving the default registry on path.
func Handler(path string) http.Handler {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return mux
}

// Serve exposes metrics until ctx is done. A disabled config returns immediately.
func Serve(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           Handler(cfg.Path),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
