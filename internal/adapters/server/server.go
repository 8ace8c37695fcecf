// Package server serves the MCP tool surface and health probes over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evanschultz/taskdeck/internal/adapters/server/mcpapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultBindAddress     = "127.0.0.1:8765"
	defaultMCPEndpoint     = "/mcp"
	defaultShutdownTimeout = 5 * time.Second
)

// Config defines serve-mode endpoint configuration.
type Config struct {
	HTTPBind      string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Logger receives lifecycle and request events.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
}

// Dependencies are the adapters the MCP surface reads through.
type Dependencies struct {
	Tasks mcpapi.TaskReader
	// Ready reports whether tool calls can reach the task API; nil means always ready.
	Ready  func() bool
	Logger Logger
}

// NewHandler builds the router: health probes plus the MCP endpoint.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Tasks == nil {
		return nil, Config{}, fmt.Errorf("tasks dependency is required")
	}

	mcpHandler, err := mcpapi.NewHandler(
		mcpapi.Config{
			ServerName:    cfg.ServerName,
			ServerVersion: cfg.ServerVersion,
			EndpointPath:  cfg.MCPEndpoint,
		},
		deps.Tasks,
	)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if deps.Logger != nil {
		r.Use(requestLogger(deps.Logger))
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if deps.Ready != nil && !deps.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "signed_out")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle(cfg.MCPEndpoint, mcpHandler)
	return r, cfg, nil
}

// Run serves until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPBind,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	if deps.Logger != nil {
		deps.Logger.Info("mcp server listening", "bind", cfg.HTTPBind, "endpoint", cfg.MCPEndpoint)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	if deps.Logger != nil {
		deps.Logger.Info("mcp server stopped")
	}
	return nil
}

// requestLogger records one debug line per request.
func requestLogger(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("mcp http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(started).Round(time.Millisecond),
			)
		})
	}
}

// normalizeConfig fills defaults and rejects endpoints that shadow a probe.
func normalizeConfig(cfg Config) (Config, error) {
	cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind)
	if cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.MCPEndpoint = "/" + strings.Trim(strings.TrimSpace(cfg.MCPEndpoint), "/")
	if cfg.MCPEndpoint == "/" {
		cfg.MCPEndpoint = defaultMCPEndpoint
	}
	switch cfg.MCPEndpoint {
	case "/healthz", "/readyz":
		return Config{}, fmt.Errorf("mcp endpoint %q collides with a health probe", cfg.MCPEndpoint)
	}
	if cfg.ServerName = strings.TrimSpace(cfg.ServerName); cfg.ServerName == "" {
		cfg.ServerName = "taskdeck"
	}
	if cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion); cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg, nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "{\"status\":%q}\n", status)
}
