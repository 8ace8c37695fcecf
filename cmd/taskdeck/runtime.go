package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/evanschultz/taskdeck/internal/adapters/api"
	"github.com/evanschultz/taskdeck/internal/adapters/storage/sqlite"
	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/config"
	"github.com/evanschultz/taskdeck/internal/platform"
	"github.com/evanschultz/taskdeck/internal/session"
	"github.com/google/uuid"
)

// resolvedConfig is the config plus where it came from.
type resolvedConfig struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
}

// resolveConfig applies flag > env > file > default precedence.
func resolveConfig(opts *globalOptions) (resolvedConfig, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return resolvedConfig{}, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		configPath = envOr("TASKDECK_CONFIG", paths.ConfigPath)
	}
	cfg, err := config.Load(configPath, config.Default(paths.SessionPath))
	if err != nil {
		return resolvedConfig{}, fmt.Errorf("load config %q: %w", configPath, err)
	}

	if v := firstNonEmpty(opts.apiURL, os.Getenv("TASKDECK_API_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := firstNonEmpty(opts.sessionPath, os.Getenv("TASKDECK_SESSION_PATH")); v != "" {
		cfg.Session.Path = v
	}
	if v := strings.TrimSpace(opts.logLevel); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return resolvedConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return resolvedConfig{paths: paths, configPath: configPath, cfg: cfg}, nil
}

// cliRuntime holds the wired adapters for one command run.
type cliRuntime struct {
	resolvedConfig
	logger   *runtimeLogger
	repo     *sqlite.Repository
	sessions *session.Store
	client   *api.Client
	svc      *app.Service
}

// openRuntime wires config, logging, session storage, the API client and the service.
func openRuntime(ctx context.Context, opts *globalOptions, stderr io.Writer) (*cliRuntime, error) {
	resolved, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(stderr, opts.appName, resolved.cfg.Logging, resolved.paths.LogDir)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Debug("runtime paths resolved", "config_path", resolved.configPath, "data_dir", resolved.paths.DataDir, "session_path", resolved.cfg.Session.Path)
	if path := logger.FilePath(); path != "" {
		logger.Debug("file logging enabled", "path", path)
	}

	repo, err := sqlite.Open(resolved.cfg.Session.Path)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sessions := session.NewStore(repo, session.WithLogger(logger))
	if err := sessions.Load(ctx); err != nil {
		_ = repo.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}

	client, err := api.New(
		resolved.cfg.API.BaseURL,
		api.WithTimeout(resolved.cfg.RequestTimeout()),
		api.WithTokenSource(sessions),
		api.WithUnauthorized(sessions.Expire),
		api.WithLogger(logger),
	)
	if err != nil {
		_ = repo.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("configure api client: %w", err)
	}
	logger.Debug("api client ready", "base_url", resolved.cfg.API.BaseURL, "timeout", resolved.cfg.RequestTimeout())

	return &cliRuntime{
		resolvedConfig: resolved,
		logger:         logger,
		repo:           repo,
		sessions:       sessions,
		client:         client,
		svc:            app.NewService(client, sessions, time.Now),
	}, nil
}

// Close releases the session database and log file.
func (rt *cliRuntime) Close() {
	if rt == nil {
		return
	}
	if err := rt.repo.Close(); err != nil {
		rt.logger.Warn("session store close failed", "err", err)
	}
	_ = rt.logger.Close()
}

// commandContext tags every request of one command with a shared correlation id.
func (rt *cliRuntime) commandContext(ctx context.Context, command string) context.Context {
	id := uuid.NewString()
	rt.logger.Debug("command flow start", "command", command, "correlation_id", id)
	return app.WithCorrelationID(ctx, id)
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
