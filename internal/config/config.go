package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultBaseURL points at a locally running task API.
const DefaultBaseURL = "http://localhost:8000"

type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	List    ListConfig    `toml:"list"`
	Logging LoggingConfig `toml:"logging"`
	Keys    KeyConfig     `toml:"keys"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url" validate:"required,http_url"`
	Timeout string `toml:"timeout" validate:"required"`
}

type SessionConfig struct {
	Path string `toml:"path"`
}

type ListConfig struct {
	PageSize int    `toml:"page_size" validate:"oneof=10 20 50 100"`
	Debounce string `toml:"debounce" validate:"required"`
}

type LoggingConfig struct {
	Level string        `toml:"level" validate:"oneof=debug info warn error"`
	File  LogFileConfig `toml:"file"`
}

type LogFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=1,lte=1024"`
	MaxAgeDays int    `toml:"max_age_days" validate:"gte=0"`
}

// KeyConfig overrides a handful of list-view bindings.
type KeyConfig struct {
	Search     string `toml:"search"`
	Tags       string `toml:"tags"`
	ClearAll   string `toml:"clear_all"`
	Reload     string `toml:"reload"`
	ToggleMine string `toml:"toggle_mine"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Default(sessionPath string) Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: "15s",
		},
		Session: SessionConfig{
			Path: sessionPath,
		},
		List: ListConfig{
			PageSize: 20,
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
			File: LogFileConfig{
				Enabled:    false,
				Dir:        "",
				MaxSizeMB:  10,
				MaxAgeDays: 14,
			},
		},
		Keys: KeyConfig{
			Search:     "/",
			Tags:       "#",
			ClearAll:   "c",
			Reload:     "r",
			ToggleMine: "m",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Session.Path) == "" {
		return errors.New("session path is required")
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %s", tomlPath(first.Namespace()), fmt.Sprint(first.Value()), first.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid api.timeout: %q", c.API.Timeout)
	}
	if d, err := time.ParseDuration(c.List.Debounce); err != nil || d <= 0 {
		return fmt.Errorf("invalid list.debounce: %q", c.List.Debounce)
	}

	seen := map[string]string{}
	for name, key := range c.Keys.bindings() {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("keys.%s duplicates keys.%s: %q", name, other, key)
		}
		seen[key] = name
	}
	return nil
}

// RequestTimeout parses api.timeout; invalid values fall back to 15s.
func (c Config) RequestTimeout() time.Duration {
	if d, err := time.ParseDuration(c.API.Timeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}

// DebounceInterval parses list.debounce; invalid values fall back to 500ms.
func (c Config) DebounceInterval() time.Duration {
	if d, err := time.ParseDuration(c.List.Debounce); err == nil && d > 0 {
		return d
	}
	return 500 * time.Millisecond
}

func (k KeyConfig) bindings() map[string]string {
	return map[string]string{
		"search":      k.Search,
		"tags":        k.Tags,
		"clear_all":   k.ClearAll,
		"reload":      k.Reload,
		"toggle_mine": k.ToggleMine,
	}
}

// tomlPath converts a validator namespace such as Config.List.PageSize into list.page_size.
func tomlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = snakeCase(part)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	switch s {
	case "API":
		return "api"
	case "BaseURL":
		return "base_url"
	case "MaxSizeMB":
		return "max_size_mb"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
