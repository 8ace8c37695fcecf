package tui

import (
	"time"

	"github.com/evanschultz/taskdeck/internal/tasklist"
)

type Option func(*Model)

// WithKeyConfig rebinds the configurable keys.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithPageSize(n int) Option {
	return func(m *Model) {
		m.listOpts = append(m.listOpts, tasklist.WithPageSize(n))
	}
}

// WithQuietPeriod sets how long typing must pause before search and tag edits fetch.
func WithQuietPeriod(d time.Duration) Option {
	return func(m *Model) {
		m.listOpts = append(m.listOpts, tasklist.WithQuietPeriod(d))
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
		m.listOpts = append(m.listOpts, tasklist.WithRequestTimeout(d))
	}
}

// WithLogger routes list diagnostics to logger.
func WithLogger(logger tasklist.Logger) Option {
	return func(m *Model) {
		m.listOpts = append(m.listOpts, tasklist.WithLogger(logger))
	}
}

func WithClipboard(cb ClipboardWriter) Option {
	return func(m *Model) {
		if cb != nil {
			m.clipboard = cb
		}
	}
}

// WithUsername shows the signed-in user in the header.
func WithUsername(name string) Option {
	return func(m *Model) {
		m.username = name
	}
}
