// Package session keeps the signed-in user's token in memory and mirrors it to disk.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
)

// Persister stores the session between runs.
type Persister interface {
	SaveSession(context.Context, domain.Session) error
	LoadSession(context.Context) (domain.Session, error)
	ClearSession(context.Context) error
}

// Logger receives store diagnostics.
type Logger interface {
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry checks.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the diagnostics sink.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is safe for concurrent use; the HTTP client may expire it from a command goroutine.
type Store struct {
	mu        sync.RWMutex
	persist   Persister
	clock     func() time.Time
	logger    Logger
	current   *domain.Session
	onExpired []func()
}

// NewStore constructs a store. A nil persister keeps the session in memory only.
func NewStore(persist Persister, opts ...Option) *Store {
	s := &Store{
		persist: persist,
		clock:   time.Now,
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load restores a persisted session. Expired sessions are discarded.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	loaded, err := s.persist.LoadSession(ctx)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}
	if !loaded.Valid(s.clock()) {
		s.logger.Info("stored session expired", "user", loaded.User.Username)
		if err := s.persist.ClearSession(ctx); err != nil {
			return fmt.Errorf("clear expired session: %w", err)
		}
		return nil
	}
	s.mu.Lock()
	s.current = &loaded
	s.mu.Unlock()
	return nil
}

// Save replaces the current session and persists it.
func (s *Store) Save(ctx context.Context, next domain.Session) error {
	if !next.Valid(s.clock()) {
		return domain.ErrInvalidToken
	}
	if s.persist != nil {
		if err := s.persist.SaveSession(ctx, next); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.current = &next
	s.mu.Unlock()
	return nil
}

// Current returns the session when one is held and still valid.
func (s *Store) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || !s.current.Valid(s.clock()) {
		return domain.Session{}, false
	}
	return *s.current, true
}

// Token returns the bearer token or "".
func (s *Store) Token() string {
	current, ok := s.Current()
	if !ok {
		return ""
	}
	return current.Token
}

// User returns the signed-in user.
func (s *Store) User() (domain.User, bool) {
	current, ok := s.Current()
	if !ok {
		return domain.User{}, false
	}
	return current.User, true
}

// CurrentUserID returns the signed-in user's id.
func (s *Store) CurrentUserID() (int64, bool) {
	user, ok := s.User()
	if !ok || user.ID <= 0 {
		return 0, false
	}
	return user.ID, true
}

// OnExpired registers fn to run after the server rejects the session.
func (s *Store) OnExpired(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onExpired = append(s.onExpired, fn)
	s.mu.Unlock()
}

// Expire drops the session after an unauthorized response and notifies listeners once.
func (s *Store) Expire() {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	listeners := append([]func(){}, s.onExpired...)
	s.mu.Unlock()
	if !had {
		return
	}

	s.logger.Warn("session expired")
	if s.persist != nil {
		if err := s.persist.ClearSession(context.Background()); err != nil {
			s.logger.Warn("clear expired session failed", "err", err)
		}
	}
	for _, fn := range listeners {
		fn()
	}
}

// Logout drops the session without notifying expiry listeners.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if s.persist == nil {
		return nil
	}
	return s.persist.ClearSession(ctx)
}

// nopLogger discards diagnostics.
type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
