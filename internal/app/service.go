package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/evanschultz/taskdeck/internal/query"
)

// MinPasswordLength is the shortest accepted new password.
const MinPasswordLength = 8

// Clock returns the current time.
type Clock func() time.Time

// Service coordinates the remote task API with the local session.
type Service struct {
	gateway  Gateway
	sessions SessionStore
	clock    Clock
}

// NewService constructs a new value for this package.
func NewService(gateway Gateway, sessions SessionStore, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		gateway:  gateway,
		sessions: sessions,
		clock:    clock,
	}
}

// MinUsernameLength is the shortest accepted username at registration.
const MinUsernameLength = 3

// Register creates an account and signs in with the same credentials.
func (s *Service) Register(ctx context.Context, username, email, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case len(username) < MinUsernameLength:
		return domain.Session{}, fmt.Errorf("%w: username must be at least %d characters", domain.ErrInvalidInput, MinUsernameLength)
	case email == "":
		return domain.Session{}, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	case len(password) < MinPasswordLength:
		return domain.Session{}, ErrWeakPassword
	}
	if _, err := s.gateway.Register(ctx, username, email, password); err != nil {
		return domain.Session{}, err
	}
	session, err := s.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("account created but sign-in failed: %w", err)
	}
	return session, nil
}

// Login authenticates and stores the resulting session.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Session{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	session, err := s.gateway.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, err
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.clock().UTC()
	}
	if session.User.Username == "" {
		session.User.Username = username
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// Logout forgets the stored session.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Logout(ctx)
}

// CurrentUser returns the signed-in user.
func (s *Service) CurrentUser() (domain.User, bool) {
	session, ok := s.sessions.Current()
	if !ok {
		return domain.User{}, false
	}
	return session.User, true
}

// CurrentUserID returns the signed-in user's id.
func (s *Service) CurrentUserID() (int64, bool) {
	user, ok := s.CurrentUser()
	if !ok || user.ID <= 0 {
		return 0, false
	}
	return user.ID, true
}

// ChangePassword updates the signed-in user's password.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if current == "" {
		return fmt.Errorf("%w: current password is required", domain.ErrInvalidInput)
	}
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	if next == current {
		return ErrSamePassword
	}
	return s.gateway.ChangePassword(ctx, current, next)
}

// ListTasks issues one list request with prepared params.
func (s *Service) ListTasks(ctx context.Context, params url.Values) (domain.TaskPage, error) {
	if err := s.requireSession(); err != nil {
		return domain.TaskPage{}, err
	}
	return s.gateway.ListTasks(ctx, params)
}

// QueryTasks builds params from a query snapshot, resolving only-mine against the current user.
func (s *Service) QueryTasks(ctx context.Context, snap query.Snapshot) (domain.TaskPage, error) {
	ownerID, _ := s.CurrentUserID()
	return s.ListTasks(ctx, snap.Params(ownerID))
}

// GetTask loads one task.
func (s *Service) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	if id <= 0 {
		return domain.Task{}, domain.ErrInvalidID
	}
	if err := s.requireSession(); err != nil {
		return domain.Task{}, err
	}
	return s.gateway.GetTask(ctx, id)
}

// CreateTask validates and creates a task.
func (s *Service) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	in.Normalize()
	if err := in.ValidateCreate(); err != nil {
		return domain.Task{}, err
	}
	if err := s.requireSession(); err != nil {
		return domain.Task{}, err
	}
	return s.gateway.CreateTask(ctx, in)
}

// UpdateTask validates and applies a partial update.
func (s *Service) UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.Task, error) {
	if id <= 0 {
		return domain.Task{}, domain.ErrInvalidID
	}
	in.Normalize()
	if in.Empty() {
		return domain.Task{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	if err := in.ValidateUpdate(); err != nil {
		return domain.Task{}, err
	}
	if err := s.requireSession(); err != nil {
		return domain.Task{}, err
	}
	return s.gateway.UpdateTask(ctx, id, in)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	if err := s.requireSession(); err != nil {
		return err
	}
	return s.gateway.DeleteTask(ctx, id)
}

// UploadAttachment stores a file against a task.
func (s *Service) UploadAttachment(ctx context.Context, taskID int64, filename string, body io.Reader) (domain.Attachment, error) {
	if taskID <= 0 {
		return domain.Attachment{}, domain.ErrInvalidID
	}
	filename = strings.TrimSpace(filename)
	if filename == "" || body == nil {
		return domain.Attachment{}, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	if err := s.requireSession(); err != nil {
		return domain.Attachment{}, err
	}
	return s.gateway.UploadAttachment(ctx, taskID, filename, body)
}

// ListAttachments lists a task's files.
func (s *Service) ListAttachments(ctx context.Context, taskID int64) ([]domain.Attachment, error) {
	if taskID <= 0 {
		return nil, domain.ErrInvalidID
	}
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.gateway.ListAttachments(ctx, taskID)
}

// DeleteAttachment removes one file.
func (s *Service) DeleteAttachment(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	if err := s.requireSession(); err != nil {
		return err
	}
	return s.gateway.DeleteAttachment(ctx, id)
}

// requireSession fails fast when no valid session is held.
func (s *Service) requireSession() error {
	if _, ok := s.sessions.Current(); !ok {
		return ErrNotSignedIn
	}
	return nil
}
