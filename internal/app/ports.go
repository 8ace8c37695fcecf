package app

import (
	"context"
	"io"
	"net/url"

	"github.com/evanschultz/taskdeck/internal/domain"
)

// Gateway is the remote task API.
type Gateway interface {
	Register(ctx context.Context, username, email, password string) (domain.User, error)
	Login(ctx context.Context, username, password string) (domain.Session, error)
	ChangePassword(ctx context.Context, current, next string) error

	ListTasks(ctx context.Context, params url.Values) (domain.TaskPage, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	UploadAttachment(ctx context.Context, taskID int64, filename string, body io.Reader) (domain.Attachment, error)
	ListAttachments(ctx context.Context, taskID int64) ([]domain.Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
}

// SessionStore holds the signed-in session.
type SessionStore interface {
	Save(context.Context, domain.Session) error
	Logout(context.Context) error
	Current() (domain.Session, bool)
}
