package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/evanschultz/taskdeck/internal/domain"
)

// listResponse accepts either list key the server has used.
type listResponse struct {
	Tasks      []domain.Task      `json:"tasks"`
	Items      []domain.Task      `json:"items"`
	Pagination *domain.Pagination `json:"pagination"`
}

// ListTasks fetches one page of tasks. params are sent as given.
func (c *Client) ListTasks(ctx context.Context, params url.Values) (domain.TaskPage, error) {
	var resp listResponse
	err := c.do(ctx, call{
		op:     "list tasks",
		method: http.MethodGet,
		path:   "/api/tasks/",
		query:  params,
		out:    &resp,
		auth:   true,
	})
	if err != nil {
		return domain.TaskPage{}, err
	}
	tasks := resp.Tasks
	if tasks == nil {
		tasks = resp.Items
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return domain.TaskPage{Tasks: tasks, Pagination: resp.Pagination}, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, call{
		op:     "get task",
		method: http.MethodGet,
		path:   taskPath(id),
		out:    &task,
		auth:   true,
	})
	return task, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, call{
		op:     "create task",
		method: http.MethodPost,
		path:   "/api/tasks/",
		body:   in,
		out:    &task,
		auth:   true,
	})
	return task, err
}

// UpdateTask sends the set fields of in.
func (c *Client) UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, call{
		op:     "update task",
		method: http.MethodPut,
		path:   taskPath(id),
		body:   in,
		out:    &task,
		auth:   true,
	})
	return task, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		op:     "delete task",
		method: http.MethodDelete,
		path:   taskPath(id),
		auth:   true,
	})
}

// UploadAttachment streams body as the multipart "file" field.
func (c *Client) UploadAttachment(ctx context.Context, taskID int64, filename string, body io.Reader) (domain.Attachment, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	var att domain.Attachment
	err := c.do(ctx, call{
		op:          "upload attachment",
		method:      http.MethodPost,
		path:        taskPath(taskID) + "/attachments",
		rawBody:     pr,
		contentType: form.FormDataContentType(),
		out:         &att,
		auth:        true,
	})
	// Unblocks the writer goroutine when the request ended before consuming the body.
	_ = pr.Close()
	return att, err
}

// ListAttachments lists a task's files; both {"attachments": [...]} and a bare array are accepted.
func (c *Client) ListAttachments(ctx context.Context, taskID int64) ([]domain.Attachment, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op:     "list attachments",
		method: http.MethodGet,
		path:   taskPath(taskID) + "/attachments",
		out:    &raw,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	var bare []domain.Attachment
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}
	var wrapped struct {
		Attachments []domain.Attachment `json:"attachments"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &Error{Op: "list attachments", Status: http.StatusOK, Message: "malformed response", Err: err}
	}
	if wrapped.Attachments == nil {
		return []domain.Attachment{}, nil
	}
	return wrapped.Attachments, nil
}

// DeleteAttachment deletes one file.
func (c *Client) DeleteAttachment(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		op:     "delete attachment",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/attachments/%d", id),
		auth:   true,
	})
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}
