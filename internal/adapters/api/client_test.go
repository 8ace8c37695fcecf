package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// newTestClient starts router behind httptest and returns a client pointed at it.
func newTestClient(t *testing.T, router http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret-test-secret-test-sec"))
	require.NoError(t, err)
	return token
}

// TestNewRejectsRelativeURL verifies behavior for the covered scenario.
func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	require.Error(t, err)
	_, err = New("ftp://example.com")
	require.Error(t, err)
	_, err = New("https://example.com/base/")
	require.NoError(t, err)
}

// TestListTasksSendsParamsAndHeaders verifies behavior for the covered scenario.
func TestListTasksSendsParamsAndHeaders(t *testing.T) {
	var gotQuery url.Values
	var gotAuth, gotCorrelation string
	r := chi.NewRouter()
	r.Get("/api/tasks/", func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.Query()
		gotAuth = req.Header.Get("Authorization")
		gotCorrelation = req.Header.Get(CorrelationHeader)
		writeJSON(w, http.StatusOK, map[string]any{
			"tasks": []map[string]any{
				{"id": 1, "title": "Write report", "status": "todo", "priority": "high", "due_date": "2026-05-01T00:00:00", "tags": []string{"ops"}},
			},
			"pagination": map[string]any{"page": 2, "page_size": 10, "total": 11, "total_pages": 2},
		})
	})
	client := newTestClient(t, r, WithTokenSource(staticToken("tok")))

	params := url.Values{"q": {"report"}, "page": {"2"}, "page_size": {"10"}, "sort": {"due_date:asc"}}
	page, err := client.ListTasks(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, params, gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotCorrelation)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "Write report", page.Tasks[0].Title)
	assert.Equal(t, domain.PriorityHigh, page.Tasks[0].Priority)
	assert.Equal(t, "2026-05-01", page.Tasks[0].DueDate.Date())
	require.NotNil(t, page.Pagination)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

// TestListTasksAcceptsItemsKey verifies behavior for the covered scenario.
func TestListTasksAcceptsItemsKey(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/tasks/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{{"id": 3, "title": "x"}}})
	})
	page, err := newTestClient(t, r).ListTasks(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, int64(3), page.Tasks[0].ID)
	assert.Nil(t, page.Pagination)
}

// TestCorrelationIDFromContext verifies behavior for the covered scenario.
func TestCorrelationIDFromContext(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Delete("/api/tasks/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Get(CorrelationHeader)
		assert.Equal(t, "9", chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := app.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, newTestClient(t, r).DeleteTask(ctx, 9))
	assert.Equal(t, "corr-1", got)
}

// TestErrorBodiesAreMapped verifies behavior for the covered scenario.
func TestErrorBodiesAreMapped(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    any
		want    error
		message string
	}{
		{"string detail", http.StatusNotFound, map[string]any{"detail": "Task not found"}, app.ErrNotFound, "Task not found"},
		{"nested detail", http.StatusForbidden, map[string]any{"detail": map[string]any{"error": map[string]any{"code": "FORBIDDEN", "message": "Not your task"}}}, app.ErrForbidden, "Not your task"},
		{"top-level error", http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad sort"}}, domain.ErrInvalidInput, "bad sort"},
		{"validation list", http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{{"loc": []any{"query", "page"}, "msg": "must be >= 1"}}}, domain.ErrInvalidInput, "page: must be >= 1"},
		{"server error", http.StatusInternalServerError, map[string]any{}, nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/tasks/{id}", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			_, err := newTestClient(t, r).GetTask(context.Background(), 1)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
			if tc.message == "" {
				assert.Contains(t, err.Error(), "Internal Server Error")
			}
		})
	}
}

// TestUnauthorizedRunsCallback verifies behavior for the covered scenario.
func TestUnauthorizedRunsCallback(t *testing.T) {
	var fired atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/tasks/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Token expired"})
	})
	client := newTestClient(t, r, WithTokenSource(staticToken("old")), WithUnauthorized(func() { fired.Add(1) }))
	_, err := client.ListTasks(context.Background(), url.Values{})
	require.ErrorIs(t, err, app.ErrUnauthorized)
	assert.Equal(t, int32(1), fired.Load())
}

// TestTransportFailureIsNetworkError verifies behavior for the covered scenario.
func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	client, err := New(base, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = client.ListTasks(context.Background(), nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.NotNil(t, apiErr.Err)
}

// TestLoginParsesTokenClaims verifies behavior for the covered scenario.
func TestLoginParsesTokenClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	token := signedToken(t, "42", exp)
	var unauthorizedCalls atomic.Int32
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body loginRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Empty(t, req.Header.Get("Authorization"))
		if body.Password != "right" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": map[string]any{"error": map[string]any{"code": "INVALID_CREDENTIALS", "message": "Invalid username or password"}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": map[string]any{"username": body.Username, "email": "ada@example.com"}})
	})
	client := newTestClient(t, r, WithUnauthorized(func() { unauthorizedCalls.Add(1) }))

	session, err := client.Login(context.Background(), "ada", "right")
	require.NoError(t, err)
	assert.Equal(t, token, session.Token)
	assert.Equal(t, int64(42), session.User.ID)
	assert.Equal(t, "ada@example.com", session.User.Email)
	require.NotNil(t, session.ExpiresAt)
	assert.True(t, session.ExpiresAt.Equal(exp))

	_, err = client.Login(context.Background(), "ada", "wrong")
	require.ErrorIs(t, err, app.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, app.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid username or password")
	assert.Zero(t, unauthorizedCalls.Load())
}

// TestCreateAndUpdateSendJSON verifies behavior for the covered scenario.
func TestCreateAndUpdateSendJSON(t *testing.T) {
	var created, updated map[string]any
	r := chi.NewRouter()
	r.Post("/api/tasks/", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&created))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5, "title": created["title"]})
	})
	r.Put("/api/tasks/{id}", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&updated))
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "status": "done"})
	})
	client := newTestClient(t, r)

	title := "New task"
	task, err := client.CreateTask(context.Background(), domain.TaskInput{Title: &title, Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), task.ID)
	assert.Equal(t, "New task", created["title"])
	assert.NotContains(t, created, "status")

	done := domain.StatusDone
	task, err = client.UpdateTask(context.Background(), 5, domain.TaskInput{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, task.Status)
	assert.Equal(t, map[string]any{"status": "done"}, updated)
}

// TestAttachmentRoundTrip verifies behavior for the covered scenario.
func TestAttachmentRoundTrip(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/tasks/{id}/attachments", func(w http.ResponseWriter, req *http.Request) {
		file, header, err := req.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		raw, _ := io.ReadAll(file)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 11, "task_id": 2, "filename": header.Filename, "file_size": len(raw),
			"uploaded_at": "2026-05-01 10:00:00",
		})
	})
	r.Get("/api/tasks/{id}/attachments", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"attachments": []map[string]any{{"id": 11, "filename": "notes.txt"}}})
	})
	r.Delete("/api/attachments/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") != "11" {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Attachment not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, r)
	ctx := context.Background()

	att, err := client.UploadAttachment(ctx, 2, "/tmp/notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", att.Filename)
	assert.Equal(t, int64(5), att.FileSize)
	assert.Equal(t, 10, att.UploadedAt.Hour())

	list, err := client.ListAttachments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "notes.txt", list[0].Filename)

	require.NoError(t, client.DeleteAttachment(ctx, 11))
	err = client.DeleteAttachment(ctx, 12)
	assert.True(t, errors.Is(err, app.ErrNotFound))
}

// TestParseClaimsRejectsGarbage verifies behavior for the covered scenario.
func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, ok := parseClaims("not-a-jwt")
	assert.False(t, ok)
	claims, ok := parseClaims(signedToken(t, "abc", time.Now().Add(time.Minute)))
	require.True(t, ok)
	assert.Zero(t, claims.UserID)
	assert.NotNil(t, claims.ExpiresAt)
}

// TestRegisterPostsAccount verifies behavior for the covered scenario.
func TestRegisterPostsAccount(t *testing.T) {
	var got map[string]string
	var unauthorizedFired atomic.Int32
	r := chi.NewRouter()
	r.Post("/api/auth/register", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&got)
		if got["username"] == "taken" {
			writeJSON(w, http.StatusConflict, map[string]any{"detail": map[string]any{"error": map[string]any{"code": "USERNAME_EXISTS", "message": "Username already registered"}}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 12, "username": got["username"], "email": got["email"]})
	})
	client := newTestClient(t, r, WithUnauthorized(func() { unauthorizedFired.Add(1) }))

	user, err := client.Register(context.Background(), "grace", "grace@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: 12, Username: "grace", Email: "grace@example.com"}, user)
	assert.Equal(t, map[string]string{"username": "grace", "email": "grace@example.com", "password": "long-enough"}, got)

	_, err = client.Register(context.Background(), "taken", "t@example.com", "long-enough")
	require.ErrorIs(t, err, app.ErrConflict)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Username already registered", apiErr.Message)
	assert.Zero(t, unauthorizedFired.Load())
}

// TestRegisterAcceptsWrappedUser verifies behavior for the covered scenario.
func TestRegisterAcceptsWrappedUser(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/register", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"user": map[string]any{"id": 3, "username": "lin"}})
	})
	user, err := newTestClient(t, r).Register(context.Background(), "lin", "lin@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "lin", user.Username)
}

// TestTimeoutLeavesCallerClientUntouched verifies behavior for the covered scenario.
func TestTimeoutLeavesCallerClientUntouched(t *testing.T) {
	own := &http.Client{}
	client, err := New("https://tasks.example.com", WithHTTPClient(own), WithTimeout(3*time.Second))
	require.NoError(t, err)
	assert.Same(t, own, client.http)
	assert.Zero(t, own.Timeout)

	client, err = New("https://tasks.example.com", WithTimeout(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, client.http.Timeout)

	client, err = New("https://tasks.example.com")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.http.Timeout)
}
