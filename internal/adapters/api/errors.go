package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
)

// Error reports a failed API call: a transport failure (Status 0) or a non-2xx response.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

// Error formats the failure for display.
func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	default:
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
}

// Unwrap exposes the mapped sentinel or transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// statusError maps one HTTP status to a sentinel error.
func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return app.ErrUnauthorized
	case http.StatusForbidden:
		return app.ErrForbidden
	case http.StatusNotFound:
		return app.ErrNotFound
	case http.StatusConflict:
		return app.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return domain.ErrInvalidInput
	default:
		return nil
	}
}

// errorBody covers the server's error shapes: {"detail": "..."},
// {"detail": {"error": {"message": "..."}}}, {"detail": [{"msg": "..."}]} and
// {"error": {"message": "..."}}.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  *errorDetail    `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// extractMessage reads a human-readable message from an error response body.
func extractMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(truncate(raw, 200)))
	}
	if msg := detailMessage(body.Detail); msg != "" {
		return msg
	}
	if body.Error != nil {
		return strings.TrimSpace(body.Error.Message)
	}
	return ""
}

// detailMessage decodes the polymorphic detail field.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var nested struct {
		Error   *errorDetail `json:"error"`
		Message string       `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested.Error != nil && nested.Error.Message != "" {
			return strings.TrimSpace(nested.Error.Message)
		}
		if nested.Message != "" {
			return strings.TrimSpace(nested.Message)
		}
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg == "" {
				continue
			}
			if len(item.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
				continue
			}
			msgs = append(msgs, item.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func truncate(raw []byte, n int) []byte {
	if len(raw) <= n {
		return raw
	}
	return raw[:n]
}
