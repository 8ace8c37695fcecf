package domain

import (
	"slices"
	"strings"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

var validStatuses = []Status{StatusTodo, StatusInProgress, StatusDone}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Statuses returns the known task statuses in workflow order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// Priorities returns the known task priorities from lowest to highest.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// ParseStatus coerces raw input into a known status; unknown values report false.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	s = Status(strings.ReplaceAll(string(s), "-", "_"))
	if slices.Contains(validStatuses, s) {
		return s, true
	}
	return "", false
}

// ParsePriority coerces raw input into a known priority; unknown values report false.
func ParsePriority(raw string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(validPriorities, p) {
		return p, true
	}
	return "", false
}

type Task struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	DueDate       Timestamp `json:"due_date"`
	Tags          []string  `json:"tags"`
	OwnerUserID   int64     `json:"owner_user_id"`
	OwnerUsername string    `json:"owner_username"`
	CreatedAt     Timestamp `json:"created_at"`
	UpdatedAt     Timestamp `json:"updated_at"`
}

// TaskInput carries create and update fields; nil pointers are left untouched on update.
type TaskInput struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Tags        []string   `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=64"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// TaskPage is one page of list results; Pagination is nil when the server omitted it.
type TaskPage struct {
	Tasks      []Task
	Pagination *Pagination
}

// NormalizeTags trims, drops empties and de-duplicates tags while keeping input order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags parses comma-separated tag text.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}
