// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the task list query.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/evanschultz/taskdeck/internal/query"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// TaskReader answers list and detail queries.
type TaskReader interface {
	QueryTasks(ctx context.Context, snap query.Snapshot) (domain.TaskPage, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
}

// AttachmentReader lists a task's files. Optional.
type AttachmentReader interface {
	ListAttachments(ctx context.Context, taskID int64) ([]domain.Attachment, error)
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter with list and detail tools.
func NewHandler(cfg Config, tasks TaskReader) (*Handler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task reader is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListTasksTool(mcpSrv, tasks)
	registerGetTaskTool(mcpSrv, tasks)
	if attachments, ok := tasks.(AttachmentReader); ok {
		registerListAttachmentsTool(mcpSrv, attachments)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "taskdeck"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// listTasksResult is the list tool payload.
type listTasksResult struct {
	Tasks      []domain.Task      `json:"tasks"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
	Sort       string             `json:"sort"`
	Pages      []int              `json:"pages,omitempty"`
}

// registerListTasksTool registers the `taskdeck.list_tasks` tool.
func registerListTasksTool(srv *mcpserver.MCPServer, tasks TaskReader) {
	srv.AddTool(
		mcp.NewTool(
			"taskdeck.list_tasks",
			mcp.WithDescription("List one page of tasks. Unset filters are not sent."),
			mcp.WithString("q", mcp.Description("Free-text search")),
			mcp.WithString("status", mcp.Description("Status filter"), mcp.Enum(statusNames()...)),
			mcp.WithString("priority", mcp.Description("Priority filter"), mcp.Enum(priorityNames()...)),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
			mcp.WithString("due_date_from", mcp.Description("Earliest due date, YYYY-MM-DD")),
			mcp.WithString("due_date_to", mcp.Description("Latest due date, YYYY-MM-DD")),
			mcp.WithBoolean("only_mine", mcp.Description("Only tasks owned by the signed-in user")),
			mcp.WithString("sort", mcp.Description("field:direction, e.g. due_date:asc")),
			mcp.WithNumber("page", mcp.Description("1-based page number")),
			mcp.WithNumber("page_size", mcp.Description("Page size: 10, 20, 50 or 100")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			q := query.New(req.GetInt("page_size", query.DefaultPageSize))
			for _, field := range []query.Field{
				query.FieldSearch,
				query.FieldStatus,
				query.FieldPriority,
				query.FieldTags,
				query.FieldDueFrom,
				query.FieldDueTo,
			} {
				q.SetFilter(field, req.GetString(string(field), ""))
			}
			if req.GetBool("only_mine", false) {
				q.SetFilter(query.FieldOnlyMine, "true")
			}
			if raw := strings.TrimSpace(req.GetString("sort", "")); raw != "" {
				sort, ok := query.ParseSort(raw)
				if !ok {
					return mcp.NewToolResultError(fmt.Sprintf("invalid_request: unsupported sort %q", raw)), nil
				}
				q.SetSort(sort.Field, sort.Direction)
			}
			q.SetPage(req.GetInt("page", 1))

			snap := q.Snapshot()
			page, err := tasks.QueryTasks(ctx, snap)
			if err != nil {
				return toolResultFromError(err), nil
			}
			out := listTasksResult{
				Tasks:      page.Tasks,
				Pagination: page.Pagination,
				Sort:       snap.Sort.String(),
			}
			if page.Pagination != nil {
				out.Pages = query.Window(snap.Page, page.Pagination.TotalPages)
			}
			result, err := mcp.NewToolResultJSON(out)
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)
}

// registerGetTaskTool registers the `taskdeck.get_task` tool.
func registerGetTaskTool(srv *mcpserver.MCPServer, tasks TaskReader) {
	srv.AddTool(
		mcp.NewTool(
			"taskdeck.get_task",
			mcp.WithDescription("Return one task by id."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireInt("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.GetTask(ctx, int64(id))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode get_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerListAttachmentsTool registers the `taskdeck.list_attachments` tool.
func registerListAttachmentsTool(srv *mcpserver.MCPServer, attachments AttachmentReader) {
	srv.AddTool(
		mcp.NewTool(
			"taskdeck.list_attachments",
			mcp.WithDescription("List files attached to one task."),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireInt("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			items, err := attachments.ListAttachments(ctx, int64(taskID))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"attachments": items,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_attachments result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps app errors onto stable error prefixes.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotSignedIn), errors.Is(err, app.ErrUnauthorized):
		return mcp.NewToolResultError("unauthorized: " + err.Error())
	case errors.Is(err, app.ErrForbidden):
		return mcp.NewToolResultError("forbidden: " + err.Error())
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidInput):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}

func statusNames() []string {
	out := []string{}
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func priorityNames() []string {
	out := []string{}
	for _, p := range domain.Priorities() {
		out = append(out, string(p))
	}
	return out
}
