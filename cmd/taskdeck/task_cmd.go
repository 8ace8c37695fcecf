package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/evanschultz/taskdeck/internal/query"
	"github.com/spf13/cobra"
)

// listFlags mirrors the list query slots.
type listFlags struct {
	search   string
	status   string
	priority string
	tags     string
	dueFrom  string
	dueTo    string
	mine     bool
	sort     string
	page     int
	pageSize int
	asJSON   bool
}

// snapshot builds the query through the same setters the interactive list uses.
func (f listFlags) snapshot(defaultPageSize int) (query.Snapshot, error) {
	size := f.pageSize
	if size <= 0 {
		size = defaultPageSize
	}
	q := query.New(size)
	q.SetFilter(query.FieldSearch, f.search)
	q.SetFilter(query.FieldStatus, f.status)
	q.SetFilter(query.FieldPriority, f.priority)
	q.SetFilter(query.FieldTags, f.tags)
	q.SetFilter(query.FieldDueFrom, f.dueFrom)
	q.SetFilter(query.FieldDueTo, f.dueTo)
	if f.mine {
		q.SetFilter(query.FieldOnlyMine, "true")
	}
	if raw := strings.TrimSpace(f.sort); raw != "" {
		sort, ok := query.ParseSort(raw)
		if !ok {
			return query.Snapshot{}, fmt.Errorf("%w: unsupported sort %q", domain.ErrInvalidInput, raw)
		}
		q.SetSort(sort.Field, sort.Direction)
	}
	q.SetPage(f.page)
	return q.Snapshot(), nil
}

func listCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print one page of tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := rt.commandContext(cmd.Context(), "list")

			snap, err := flags.snapshot(rt.cfg.List.PageSize)
			if err != nil {
				return err
			}
			page, err := rt.svc.QueryTasks(ctx, snap)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(stdout, map[string]any{
					"tasks":      page.Tasks,
					"pagination": page.Pagination,
					"sort":       snap.Sort.String(),
				})
			}
			if len(page.Tasks) == 0 {
				_, _ = fmt.Fprintln(stdout, "no tasks match")
			} else {
				writeTaskTable(stdout, page.Tasks)
			}
			if p := page.Pagination; p != nil {
				if snap.Page > max(p.TotalPages, 1) {
					_, _ = fmt.Fprintf(stdout, "page %d is past the last page (%d)\n", snap.Page, p.TotalPages)
					return nil
				}
				_, _ = fmt.Fprintf(stdout, "%s  page %d of %d · %d tasks · %d per page\n",
					pagerLine(query.Window(snap.Page, p.TotalPages), snap.Page), snap.Page, max(p.TotalPages, 1), p.Total, snap.PageSize)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.search, "query", "q", "", "free-text search")
	f.StringVar(&flags.status, "status", "", "status filter: todo, in_progress, done")
	f.StringVar(&flags.priority, "priority", "", "priority filter: low, medium, high")
	f.StringVar(&flags.tags, "tags", "", "comma-separated tags")
	f.StringVar(&flags.dueFrom, "from", "", "earliest due date (YYYY-MM-DD)")
	f.StringVar(&flags.dueTo, "to", "", "latest due date (YYYY-MM-DD)")
	f.BoolVar(&flags.mine, "mine", false, "only tasks owned by the signed-in user")
	f.StringVar(&flags.sort, "sort", "", "field:direction, e.g. due_date:asc")
	f.IntVar(&flags.page, "page", 1, "1-based page number")
	f.IntVar(&flags.pageSize, "page-size", 0, "page size: 10, 20, 50 or 100 (default from config)")
	f.BoolVar(&flags.asJSON, "json", false, "print JSON")
	return cmd
}

func showCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			task, err := rt.svc.GetTask(rt.commandContext(cmd.Context(), "show"), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(stdout, task)
			}
			writeTask(stdout, task)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// taskFlags collects create/update fields.
type taskFlags struct {
	title       string
	description string
	status      string
	priority    string
	due         string
	tags        string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.title, "title", "t", "", "task title")
	fs.StringVarP(&f.description, "description", "d", "", "task description (markdown)")
	fs.StringVar(&f.status, "status", "", "todo, in_progress or done")
	fs.StringVar(&f.priority, "priority", "", "low, medium or high")
	fs.StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
	fs.StringVar(&f.tags, "tags", "", "comma-separated tags")
}

// input builds a TaskInput from the flags the user actually set.
func (f *taskFlags) input(cmd *cobra.Command) (domain.TaskInput, error) {
	var in domain.TaskInput
	changed := cmd.Flags().Changed
	if changed("title") {
		in.Title = &f.title
	}
	if changed("description") {
		in.Description = &f.description
	}
	if changed("status") {
		status, ok := domain.ParseStatus(f.status)
		if !ok {
			return domain.TaskInput{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, f.status)
		}
		in.Status = &status
	}
	if changed("priority") {
		priority, ok := domain.ParsePriority(f.priority)
		if !ok {
			return domain.TaskInput{}, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, f.priority)
		}
		in.Priority = &priority
	}
	if changed("due") {
		due, err := domain.ParseTimestamp(f.due)
		if err != nil {
			return domain.TaskInput{}, fmt.Errorf("%w: due %q", domain.ErrInvalidInput, f.due)
		}
		in.DueDate = &due
	}
	if changed("tags") {
		in.Tags = domain.SplitTags(f.tags)
	}
	return in, nil
}

func createCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var flags taskFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			task, err := rt.svc.CreateTask(rt.commandContext(cmd.Context(), "create"), in)
			if err != nil {
				return err
			}
			rt.logger.Info("task created", "task_id", task.ID)
			_, _ = fmt.Fprintf(stdout, "created task %d\n", task.ID)
			return nil
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func updateCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var flags taskFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			task, err := rt.svc.UpdateTask(rt.commandContext(cmd.Context(), "update"), id, in)
			if err != nil {
				return err
			}
			rt.logger.Info("task updated", "task_id", task.ID)
			_, _ = fmt.Fprintf(stdout, "updated task %d\n", task.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func deleteCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.svc.DeleteTask(rt.commandContext(cmd.Context(), "delete"), id); err != nil {
				return err
			}
			rt.logger.Info("task deleted", "task_id", id)
			_, _ = fmt.Fprintf(stdout, "deleted task %d\n", id)
			return nil
		},
	}
}
