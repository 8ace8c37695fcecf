package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// taskRows flattens tasks into display cells.
func taskRows(tasks []domain.Task, titleWidth int) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			strconv.FormatInt(task.ID, 10),
			runewidth.Truncate(task.Title, titleWidth, "…"),
			string(task.Status),
			string(task.Priority),
			task.DueDate.Date(),
			strings.Join(task.Tags, ","),
			task.OwnerUsername,
		})
	}
	return rows
}

var taskHeaders = []string{"ID", "Title", "Status", "Priority", "Due", "Tags", "Owner"}

// writeTaskTable renders a bordered table on terminals and tab-separated rows otherwise.
func writeTaskTable(w io.Writer, tasks []domain.Task) {
	if !isTerminal(w) {
		_, _ = fmt.Fprintln(w, strings.Join(taskHeaders, "\t"))
		for _, row := range taskRows(tasks, 1<<16) {
			_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(taskHeaders...).
		Rows(taskRows(tasks, 48)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, _ = fmt.Fprintln(w, t.Render())
}

// writeTask prints one task as key/value lines.
func writeTask(w io.Writer, task domain.Task) {
	_, _ = fmt.Fprintf(w, "id: %d\n", task.ID)
	_, _ = fmt.Fprintf(w, "title: %s\n", task.Title)
	_, _ = fmt.Fprintf(w, "status: %s\n", task.Status)
	_, _ = fmt.Fprintf(w, "priority: %s\n", task.Priority)
	if due := task.DueDate.Date(); due != "" {
		_, _ = fmt.Fprintf(w, "due: %s\n", due)
	}
	if len(task.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "tags: %s\n", strings.Join(task.Tags, ", "))
	}
	if task.OwnerUsername != "" {
		_, _ = fmt.Fprintf(w, "owner: %s\n", task.OwnerUsername)
	}
	if desc := strings.TrimSpace(task.Description); desc != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", desc)
	}
}

// writeAttachments prints one attachment per line.
func writeAttachments(w io.Writer, items []domain.Attachment) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "no attachments")
		return
	}
	for _, a := range items {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", a.ID, a.Filename, a.FileSize, a.ContentType)
	}
}

// pagerLine renders the page buttons with the current page bracketed.
func pagerLine(window []int, page int) string {
	parts := make([]string, 0, len(window))
	for _, n := range window {
		label := strconv.Itoa(n)
		if n == page {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}
