// Package tui renders the interactive task list over the list query controller.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/evanschultz/taskdeck/internal/query"
	"github.com/evanschultz/taskdeck/internal/tasklist"
	"github.com/mattn/go-runewidth"
)

// Service is the read side the list view needs.
type Service interface {
	tasklist.Lister
	tasklist.UserSource
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	ListAttachments(ctx context.Context, taskID int64) ([]domain.Attachment, error)
}

// inputMode describes what keystrokes currently edit.
type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeTags
	modeDue
	modeDetail
)

// SessionExpiredMsg tells the view the session was rejected by the server.
type SessionExpiredMsg struct{}

// taskDetail holds the detail pane for one task.
type taskDetail struct {
	task        domain.Task
	attachments []domain.Attachment
	loading     bool
	err         error
	attachErr   error
}

// detailLoadedMsg carries one detail fetch.
type detailLoadedMsg struct {
	taskID      int64
	task        domain.Task
	attachments []domain.Attachment
	err         error
	attachErr   error
}

// clipboardResultMsg reports one clipboard write.
type clipboardResultMsg struct {
	text string
	err  error
}

// Model is the Bubble Tea model for the task list.
type Model struct {
	svc      Service
	list     *tasklist.Controller
	listOpts []tasklist.Option
	timeout  time.Duration

	ready  bool
	width  int
	height int

	status   string
	username string
	expired  bool

	help help.Model
	keys keyMap

	mode   inputMode
	input  textinput.Model
	cursor int

	detail    *taskDetail
	markdown  *markdownRenderer
	clipboard ClipboardWriter
}

// NewModel constructs the list view. The controller is built after options apply.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:       svc,
		timeout:   tasklist.DefaultRequestTimeout,
		help:      h,
		keys:      newKeyMap(),
		input:     newModalInput("", "", "", 120),
		markdown:  newMarkdownRenderer("dark"),
		clipboard: systemClipboard{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.list = tasklist.New(svc, svc, m.listOpts...)
	return m
}

// Init mounts the list and issues the first fetch.
func (m Model) Init() tea.Cmd {
	return m.list.Mount()
}

// Expired reports whether the view quit because the session expired.
func (m Model) Expired() bool {
	return m.expired
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SessionExpiredMsg:
		m.expired = true
		m.status = "session expired"
		m.list.Unmount()
		return m, tea.Quit

	case detailLoadedMsg:
		if m.mode != modeDetail || m.detail == nil || m.detail.task.ID != msg.taskID {
			return m, nil
		}
		m.detail.loading = false
		m.detail.err = msg.err
		m.detail.attachErr = msg.attachErr
		if msg.err == nil {
			m.detail.task = msg.task
			m.detail.attachments = msg.attachments
		}
		return m, nil

	case clipboardResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + msg.text
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch, modeTags, modeDue:
			return m.handleInputModeKey(msg)
		case modeDetail:
			return m.handleDetailKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}
	}

	if handled, cmd := m.list.Update(msg); handled {
		m.clampCursor()
		return m, cmd
	}
	if m.inputActive() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleNormalModeKey maps list-mode keys onto query mutations.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	snap := m.list.Query()
	switch {
	case key.Matches(msg, m.keys.quit):
		m.list.Unmount()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.cursor = max(0, m.cursor-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.cursor++
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.prevPage):
		return m, m.list.SetPage(snap.Page - 1)
	case key.Matches(msg, m.keys.nextPage):
		if p := m.list.State().Pagination; p != nil && snap.Page >= p.TotalPages {
			return m, nil
		}
		return m, m.list.SetPage(snap.Page + 1)
	case key.Matches(msg, m.keys.pageButton):
		idx, err := strconv.Atoi(msg.String())
		window := m.list.PageWindow()
		if err != nil || idx < 1 || idx > len(window) {
			return m, nil
		}
		return m, m.list.SetPage(window[idx-1])
	case key.Matches(msg, m.keys.pageSize):
		m.cursor = 0
		return m, m.list.SetPageSize(nextPageSize(snap.PageSize))
	case key.Matches(msg, m.keys.search):
		return m, m.startInput(modeSearch, "search: ", "title or description", snap.SearchText)
	case key.Matches(msg, m.keys.tags):
		return m, m.startInput(modeTags, "tags: ", "comma separated", snap.Tags)
	case key.Matches(msg, m.keys.dueRange):
		return m, m.startInput(modeDue, "due: ", "YYYY-MM-DD..YYYY-MM-DD", formatDueRange(snap.DueFrom, snap.DueTo))
	case key.Matches(msg, m.keys.cycleStatus):
		m.cursor = 0
		return m, m.list.SetFilter(query.FieldStatus, cycle(statusOptions(), string(snap.Status)))
	case key.Matches(msg, m.keys.cyclePriority):
		m.cursor = 0
		return m, m.list.SetFilter(query.FieldPriority, cycle(priorityOptions(), string(snap.Priority)))
	case key.Matches(msg, m.keys.toggleMine):
		m.cursor = 0
		return m, m.list.SetFilter(query.FieldOnlyMine, strconv.FormatBool(!snap.OnlyMine))
	case key.Matches(msg, m.keys.sortField):
		next := snap.Sort.NextField()
		return m, m.list.SetSort(next.Field, next.Direction)
	case key.Matches(msg, m.keys.sortDirection):
		next := snap.Sort.Toggle()
		return m, m.list.SetSort(next.Field, next.Direction)
	case key.Matches(msg, m.keys.clearAll):
		m.cursor = 0
		m.status = "filters cleared"
		return m, m.list.ClearAll()
	case key.Matches(msg, m.keys.reload):
		m.status = ""
		return m, m.list.Retry()
	case key.Matches(msg, m.keys.taskInfo):
		return m, m.openDetail()
	case key.Matches(msg, m.keys.copyID):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.copyCmd(strconv.FormatInt(task.ID, 10))
	default:
		return m, nil
	}
}

// handleInputModeKey edits the active prompt. Search and tag edits go to the
// controller per keystroke, which debounces them.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		mode := m.mode
		value := m.input.Value()
		m.closeInput()
		m.cursor = 0
		if mode == modeDue {
			from, to := parseDueRange(value)
			return m, m.list.SetDueRange(from, to)
		}
		return m, m.list.Submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	switch m.mode {
	case modeSearch:
		return m, tea.Batch(cmd, m.list.SetFilter(query.FieldSearch, m.input.Value()))
	case modeTags:
		return m, tea.Batch(cmd, m.list.SetFilter(query.FieldTags, m.input.Value()))
	default:
		return m, cmd
	}
}

// handleDetailKey handles keys while the detail pane is open.
func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc" || key.Matches(msg, m.keys.taskInfo):
		m.mode = modeNone
		m.detail = nil
		return m, nil
	case key.Matches(msg, m.keys.quit):
		m.list.Unmount()
		return m, tea.Quit
	case key.Matches(msg, m.keys.copyID):
		if m.detail == nil {
			return m, nil
		}
		return m, m.copyCmd(strconv.FormatInt(m.detail.task.ID, 10))
	case key.Matches(msg, m.keys.reload):
		if m.detail == nil {
			return m, nil
		}
		m.detail.loading = true
		return m, m.loadDetail(m.detail.task.ID)
	default:
		return m, nil
	}
}

// newModalInput constructs one prompt input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// startInput opens a prompt seeded with the current filter value.
func (m *Model) startInput(mode inputMode, prompt, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input = newModalInput(prompt, placeholder, value, 120)
	m.input.CursorEnd()
	m.status = ""
	return m.input.Focus()
}

// closeInput leaves prompt mode; filters already sent stay applied.
func (m *Model) closeInput() {
	m.input.Blur()
	m.mode = modeNone
}

func (m Model) inputActive() bool {
	return m.mode == modeSearch || m.mode == modeTags || m.mode == modeDue
}

// openDetail switches to the detail pane for the selected task.
func (m *Model) openDetail() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		return nil
	}
	m.mode = modeDetail
	m.detail = &taskDetail{task: task, loading: true}
	return m.loadDetail(task.ID)
}

// loadDetail fetches the full task and its attachments.
func (m Model) loadDetail(id int64) tea.Cmd {
	svc, timeout := m.svc, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		task, err := svc.GetTask(ctx, id)
		if err != nil {
			return detailLoadedMsg{taskID: id, err: err}
		}
		attachments, attachErr := svc.ListAttachments(ctx, id)
		return detailLoadedMsg{taskID: id, task: task, attachments: attachments, attachErr: attachErr}
	}
}

func (m Model) copyCmd(text string) tea.Cmd {
	cb := m.clipboard
	return func() tea.Msg {
		return clipboardResultMsg{text: text, err: cb.WriteText(text)}
	}
}

// selectedTask returns the task under the cursor.
func (m Model) selectedTask() (domain.Task, bool) {
	items := m.list.State().Items
	if len(items) == 0 {
		return domain.Task{}, false
	}
	return items[clamp(m.cursor, 0, len(items)-1)], true
}

// clampCursor keeps the cursor on a visible row after the list changes.
func (m *Model) clampCursor() {
	n := len(m.list.State().Items)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, n-1)
}

// View renders the list or detail pane.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("taskdeck")
	if m.username != "" {
		header += statusStyle.Render("  " + m.username)
	}

	var body string
	if m.mode == modeDetail {
		body = m.renderDetail()
	} else {
		body = m.renderList()
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	content := strings.Join([]string{header, body}, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	v := tea.NewView(content + "\n" + helpLine)
	v.AltScreen = true
	return v
}

// renderList renders filters, status, rows and the pager.
func (m Model) renderList() string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	filterStyle := lipgloss.NewStyle().Foreground(muted)
	warningStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	currentPageStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)

	state := m.list.State()
	snap := m.list.Query()
	lines := []string{filterStyle.Render(filterSummary(snap))}

	if m.inputActive() {
		lines = append(lines, m.input.View())
	}

	switch state.Phase() {
	case tasklist.PhaseLoading:
		lines = append(lines, "loading…")
	case tasklist.PhaseRefreshing:
		lines = append(lines, filterStyle.Render("refreshing…"))
	case tasklist.PhaseError, tasklist.PhaseLoadedWithError:
		lines = append(lines, warningStyle.Render("error: "+state.Error()+" · r to retry"))
	default:
		if m.status != "" {
			lines = append(lines, filterStyle.Render(m.status))
		}
	}
	lines = append(lines, "")

	if len(state.Items) == 0 && !state.InitialLoading {
		if state.Err == nil {
			lines = append(lines, "no tasks match")
		}
	} else {
		rows := max(1, m.height-10)
		start, end := windowBounds(len(state.Items), m.cursor, rows)
		titleWidth := max(16, m.width-56)
		for idx := start; idx < end; idx++ {
			row := renderTaskRow(state.Items[idx], titleWidth)
			if idx == m.cursor {
				lines = append(lines, selectedStyle.Render("› "+row))
				continue
			}
			lines = append(lines, "  "+row)
		}
	}

	if p := state.Pagination; p != nil {
		buttons := []string{"‹"}
		for _, n := range m.list.PageWindow() {
			label := strconv.Itoa(n)
			if n == snap.Page {
				buttons = append(buttons, currentPageStyle.Render("["+label+"]"))
				continue
			}
			buttons = append(buttons, label)
		}
		buttons = append(buttons, "›")
		lines = append(lines, "", strings.Join(buttons, " ")+filterStyle.Render(fmt.Sprintf(
			"  page %d of %d · %d tasks · %d per page", snap.Page, max(p.TotalPages, 1), p.Total, snap.PageSize,
		)))
	}
	return strings.Join(lines, "\n")
}

// renderDetail renders the selected task with its description and attachments.
func (m Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	muted := lipgloss.Color("241")
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	warningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	task := m.detail.task
	lines := []string{
		"",
		titleStyle.Render(fmt.Sprintf("#%d %s", task.ID, task.Title)),
		labelStyle.Render("status: ") + string(task.Status) + labelStyle.Render("  priority: ") + string(task.Priority),
	}
	if due := task.DueDate.Date(); due != "" {
		lines = append(lines, labelStyle.Render("due: ")+due)
	}
	if len(task.Tags) > 0 {
		lines = append(lines, labelStyle.Render("tags: ")+strings.Join(task.Tags, ", "))
	}
	if task.OwnerUsername != "" {
		lines = append(lines, labelStyle.Render("owner: ")+task.OwnerUsername)
	}
	switch {
	case m.detail.loading:
		lines = append(lines, "", "loading…")
	case m.detail.err != nil:
		lines = append(lines, "", warningStyle.Render("error: "+m.detail.err.Error()))
	}
	if desc := m.markdown.render(task.Description, max(0, m.width-4)); desc != "" {
		lines = append(lines, "", desc)
	}
	if m.detail.attachErr != nil {
		lines = append(lines, "", warningStyle.Render("attachments: "+m.detail.attachErr.Error()))
	} else if len(m.detail.attachments) > 0 {
		lines = append(lines, "", labelStyle.Render("attachments"))
		for _, a := range m.detail.attachments {
			lines = append(lines, fmt.Sprintf("  %d  %s  %s", a.ID, a.Filename, formatSize(a.FileSize)))
		}
	}
	if m.status != "" {
		lines = append(lines, "", labelStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

// renderTaskRow renders one fixed-width list row.
func renderTaskRow(task domain.Task, titleWidth int) string {
	cells := []string{
		runewidth.FillRight("#"+strconv.FormatInt(task.ID, 10), 6),
		runewidth.FillRight(runewidth.Truncate(task.Title, titleWidth, "…"), titleWidth),
		runewidth.FillRight(string(task.Status), 11),
		runewidth.FillRight(string(task.Priority), 6),
		runewidth.FillRight(task.DueDate.Date(), 10),
		runewidth.Truncate(strings.Join(task.Tags, ","), 20, "…"),
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}

// filterSummary renders the active query as one line.
func filterSummary(snap query.Snapshot) string {
	parts := []string{}
	if q := strings.TrimSpace(snap.SearchText); q != "" {
		parts = append(parts, "q="+strconv.Quote(q))
	}
	if snap.Status != "" {
		parts = append(parts, "status="+string(snap.Status))
	}
	if snap.Priority != "" {
		parts = append(parts, "priority="+string(snap.Priority))
	}
	if tags := domain.SplitTags(snap.Tags); len(tags) > 0 {
		parts = append(parts, "tags="+strings.Join(tags, ","))
	}
	if snap.DueFrom != "" || snap.DueTo != "" {
		parts = append(parts, "due="+formatDueRange(snap.DueFrom, snap.DueTo))
	}
	if snap.OnlyMine {
		parts = append(parts, "mine")
	}
	if len(parts) == 0 {
		parts = append(parts, "no filters")
	}
	parts = append(parts, "sort="+snap.Sort.String())
	return strings.Join(parts, "  ")
}

// parseDueRange reads "from..to"; a single date selects that day.
func parseDueRange(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	from, to, found := strings.Cut(raw, "..")
	if !found {
		return raw, raw
	}
	return strings.TrimSpace(from), strings.TrimSpace(to)
}

func formatDueRange(from, to string) string {
	if from == "" && to == "" {
		return ""
	}
	return from + ".." + to
}

// cycle returns the option after current, wrapping through "".
func cycle(options []string, current string) string {
	all := append([]string{""}, options...)
	idx := slices.Index(all, current)
	return all[(idx+1)%len(all)]
}

func statusOptions() []string {
	out := []string{}
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func priorityOptions() []string {
	out := []string{}
	for _, p := range domain.Priorities() {
		out = append(out, string(p))
	}
	return out
}

// nextPageSize steps through the allowed page sizes.
func nextPageSize(current int) int {
	sizes := query.PageSizes()
	idx := slices.Index(sizes, current)
	return sizes[(idx+1)%len(sizes)]
}

// formatSize renders a byte count for humans.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// windowBounds returns the visible row range keeping selected on screen.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	if total <= windowSize {
		return 0, total
	}
	selected = clamp(selected, 0, total-1)
	start := max(0, selected-windowSize/2)
	end := start + windowSize
	if end > total {
		end = total
		start = max(0, end-windowSize)
	}
	return start, end
}

// fitLines truncates content to at most n lines.
func fitLines(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[:n], "\n")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
