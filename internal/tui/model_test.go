package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/domain"
)

type fakeService struct {
	mu          sync.Mutex
	calls       []url.Values
	totalPages  int
	failAfter   int
	userID      int64
	attachments []domain.Attachment
}

func newFakeService(totalPages int) *fakeService {
	return &fakeService{totalPages: totalPages, userID: 7}
}

func (f *fakeService) ListTasks(_ context.Context, params url.Values) (domain.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.failAfter > 0 && len(f.calls) > f.failAfter {
		return domain.TaskPage{}, errors.New("backend unavailable")
	}
	page, _ := strconv.Atoi(params.Get("page"))
	size, _ := strconv.Atoi(params.Get("page_size"))
	tasks := []domain.Task{}
	if page <= f.totalPages {
		for i := 1; i <= 3; i++ {
			tasks = append(tasks, domain.Task{
				ID:       int64(page*100 + i),
				Title:    fmt.Sprintf("task p%d-%d", page, i),
				Status:   domain.StatusTodo,
				Priority: domain.PriorityMedium,
			})
		}
	}
	return domain.TaskPage{
		Tasks: tasks,
		Pagination: &domain.Pagination{
			Page:       page,
			PageSize:   size,
			Total:      f.totalPages * 3,
			TotalPages: f.totalPages,
		},
	}, nil
}

func (f *fakeService) CurrentUserID() (int64, bool) {
	return f.userID, f.userID > 0
}

func (f *fakeService) GetTask(_ context.Context, id int64) (domain.Task, error) {
	if id <= 0 {
		return domain.Task{}, app.ErrNotFound
	}
	return domain.Task{ID: id, Title: "detail", Description: "**bold** text", Tags: []string{"ops"}}, nil
}

func (f *fakeService) ListAttachments(_ context.Context, taskID int64) ([]domain.Attachment, error) {
	return f.attachments, nil
}

func (f *fakeService) lastParams(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("expected at least one list call")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteText(text string) error {
	c.text = text
	return nil
}

// TestModelInitialLoadRendersRows verifies behavior for the covered scenario.
func TestModelInitialLoadRendersRows(t *testing.T) {
	svc := newFakeService(9)
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond)))

	if svc.callCount() != 1 {
		t.Fatalf("expected one initial fetch, got %d", svc.callCount())
	}
	out := m.renderList()
	for _, want := range []string{"task p1-1", "task p1-3", "[1]", "page 1 of 9", "no filters", "sort=created_at:desc"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in list view:\n%s", want, out)
		}
	}
}

// TestModelSearchKeystrokesCollapseIntoOneFetch verifies behavior for the covered scenario.
func TestModelSearchKeystrokesCollapseIntoOneFetch(t *testing.T) {
	svc := newFakeService(2)
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond)))

	m, _ = pressKey(t, m, keyRune('/'))
	if m.mode != modeSearch {
		t.Fatalf("expected search mode, got %v", m.mode)
	}
	var pending []tea.Cmd
	for _, r := range "test" {
		var cmd tea.Cmd
		m, cmd = pressKey(t, m, keyRune(r))
		pending = append(pending, cmd)
	}
	m = applyCmd(t, m, tea.Batch(pending...))

	if got := svc.callCount(); got != 2 {
		t.Fatalf("expected initial fetch plus one debounced fetch, got %d", got)
	}
	if q := svc.lastParams(t).Get("q"); q != "test" {
		t.Fatalf("expected q=test, got %q", q)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeNone {
		t.Fatalf("expected enter to close search, got mode %v", m.mode)
	}
	if got := svc.callCount(); got != 3 {
		t.Fatalf("expected submit to fetch immediately, got %d calls", got)
	}
}

// TestModelFilterKeysFetchImmediately verifies behavior for the covered scenario.
func TestModelFilterKeysFetchImmediately(t *testing.T) {
	svc := newFakeService(3)
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond)))
	initial := svc.lastParams(t)

	m = applyMsg(t, m, keyRune('s'))
	if got := svc.lastParams(t).Get("status"); got != "todo" {
		t.Fatalf("expected status=todo, got %q", got)
	}
	m = applyMsg(t, m, keyRune('p'))
	if got := svc.lastParams(t).Get("priority"); got != "low" {
		t.Fatalf("expected priority=low, got %q", got)
	}
	m = applyMsg(t, m, keyRune('m'))
	if got := svc.lastParams(t).Get("owner_user_id"); got != "7" {
		t.Fatalf("expected owner_user_id=7, got %q", got)
	}
	m = applyMsg(t, m, keyRune('o'))
	if got := svc.lastParams(t).Get("sort"); got != "due_date:desc" {
		t.Fatalf("expected sort=due_date:desc, got %q", got)
	}
	m = applyMsg(t, m, keyRune('O'))
	if got := svc.lastParams(t).Get("sort"); got != "due_date:asc" {
		t.Fatalf("expected sort=due_date:asc, got %q", got)
	}

	m = applyMsg(t, m, keyRune('c'))
	if got := svc.lastParams(t).Encode(); got != initial.Encode() {
		t.Fatalf("expected clear to restore %q, got %q", initial.Encode(), got)
	}
	if !strings.Contains(m.renderList(), "no filters") {
		t.Fatal("expected cleared filter summary")
	}
}

// TestModelPagingKeys verifies behavior for the covered scenario.
func TestModelPagingKeys(t *testing.T) {
	svc := newFakeService(9)
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond)))

	m = applyMsg(t, m, keyRune(']'))
	if got := svc.lastParams(t).Get("page"); got != "2" {
		t.Fatalf("expected page=2, got %q", got)
	}
	m = applyMsg(t, m, keyRune('['))
	if got := svc.lastParams(t).Get("page"); got != "1" {
		t.Fatalf("expected page=1, got %q", got)
	}
	before := svc.callCount()
	m = applyMsg(t, m, keyRune('['))
	if svc.callCount() != before {
		t.Fatal("expected no fetch before page 1")
	}

	m = applyMsg(t, m, keyRune('5'))
	if got := svc.lastParams(t).Get("page"); got != "5" {
		t.Fatalf("expected window button 5 to select page 5, got %q", got)
	}
	if !strings.Contains(m.renderList(), "[5]") {
		t.Fatalf("expected current page marker, got:\n%s", m.renderList())
	}

	m = applyMsg(t, m, keyRune('z'))
	params := svc.lastParams(t)
	if params.Get("page_size") != "50" || params.Get("page") != "1" {
		t.Fatalf("expected page_size=50 page=1, got %q", params.Encode())
	}
}

// TestModelErrorKeepsRowsAndRetries verifies behavior for the covered scenario.
func TestModelErrorKeepsRowsAndRetries(t *testing.T) {
	svc := newFakeService(2)
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond)))
	svc.failAfter = 1

	m = applyMsg(t, m, keyRune(']'))
	out := m.renderList()
	if !strings.Contains(out, "error: backend unavailable") || !strings.Contains(out, "task p1-1") {
		t.Fatalf("expected error line over previous rows, got:\n%s", out)
	}

	before := svc.callCount()
	m = applyMsg(t, m, keyRune('r'))
	if svc.callCount() != before+1 {
		t.Fatal("expected retry to fetch")
	}
	if got := svc.lastParams(t).Get("page"); got != "2" {
		t.Fatalf("expected retry to keep page 2, got %q", got)
	}
}

// TestModelDueRangeInput verifies behavior for the covered scenario.
func TestModelDueRangeInput(t *testing.T) {
	svc := newFakeService(1)
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond)))

	m, _ = pressKey(t, m, keyRune('d'))
	for _, r := range "2026-01-01..2026-01-31" {
		m, _ = pressKey(t, m, keyRune(r))
	}
	before := svc.callCount()
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if got := svc.callCount() - before; got != 1 {
		t.Fatalf("expected one fetch for the due range, got %d", got)
	}
	params := svc.lastParams(t)
	if params.Get("due_date_from") != "2026-01-01" || params.Get("due_date_to") != "2026-01-31" {
		t.Fatalf("unexpected due params %q", params.Encode())
	}
	if !strings.Contains(m.renderList(), "due=2026-01-01..2026-01-31") {
		t.Fatal("expected due range in filter summary")
	}
}

// TestModelDetailAndCopy verifies behavior for the covered scenario.
func TestModelDetailAndCopy(t *testing.T) {
	svc := newFakeService(1)
	svc.attachments = []domain.Attachment{{ID: 4, TaskID: 101, Filename: "design.pdf", FileSize: 2048}}
	cb := &fakeClipboard{}
	m := loadReadyModel(t, NewModel(svc, WithQuietPeriod(time.Millisecond), WithClipboard(cb)))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeDetail || m.detail == nil || m.detail.loading {
		t.Fatalf("expected loaded detail, got mode=%v detail=%#v", m.mode, m.detail)
	}
	out := m.renderDetail()
	for _, want := range []string{"#101 detail", "design.pdf", "2.0 KiB", "ops"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in detail view:\n%s", want, out)
		}
	}

	m = applyMsg(t, m, keyRune('y'))
	if cb.text != "101" || !strings.Contains(m.status, "copied 101") {
		t.Fatalf("expected copied id, got clipboard=%q status=%q", cb.text, m.status)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone || m.detail != nil {
		t.Fatal("expected esc to close detail")
	}
}

// TestModelSessionExpiredQuits verifies behavior for the covered scenario.
func TestModelSessionExpiredQuits(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService(1), WithQuietPeriod(time.Millisecond)))
	updated, cmd := m.Update(SessionExpiredMsg{})
	out := updated.(Model)
	if !out.Expired() || cmd == nil {
		t.Fatal("expected expiry to mark the model and quit")
	}
}

// TestModelQuitKey verifies behavior for the covered scenario.
func TestModelQuitKey(t *testing.T) {
	m := NewModel(newFakeService(1))
	updated, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if updated == nil {
		t.Fatal("expected model return value")
	}
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
}

// TestModelKeyConfigRebindsSearch verifies behavior for the covered scenario.
func TestModelKeyConfigRebindsSearch(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService(1), WithKeyConfig(KeyConfig{Search: "f"})))
	m, _ = pressKey(t, m, keyRune('/'))
	if m.mode != modeNone {
		t.Fatal("expected default search key to be unbound")
	}
	m, _ = pressKey(t, m, keyRune('f'))
	if m.mode != modeSearch {
		t.Fatal("expected configured search key to open search")
	}
}

// TestHelpers verifies behavior for the covered scenario.
func TestHelpers(t *testing.T) {
	if from, to := parseDueRange(" 2026-01-01 .. 2026-02-01 "); from != "2026-01-01" || to != "2026-02-01" {
		t.Fatalf("unexpected range %q..%q", from, to)
	}
	if from, to := parseDueRange("2026-03-04"); from != "2026-03-04" || to != "2026-03-04" {
		t.Fatalf("expected single day range, got %q..%q", from, to)
	}
	if from, to := parseDueRange("..2026-03-04"); from != "" || to != "2026-03-04" {
		t.Fatalf("expected open start, got %q..%q", from, to)
	}
	if got := cycle([]string{"a", "b"}, "b"); got != "" {
		t.Fatalf("expected cycle to wrap to unset, got %q", got)
	}
	if got := cycle([]string{"a", "b"}, ""); got != "a" {
		t.Fatalf("expected first option, got %q", got)
	}
	if got := nextPageSize(100); got != 10 {
		t.Fatalf("expected page size wrap to 10, got %d", got)
	}
	if got := formatSize(512); got != "512 B" {
		t.Fatalf("unexpected size %q", got)
	}
	if start, end := windowBounds(100, 99, 10); start != 90 || end != 100 {
		t.Fatalf("unexpected bounds %d..%d", start, end)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\nb" {
		t.Fatalf("unexpected fit %q", got)
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func pressKey(t *testing.T, m Model, msg tea.KeyPressMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out, cmd
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// applyCmd runs commands to quiescence. Commands that block past a short
// deadline, such as cursor blinks, are dropped.
func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 64; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := runCmd(next)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		updated, nextCmd := out.Update(msg)
		casted, isModel := updated.(Model)
		if !isModel {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		queue = append(queue, nextCmd)
	}
	return out
}

func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
