// Package tasklist drives the task list query: it turns query mutations into at
// most one current list request and applies only the newest response.
package tasklist

import (
	"context"
	"maps"
	"net/url"
	"slices"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/taskdeck/internal/domain"
	"github.com/evanschultz/taskdeck/internal/query"
)

// DefaultRequestTimeout bounds one list request.
const DefaultRequestTimeout = 15 * time.Second

// Lister issues one list request.
type Lister interface {
	ListTasks(ctx context.Context, params url.Values) (domain.TaskPage, error)
}

// UserSource resolves the signed-in user's id. It is read, never written.
type UserSource interface {
	CurrentUserID() (int64, bool)
}

// Logger receives controller diagnostics.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// Request is the immutable snapshot sent for one generation.
type Request struct {
	Generation uint64
	Trigger    Trigger
	Query      query.Snapshot
	OwnerID    int64
	Params     url.Values
}

// FetchedMsg carries one list response back to the controller that issued it.
type FetchedMsg struct {
	owner   *Controller
	Request Request
	Page    domain.TaskPage
	Err     error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostics sink.
func WithLogger(logger Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithQuietPeriod sets the debounce quiet period for free-text fields.
func WithQuietPeriod(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.sched.quiet = d
		}
	}
}

// WithRequestTimeout bounds each list request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		c.query = query.New(n)
	}
}

// withTick swaps the timer source; tests use it to fire debounce timers instantly.
func withTick(tick tickFunc) Option {
	return func(c *Controller) {
		if tick != nil {
			c.sched.tick = tick
		}
	}
}

// Controller owns one list view's query, debounce timer, generation counter and
// view state. It is driven from a single goroutine (the Bubble Tea update loop);
// network calls run as commands and report back through FetchedMsg.
type Controller struct {
	lister  Lister
	users   UserSource
	logger  Logger
	timeout time.Duration

	query *query.Model
	sched scheduler

	generation uint64
	last       *Request
	state      State
}

// New constructs a controller in the initial-loading state.
func New(lister Lister, users UserSource, opts ...Option) *Controller {
	c := &Controller{
		lister:  lister,
		users:   users,
		logger:  nopLogger{},
		timeout: DefaultRequestTimeout,
		query:   query.New(query.DefaultPageSize),
		sched:   newScheduler(DefaultQuietPeriod),
		state:   State{InitialLoading: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Mount starts the view lifecycle and issues the first fetch.
func (c *Controller) Mount() tea.Cmd {
	c.state.mounted = true
	return c.trigger(TriggerImmediate)
}

// Unmount ends the lifecycle. Pending timers and in-flight responses are ignored afterwards.
func (c *Controller) Unmount() {
	c.sched.cancel()
	c.generation++
	c.state.mounted = false
}

// Query returns a copy of the current query.
func (c *Controller) Query() query.Snapshot {
	return c.query.Snapshot()
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	return c.state.clone()
}

// Generation returns the newest issued generation.
func (c *Controller) Generation() uint64 {
	return c.generation
}

// LastRequest returns the newest issued request, if any.
func (c *Controller) LastRequest() (Request, bool) {
	if c.last == nil {
		return Request{}, false
	}
	req := *c.last
	req.Params = cloneParams(req.Params)
	return req, true
}

// PageWindow returns the page buttons for the current pagination.
func (c *Controller) PageWindow() []int {
	if c.state.Pagination == nil {
		return nil
	}
	return query.Window(c.query.Snapshot().Page, c.state.Pagination.TotalPages)
}

// SetFilter updates one filter slot. Free-text slots are debounced.
func (c *Controller) SetFilter(field query.Field, value string) tea.Cmd {
	if !c.query.SetFilter(field, value) {
		return nil
	}
	return c.trigger(ClassifyField(field))
}

// SetDueRange updates both due-date bounds with a single immediate fetch.
func (c *Controller) SetDueRange(from, to string) tea.Cmd {
	if !c.query.SetDueRange(from, to) {
		return nil
	}
	return c.trigger(TriggerImmediate)
}

// SetSort updates the sort pair.
func (c *Controller) SetSort(field query.SortField, dir query.Direction) tea.Cmd {
	if !c.query.SetSort(field, dir) {
		return nil
	}
	return c.trigger(TriggerImmediate)
}

// SetPage moves to page n.
func (c *Controller) SetPage(n int) tea.Cmd {
	if !c.query.SetPage(n) {
		return nil
	}
	return c.trigger(TriggerImmediate)
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(n int) tea.Cmd {
	if !c.query.SetPageSize(n) {
		return nil
	}
	return c.trigger(TriggerImmediate)
}

// ClearAll restores default filters and sort and fetches immediately.
func (c *Controller) ClearAll() tea.Cmd {
	c.query.ClearAll()
	return c.trigger(TriggerImmediate)
}

// Submit fetches the current query now, superseding any pending debounce.
func (c *Controller) Submit() tea.Cmd {
	return c.trigger(TriggerImmediate)
}

// Retry re-issues the current query under a new generation.
func (c *Controller) Retry() tea.Cmd {
	return c.trigger(TriggerImmediate)
}

// Update consumes controller messages. handled is false for messages that belong
// to someone else.
func (c *Controller) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case debounceFiredMsg:
		if msg.owner != c {
			return false, nil
		}
		if !c.state.mounted || !c.sched.fire(msg) {
			return true, nil
		}
		return true, c.fetch(TriggerDebounced)
	case FetchedMsg:
		if msg.owner != c {
			return false, nil
		}
		return true, c.apply(msg)
	default:
		return false, nil
	}
}

// trigger routes a mutation through the scheduler. Immediate triggers cancel any
// pending debounce so the newer fetch supersedes it.
func (c *Controller) trigger(t Trigger) tea.Cmd {
	if !c.state.mounted {
		return nil
	}
	if t == TriggerDebounced {
		return c.sched.debounce(c)
	}
	c.sched.cancel()
	return c.fetch(TriggerImmediate)
}

// fetch snapshots the query, assigns the next generation and returns the request command.
func (c *Controller) fetch(t Trigger) tea.Cmd {
	snap := c.query.Snapshot()
	ownerID := c.resolveOwner(snap)
	params := snap.Params(ownerID)

	if t == TriggerDebounced && c.redundant(params) {
		c.logger.Debug("list fetch skipped", "reason", "unchanged params", "generation", c.generation)
		return nil
	}

	c.generation++
	req := Request{
		Generation: c.generation,
		Trigger:    t,
		Query:      snap,
		OwnerID:    ownerID,
		Params:     params,
	}
	c.last = &req
	if !c.state.InitialLoading {
		c.state.Refreshing = true
	}
	c.logger.Debug("list fetch issued", "generation", req.Generation, "trigger", t, "params", params.Encode())

	lister, timeout, owner := c.lister, c.timeout, c
	reqParams := cloneParams(params)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := lister.ListTasks(ctx, reqParams)
		return FetchedMsg{owner: owner, Request: req, Page: page, Err: err}
	}
}

// redundant reports whether params match the newest request, which is either still
// in flight or already displayed without error.
func (c *Controller) redundant(params url.Values) bool {
	if c.last == nil || c.last.Generation != c.generation || c.state.Err != nil {
		return false
	}
	return maps.EqualFunc(c.last.Params, params, slices.Equal[[]string])
}

// resolveOwner reads the current user id at fetch time; only-mine is inert without one.
func (c *Controller) resolveOwner(snap query.Snapshot) int64 {
	if !snap.OnlyMine {
		return 0
	}
	if c.users == nil {
		c.logger.Debug("only-mine filter inert", "reason", "no session")
		return 0
	}
	id, ok := c.users.CurrentUserID()
	if !ok || id <= 0 {
		c.logger.Debug("only-mine filter inert", "reason", "no current user")
		return 0
	}
	return id
}

// apply installs a response when it belongs to the newest generation and drops it otherwise.
func (c *Controller) apply(msg FetchedMsg) tea.Cmd {
	gen := msg.Request.Generation
	if !c.state.mounted || gen != c.generation {
		c.logger.Debug("list response discarded", "generation", gen, "current", c.generation)
		return nil
	}

	c.state.InitialLoading = false
	c.state.Refreshing = false
	if msg.Err != nil {
		c.state.Err = msg.Err
		c.logger.Warn("list fetch failed", "generation", gen, "err", msg.Err)
		return nil
	}

	c.state.Err = nil
	c.state.Pagination = nil
	if p := msg.Page.Pagination; p != nil {
		pagination := *p
		c.state.Pagination = &pagination

		// An out-of-range page keeps the previous items on screen while the clamped page loads.
		requested := msg.Request.Query.Page
		if target := query.Clamp(requested, p.TotalPages); target != requested {
			c.logger.Debug("page out of range", "page", requested, "total_pages", p.TotalPages, "clamped", target)
			c.query.SetPage(target)
			return c.trigger(TriggerImmediate)
		}
	}
	c.state.loaded = true
	c.state.Items = slices.Clone(msg.Page.Tasks)
	return nil
}

// cloneParams deep-copies url.Values.
func cloneParams(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for key, values := range in {
		out[key] = slices.Clone(values)
	}
	return out
}

// nopLogger discards diagnostics.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
