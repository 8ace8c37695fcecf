// Package query holds the canonical task-list query: filters, sort order and pagination.
package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/taskdeck/internal/domain"
)

// Field names one filter slot of the query.
type Field string

// FieldSearch and related constants name the filter slots.
const (
	FieldSearch   Field = "q"
	FieldStatus   Field = "status"
	FieldPriority Field = "priority"
	FieldTags     Field = "tags"
	FieldDueFrom  Field = "due_date_from"
	FieldDueTo    Field = "due_date_to"
	FieldOnlyMine Field = "only_mine"
)

// Fields returns every filter slot in display order.
func Fields() []Field {
	return []Field{FieldSearch, FieldStatus, FieldPriority, FieldTags, FieldDueFrom, FieldDueTo, FieldOnlyMine}
}

// ParseField resolves a filter name, accepting a few aliases.
func ParseField(raw string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "q", "search":
		return FieldSearch, true
	case "status":
		return FieldStatus, true
	case "priority":
		return FieldPriority, true
	case "tags", "tag":
		return FieldTags, true
	case "due_date_from", "due_from", "from":
		return FieldDueFrom, true
	case "due_date_to", "due_to", "to":
		return FieldDueTo, true
	case "only_mine", "mine", "owner":
		return FieldOnlyMine, true
	default:
		return "", false
	}
}

// Default page sizing.
const DefaultPageSize = 20

// pageSizes lists the allowed page sizes in ascending order.
var pageSizes = []int{10, 20, 50, 100}

// PageSizes returns the allowed page sizes.
func PageSizes() []int {
	return slices.Clone(pageSizes)
}

// SnapPageSize coerces n to the nearest allowed page size, preferring the smaller on ties.
func SnapPageSize(n int) int {
	best := pageSizes[0]
	for _, size := range pageSizes {
		if abs(size-n) < abs(best-n) {
			best = size
		}
	}
	return best
}

// Snapshot is an immutable copy of the query state.
type Snapshot struct {
	SearchText string
	Status     domain.Status
	Priority   domain.Priority
	Tags       string
	DueFrom    string
	DueTo      string
	OnlyMine   bool
	Sort       Sort
	Page       int
	PageSize   int
}

// Model is the mutable query owned by one list view.
//
// Every mutation except SetPage resets the page to 1. Setters report whether the
// query changed so callers can skip redundant fetches.
type Model struct {
	searchText string
	status     domain.Status
	priority   domain.Priority
	tags       string
	dueFrom    string
	dueTo      string
	onlyMine   bool
	sort       Sort
	page       int
	pageSize   int
}

// New returns a query with default filters, sort and the given page size.
func New(pageSize int) *Model {
	return &Model{
		sort:     DefaultSort(),
		page:     1,
		pageSize: SnapPageSize(pageSize),
	}
}

// Snapshot copies the current state.
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		SearchText: m.searchText,
		Status:     m.status,
		Priority:   m.priority,
		Tags:       m.tags,
		DueFrom:    m.dueFrom,
		DueTo:      m.dueTo,
		OnlyMine:   m.onlyMine,
		Sort:       m.sort,
		Page:       m.page,
		PageSize:   m.pageSize,
	}
}

// Value returns the raw string form of one filter slot.
func (m *Model) Value(field Field) string {
	switch field {
	case FieldSearch:
		return m.searchText
	case FieldStatus:
		return string(m.status)
	case FieldPriority:
		return string(m.priority)
	case FieldTags:
		return m.tags
	case FieldDueFrom:
		return m.dueFrom
	case FieldDueTo:
		return m.dueTo
	case FieldOnlyMine:
		if m.onlyMine {
			return "true"
		}
		return ""
	default:
		return ""
	}
}

// SetFilter coerces value into the field's type and stores it. Values that cannot be
// coerced (unknown enum, unparsable date) clear the filter.
func (m *Model) SetFilter(field Field, value string) bool {
	before := m.Snapshot()
	switch field {
	case FieldSearch:
		// Whitespace-only edits are not changes.
		if strings.TrimSpace(value) == strings.TrimSpace(m.searchText) {
			m.searchText = value
			return false
		}
		m.searchText = value
	case FieldStatus:
		m.status, _ = domain.ParseStatus(value)
	case FieldPriority:
		m.priority, _ = domain.ParsePriority(value)
	case FieldTags:
		if slices.Equal(domain.SplitTags(value), domain.SplitTags(m.tags)) {
			m.tags = value
			return false
		}
		m.tags = value
	case FieldDueFrom:
		m.dueFrom = coerceDate(value)
	case FieldDueTo:
		m.dueTo = coerceDate(value)
	case FieldOnlyMine:
		m.onlyMine = coerceBool(value)
	default:
		return false
	}
	return m.commit(before)
}

// SetDueRange sets both due-date bounds as one change. Bounds are coerced like
// SetFilter; the page resets only when the coerced range differs.
func (m *Model) SetDueRange(from, to string) bool {
	before := m.Snapshot()
	m.dueFrom = coerceDate(from)
	m.dueTo = coerceDate(to)
	return m.commit(before)
}

// SetSort stores the sort pair; unknown fields or directions fall back to the defaults.
func (m *Model) SetSort(field SortField, dir Direction) bool {
	before := m.Snapshot()
	m.sort = NewSort(field, dir)
	return m.commit(before)
}

// SetPage moves to page n (minimum 1) without touching anything else.
func (m *Model) SetPage(n int) bool {
	n = max(n, 1)
	if m.page == n {
		return false
	}
	m.page = n
	return true
}

// SetPageSize snaps n to an allowed size and returns to the first page.
func (m *Model) SetPageSize(n int) bool {
	before := m.Snapshot()
	m.pageSize = SnapPageSize(n)
	return m.commit(before)
}

// ClearAll restores default filters and sort; the page size is kept.
func (m *Model) ClearAll() bool {
	before := m.Snapshot()
	pageSize := m.pageSize
	*m = Model{
		sort:     DefaultSort(),
		page:     1,
		pageSize: pageSize,
	}
	return before != m.Snapshot()
}

// commit resets the page when the shape of the result set changed.
func (m *Model) commit(before Snapshot) bool {
	before.Page = 0
	after := m.Snapshot()
	after.Page = 0
	if before == after {
		return false
	}
	m.page = 1
	return true
}

// Params builds the list request parameters. Unset filters are omitted. ownerID is the
// current user's id; values <= 0 leave the only-mine filter inert.
func (s Snapshot) Params(ownerID int64) url.Values {
	params := url.Values{}
	if q := strings.TrimSpace(s.SearchText); q != "" {
		params.Set("q", q)
	}
	if s.Status != "" {
		params.Set("status", string(s.Status))
	}
	if s.Priority != "" {
		params.Set("priority", string(s.Priority))
	}
	if tags := domain.SplitTags(s.Tags); len(tags) > 0 {
		params.Set("tags", strings.Join(tags, ","))
	}
	if s.DueFrom != "" {
		params.Set("due_date_from", s.DueFrom)
	}
	if s.DueTo != "" {
		params.Set("due_date_to", s.DueTo)
	}
	if s.OnlyMine && ownerID > 0 {
		params.Set("owner_user_id", strconv.FormatInt(ownerID, 10))
	}
	params.Set("sort", s.Sort.String())
	params.Set("page", strconv.Itoa(max(s.Page, 1)))
	params.Set("page_size", strconv.Itoa(SnapPageSize(s.PageSize)))
	return params
}

// ActiveFilters counts the filters that would be sent, ignoring only-mine.
func (s Snapshot) ActiveFilters() int {
	params := s.Params(0)
	n := 0
	for _, key := range []string{"q", "status", "priority", "tags", "due_date_from", "due_date_to"} {
		if params.Has(key) {
			n++
		}
	}
	if s.OnlyMine {
		n++
	}
	return n
}

// coerceDate normalizes date input to YYYY-MM-DD, or "" when it cannot be parsed.
func coerceDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ts, err := domain.ParseTimestamp(raw)
	if err != nil {
		return ""
	}
	return ts.Time.Format(time.DateOnly)
}

// coerceBool reads common truthy spellings.
func coerceBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
