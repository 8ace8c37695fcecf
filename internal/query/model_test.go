package query

import (
	"net/url"
	"testing"

	"github.com/evanschultz/taskdeck/internal/domain"
)

// defaultParams is the parameter set of a fresh query with page size 20.
func defaultParams() url.Values {
	return url.Values{
		"sort":      []string{"created_at:desc"},
		"page":      []string{"1"},
		"page_size": []string{"20"},
	}
}

// assertParams compares two parameter sets key by key.
func assertParams(t *testing.T, got, want url.Values) {
	t.Helper()
	if got.Encode() != want.Encode() {
		t.Fatalf("params = %q, want %q", got.Encode(), want.Encode())
	}
}

// TestNewQueryDefaults verifies behavior for the covered scenario.
func TestNewQueryDefaults(t *testing.T) {
	m := New(20)
	assertParams(t, m.Snapshot().Params(42), defaultParams())
	if got := New(33).Snapshot().PageSize; got != 20 {
		t.Fatalf("page size = %d, want 20", got)
	}
}

// TestParamsOmitUnsetAndEmptyFilters verifies no blank parameter is ever dispatched.
func TestParamsOmitUnsetAndEmptyFilters(t *testing.T) {
	m := New(20)
	steps := []struct {
		field Field
		value string
	}{
		{FieldSearch, "   "},
		{FieldStatus, "done"},
		{FieldStatus, "nope"},
		{FieldPriority, "high"},
		{FieldTags, " , ,"},
		{FieldDueFrom, "2026-13-40"},
		{FieldDueTo, "2026-03-01"},
		{FieldDueTo, ""},
		{FieldOnlyMine, "true"},
		{FieldSearch, "report"},
		{FieldPriority, ""},
	}
	for _, step := range steps {
		m.SetFilter(step.field, step.value)
		for _, owner := range []int64{0, 7} {
			params := m.Snapshot().Params(owner)
			for key, values := range params {
				for _, v := range values {
					if v == "" {
						t.Fatalf("after %s=%q: param %q sent empty", step.field, step.value, key)
					}
				}
			}
		}
	}
	want := defaultParams()
	want.Set("q", "report")
	want.Set("owner_user_id", "7")
	assertParams(t, m.Snapshot().Params(7), want)

	want.Del("owner_user_id")
	assertParams(t, m.Snapshot().Params(0), want)
}

// TestMutationsResetPage verifies every mutation except SetPage returns to page 1.
func TestMutationsResetPage(t *testing.T) {
	mutations := map[string]func(*Model) bool{
		"search":    func(m *Model) bool { return m.SetFilter(FieldSearch, "abc") },
		"status":    func(m *Model) bool { return m.SetFilter(FieldStatus, "todo") },
		"priority":  func(m *Model) bool { return m.SetFilter(FieldPriority, "low") },
		"tags":      func(m *Model) bool { return m.SetFilter(FieldTags, "x") },
		"due_from":  func(m *Model) bool { return m.SetFilter(FieldDueFrom, "2026-01-01") },
		"due_to":    func(m *Model) bool { return m.SetFilter(FieldDueTo, "2026-01-31") },
		"only_mine": func(m *Model) bool { return m.SetFilter(FieldOnlyMine, "yes") },
		"sort":      func(m *Model) bool { return m.SetSort(SortTitle, Asc) },
		"page_size": func(m *Model) bool { return m.SetPageSize(50) },
	}
	for name, mutate := range mutations {
		m := New(20)
		m.SetPage(4)
		if !mutate(m) {
			t.Fatalf("%s: expected mutation to report a change", name)
		}
		if got := m.Snapshot().Page; got != 1 {
			t.Fatalf("%s: page = %d, want 1", name, got)
		}
	}

	m := New(20)
	m.SetFilter(FieldStatus, "todo")
	m.SetPage(3)
	if m.SetFilter(FieldStatus, "todo") {
		t.Fatal("expected unchanged filter to report no change")
	}
	if got := m.Snapshot().Page; got != 3 {
		t.Fatalf("no-op setter moved page to %d", got)
	}
}

// TestSetPageCoercion verifies behavior for the covered scenario.
func TestSetPageCoercion(t *testing.T) {
	m := New(20)
	if m.SetPage(0) {
		t.Fatal("expected SetPage(0) on page 1 to be a no-op")
	}
	m.SetPage(6)
	if got := m.Snapshot().Page; got != 6 {
		t.Fatalf("page = %d, want 6", got)
	}
	m.SetPage(-3)
	if got := m.Snapshot().Page; got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
}

// TestClearAllRestoresDefaults verifies clearing reproduces the default parameter set.
func TestClearAllRestoresDefaults(t *testing.T) {
	m := New(20)
	m.SetPageSize(50)
	m.SetFilter(FieldSearch, "deploy")
	m.SetFilter(FieldStatus, "in_progress")
	m.SetFilter(FieldPriority, "medium")
	m.SetFilter(FieldTags, "ops,infra")
	m.SetFilter(FieldDueFrom, "2026-01-01")
	m.SetFilter(FieldDueTo, "2026-02-01")
	m.SetFilter(FieldOnlyMine, "true")
	m.SetSort(SortDueDate, Asc)
	m.SetPage(9)

	if !m.ClearAll() {
		t.Fatal("expected ClearAll to report a change")
	}
	want := defaultParams()
	want.Set("page_size", "50")
	assertParams(t, m.Snapshot().Params(11), want)
	if m.ClearAll() {
		t.Fatal("expected second ClearAll to be a no-op")
	}
}

// TestParamsNormalizeTagsAndDates verifies behavior for the covered scenario.
func TestParamsNormalizeTagsAndDates(t *testing.T) {
	m := New(10)
	m.SetFilter(FieldTags, " ops , ,infra,ops")
	m.SetFilter(FieldDueFrom, "2026-04-05T10:00:00Z")
	m.SetFilter(FieldStatus, "In-Progress")
	params := m.Snapshot().Params(0)
	if got := params.Get("tags"); got != "ops,infra" {
		t.Fatalf("tags = %q", got)
	}
	if got := params.Get("due_date_from"); got != "2026-04-05" {
		t.Fatalf("due_date_from = %q", got)
	}
	if got := params.Get("status"); got != string(domain.StatusInProgress) {
		t.Fatalf("status = %q", got)
	}
	if got := m.Snapshot().ActiveFilters(); got != 3 {
		t.Fatalf("ActiveFilters() = %d, want 3", got)
	}
}

// TestSnapPageSize verifies behavior for the covered scenario.
func TestSnapPageSize(t *testing.T) {
	cases := map[int]int{0: 10, 10: 10, 15: 10, 16: 20, 35: 20, 36: 50, 75: 50, 76: 100, 1000: 100}
	for in, want := range cases {
		if got := SnapPageSize(in); got != want {
			t.Fatalf("SnapPageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

// TestParseField verifies behavior for the covered scenario.
func TestParseField(t *testing.T) {
	if f, ok := ParseField("Search"); !ok || f != FieldSearch {
		t.Fatalf("ParseField(search) = %q, %t", f, ok)
	}
	if f, ok := ParseField("mine"); !ok || f != FieldOnlyMine {
		t.Fatalf("ParseField(mine) = %q, %t", f, ok)
	}
	if _, ok := ParseField("color"); ok {
		t.Fatal("expected unknown field to be rejected")
	}
}

// TestWhitespaceOnlyEditsKeepPage verifies behavior for the covered scenario.
func TestWhitespaceOnlyEditsKeepPage(t *testing.T) {
	m := New(20)
	m.SetFilter(FieldSearch, "report")
	m.SetFilter(FieldTags, "ops,home")
	m.SetPage(3)

	if m.SetFilter(FieldSearch, "report ") {
		t.Fatal("expected trailing space to report no change")
	}
	if m.SetFilter(FieldTags, "ops, home,") {
		t.Fatal("expected reformatted tags to report no change")
	}
	if got := m.Snapshot().Page; got != 3 {
		t.Fatalf("page = %d, want 3", got)
	}
	if got := m.Snapshot().SearchText; got != "report " {
		t.Fatalf("search text = %q, want the raw input kept", got)
	}
	if !m.SetFilter(FieldSearch, "report x") {
		t.Fatal("expected a real edit to report a change")
	}
	if got := m.Snapshot().Page; got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
}

// TestSetDueRangeIsOneChange verifies behavior for the covered scenario.
func TestSetDueRangeIsOneChange(t *testing.T) {
	m := New(20)
	m.SetPage(2)
	if !m.SetDueRange("2026-01-01", "2026-01-31T08:00:00Z") {
		t.Fatal("expected range to report a change")
	}
	snap := m.Snapshot()
	if snap.DueFrom != "2026-01-01" || snap.DueTo != "2026-01-31" || snap.Page != 1 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	m.SetPage(4)
	if m.SetDueRange(" 2026-01-01 ", "2026-01-31") {
		t.Fatal("expected identical range to report no change")
	}
	if got := m.Snapshot().Page; got != 4 {
		t.Fatalf("page = %d, want 4", got)
	}
	if !m.SetDueRange("", "") {
		t.Fatal("expected clearing the range to report a change")
	}
	params := m.Snapshot().Params(0)
	if params.Has("due_date_from") || params.Has("due_date_to") {
		t.Fatalf("expected cleared range to be omitted, got %q", params.Encode())
	}
}
