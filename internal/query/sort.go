package query

import (
	"slices"
	"strings"
)

// SortField names a server-side sortable column.
type SortField string

// SortCreatedAt and related constants define the sortable columns.
const (
	SortCreatedAt SortField = "created_at"
	SortDueDate   SortField = "due_date"
	SortPriority  SortField = "priority"
	SortTitle     SortField = "title"
)

// Direction is a sort direction.
type Direction string

// Asc and Desc are the two sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var sortFields = []SortField{SortCreatedAt, SortDueDate, SortPriority, SortTitle}

// SortFields returns the sortable columns in cycle order.
func SortFields() []SortField {
	return slices.Clone(sortFields)
}

// Sort is one (field, direction) pair.
type Sort struct {
	Field     SortField
	Direction Direction
}

// DefaultSort is newest first.
func DefaultSort() Sort {
	return Sort{Field: SortCreatedAt, Direction: Desc}
}

// NewSort builds a sort pair, substituting defaults for unknown values.
func NewSort(field SortField, dir Direction) Sort {
	def := DefaultSort()
	if !slices.Contains(sortFields, field) {
		field = def.Field
	}
	if dir != Asc && dir != Desc {
		dir = def.Direction
	}
	return Sort{Field: field, Direction: dir}
}

// ParseSort reads "field:direction"; a missing direction means ascending.
func ParseSort(raw string) (Sort, bool) {
	fieldRaw, dirRaw, hasDir := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), ":")
	field := SortField(strings.TrimSpace(fieldRaw))
	if !slices.Contains(sortFields, field) {
		return Sort{}, false
	}
	dir := Asc
	if hasDir {
		dir = Direction(strings.TrimSpace(dirRaw))
		if dir != Asc && dir != Desc {
			return Sort{}, false
		}
	}
	return Sort{Field: field, Direction: dir}, true
}

// String renders the wire form "field:direction".
func (s Sort) String() string {
	return string(s.Field) + ":" + string(s.Direction)
}

// Toggle flips the direction.
func (s Sort) Toggle() Sort {
	if s.Direction == Asc {
		s.Direction = Desc
	} else {
		s.Direction = Asc
	}
	return s
}

// NextField cycles to the next sortable column, keeping the direction.
func (s Sort) NextField() Sort {
	idx := slices.Index(sortFields, s.Field)
	s.Field = sortFields[(idx+1)%len(sortFields)]
	return s
}
