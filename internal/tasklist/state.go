package tasklist

import (
	"slices"

	"github.com/evanschultz/taskdeck/internal/domain"
)

// Phase is the list view lifecycle position derived from State.
type Phase int

// PhaseUninitialized and related constants enumerate list view phases.
const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
	PhaseRefreshing
	PhaseLoadedWithError
)

// String names the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseLoadedWithError:
		return "loaded+error"
	default:
		return "uninitialized"
	}
}

// State is the externally observable result of the list query.
type State struct {
	// Items is in server order; the client never re-sorts.
	Items      []domain.Task
	Pagination *domain.Pagination
	// InitialLoading is true from construction until the first current response.
	InitialLoading bool
	// Refreshing is true while a later fetch is in flight over an existing list.
	Refreshing bool
	// Err is the last current failure; items from the last success are kept.
	Err error

	mounted bool
	loaded  bool
}

// Error returns the error text, or "" when unset.
func (s State) Error() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Phase derives the lifecycle position.
func (s State) Phase() Phase {
	switch {
	case !s.mounted:
		return PhaseUninitialized
	case s.InitialLoading:
		return PhaseLoading
	case s.Refreshing:
		return PhaseRefreshing
	case !s.loaded && s.Err != nil:
		return PhaseError
	case s.Err != nil:
		return PhaseLoadedWithError
	default:
		return PhaseLoaded
	}
}

// clone deep-copies the slices callers could mutate.
func (s State) clone() State {
	out := s
	out.Items = slices.Clone(s.Items)
	if s.Pagination != nil {
		p := *s.Pagination
		out.Pagination = &p
	}
	return out
}
