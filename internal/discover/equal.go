package discover

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/five82/scout/internal/filters"
)

// State is either state slice.
type State interface {
	AppState | GlobalState
}

// IsEqualState compares two states field by field, except that filters
// are compared with filters.CompareFilters under CompareAllOptions. Nil
// and empty lists are equal everywhere.
func IsEqualState[S State](a, b S) bool {
	var zero S
	if !cmp.Equal(a, b, cmpopts.EquateEmpty(), cmpopts.IgnoreFields(zero, "Filters")) {
		return false
	}
	return filters.CompareFilters(filtersOf(a), filtersOf(b), filters.CompareAllOptions)
}

func filtersOf[S State](s S) []filters.Filter {
	switch v := any(s).(type) {
	case AppState:
		return v.Filters
	case GlobalState:
		return v.Filters
	}
	return nil
}
