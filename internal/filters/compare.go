package filters

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// CompareOptions selects which meta flags take part in a comparison. The
// query body is always compared; display hints never are.
type CompareOptions struct {
	Index    bool
	Disabled bool
	Negate   bool
	Alias    bool
	State    bool
}

// DefaultCompareOptions compares body and negation only.
var DefaultCompareOptions = CompareOptions{Negate: true}

// CompareAllOptions compares every flag.
var CompareAllOptions = CompareOptions{
	Index:    true,
	Disabled: true,
	Negate:   true,
	Alias:    true,
	State:    true,
}

// CompareFilters reports whether a and b hold the same filters. Order is
// not significant, but multiplicity is. Nil and empty lists are equal.
func CompareFilters(a, b []Filter, opts CompareOptions) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, fa := range a {
		for j, fb := range b {
			if used[j] || !Equal(fa, fb, opts) {
				continue
			}
			used[j] = true
			continue outer
		}
		return false
	}
	return true
}

// Equal compares two filters under opts.
func Equal(a, b Filter, opts CompareOptions) bool {
	if opts.Index && a.Meta.Index != b.Meta.Index {
		return false
	}
	if opts.Disabled && a.Meta.Disabled != b.Meta.Disabled {
		return false
	}
	if opts.Negate && a.Meta.Negate != b.Meta.Negate {
		return false
	}
	if opts.Alias && a.Meta.Alias != b.Meta.Alias {
		return false
	}
	if opts.State && storeOf(a) != storeOf(b) {
		return false
	}
	return cmp.Equal(normalize(a.Query), normalize(b.Query), cmpopts.EquateEmpty())
}

// Dedupe drops filters equal to an earlier one under opts.
func Dedupe(list []Filter, opts CompareOptions) []Filter {
	var out []Filter
	for _, f := range list {
		dup := false
		for _, kept := range out {
			if Equal(f, kept, opts) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// A missing $state means app state.
func storeOf(f Filter) string {
	if f.State == nil || f.State.Store == "" {
		return AppStore
	}
	return f.State.Store
}

// normalize routes the body through JSON so that 10 and 10.0, or a
// []string and an equivalent []any, compare equal.
func normalize(q map[string]any) any {
	if len(q) == 0 {
		return nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return q
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return q
	}
	return out
}
