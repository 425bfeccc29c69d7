package filters

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Store names where a filter lives. Pinned filters belong to the global
// state and survive switching views; the rest belong to the app state.
const (
	AppStore    = "appState"
	GlobalStore = "globalState"
)

// Filter is a single query restriction. Query holds the filter body
// (match_phrase, exists, range, ...); Meta carries flags and display hints.
type Filter struct {
	State *FilterState   `json:"$state,omitempty"`
	Meta  Meta           `json:"meta"`
	Query map[string]any `json:"query,omitempty"`
}

// FilterState records which state slice owns the filter.
type FilterState struct {
	Store string `json:"store"`
}

// Meta holds filter flags. Key, Value, Type and Params are display hints
// and never take part in equality.
type Meta struct {
	Alias    string         `json:"alias,omitempty"`
	Disabled bool           `json:"disabled"`
	Negate   bool           `json:"negate"`
	Index    string         `json:"index,omitempty"`
	Key      string         `json:"key,omitempty"`
	Value    string         `json:"value,omitempty"`
	Type     string         `json:"type,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// Phrase builds a match_phrase filter on field.
func Phrase(index, field string, value any) Filter {
	return Filter{
		State: &FilterState{Store: AppStore},
		Meta: Meta{
			Index:  index,
			Key:    field,
			Value:  fmt.Sprint(value),
			Type:   "phrase",
			Params: map[string]any{"query": value},
		},
		Query: map[string]any{
			"match_phrase": map[string]any{field: value},
		},
	}
}

// Exists builds a filter matching records where field is present.
func Exists(index, field string) Filter {
	return Filter{
		State: &FilterState{Store: AppStore},
		Meta:  Meta{Index: index, Key: field, Value: "exists", Type: "exists"},
		Query: map[string]any{
			"exists": map[string]any{"field": field},
		},
	}
}

// Range builds a numeric range filter. Bounds are inclusive at gte and
// exclusive at lt; a nil bound is open.
func Range(index, field string, gte, lt *float64) Filter {
	bounds := map[string]any{}
	var parts []string
	if gte != nil {
		bounds["gte"] = *gte
		parts = append(parts, fmt.Sprintf("%g", *gte))
	} else {
		parts = append(parts, "-∞")
	}
	if lt != nil {
		bounds["lt"] = *lt
		parts = append(parts, fmt.Sprintf("%g", *lt))
	} else {
		parts = append(parts, "+∞")
	}
	return Filter{
		State: &FilterState{Store: AppStore},
		Meta: Meta{
			Index:  index,
			Key:    field,
			Value:  strings.Join(parts, " to "),
			Type:   "range",
			Params: maps.Clone(bounds),
		},
		Query: map[string]any{
			"range": map[string]any{field: bounds},
		},
	}
}

// IsPinned reports whether the filter belongs to the global state.
func (f Filter) IsPinned() bool {
	return f.State != nil && f.State.Store == GlobalStore
}

// Pinned returns a copy of f moved to the global store.
func (f Filter) Pinned() Filter {
	out := f.Clone()
	out.State = &FilterState{Store: GlobalStore}
	return out
}

// Unpinned returns a copy of f moved to the app store.
func (f Filter) Unpinned() Filter {
	out := f.Clone()
	out.State = &FilterState{Store: AppStore}
	return out
}

// Negated returns a copy of f with the negate flag flipped.
func (f Filter) Negated() Filter {
	out := f.Clone()
	out.Meta.Negate = !out.Meta.Negate
	return out
}

// Toggled returns a copy of f with the disabled flag flipped.
func (f Filter) Toggled() Filter {
	out := f.Clone()
	out.Meta.Disabled = !out.Meta.Disabled
	return out
}

// Label is a short human description, e.g. "NOT host: a".
func (f Filter) Label() string {
	if f.Meta.Alias != "" {
		return f.Meta.Alias
	}
	var b strings.Builder
	if f.Meta.Negate {
		b.WriteString("NOT ")
	}
	key, value := f.Meta.Key, f.Meta.Value
	if key == "" {
		key, value = describeQuery(f.Query)
	}
	b.WriteString(key)
	if value != "" {
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

func describeQuery(q map[string]any) (string, string) {
	if len(q) == 0 {
		return "query", ""
	}
	kinds := make([]string, 0, len(q))
	for k := range q {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds[0], fmt.Sprint(q[kinds[0]])
}

// Clone returns a deep copy of f.
func (f Filter) Clone() Filter {
	out := f
	if f.State != nil {
		st := *f.State
		out.State = &st
	}
	out.Meta.Params = cloneMap(f.Meta.Params)
	out.Query = cloneMap(f.Query)
	return out
}

// CloneAll deep-copies a filter list, preserving nil.
func CloneAll(list []Filter) []Filter {
	if list == nil {
		return nil
	}
	out := make([]Filter, len(list))
	for i, f := range list {
		out[i] = f.Clone()
	}
	return out
}

// Enabled returns the filters that are not disabled.
func Enabled(list []Filter) []Filter {
	var out []Filter
	for _, f := range list {
		if !f.Meta.Disabled {
			out = append(out, f)
		}
	}
	return out
}

// Split partitions list into app and global (pinned) filters.
func Split(list []Filter) (app, global []Filter) {
	for _, f := range list {
		if f.IsPinned() {
			global = append(global, f)
		} else {
			app = append(app, f)
		}
	}
	return app, global
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
