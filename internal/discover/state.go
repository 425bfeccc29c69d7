package discover

import (
	"slices"

	"github.com/five82/scout/internal/filters"
)

// Query languages understood by the data sources.
const (
	LanguageText = "text"
	LanguageExpr = "expr"
)

// Query is the free-text search of the app state.
type Query struct {
	Language string `json:"language"`
	Query    string `json:"query"`
}

// TimeRange bounds the records shown. Bounds are date-math expressions
// such as "now-15m" or absolute timestamps.
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RefreshInterval drives auto-refresh. Value is in milliseconds.
type RefreshInterval struct {
	Pause bool  `json:"pause"`
	Value int64 `json:"value"`
}

// AppState is the view-local state synced under the app key.
type AppState struct {
	Columns   []string         `json:"columns,omitempty"`
	Filters   []filters.Filter `json:"filters,omitempty"`
	HideChart bool             `json:"hideChart,omitempty"`
	Index     string           `json:"index,omitempty"`
	Interval  string           `json:"interval,omitempty"`
	Query     *Query           `json:"query,omitempty"`
	Sort      [][]string       `json:"sort,omitempty"`
}

// GlobalState is the cross-view state synced under the global key.
type GlobalState struct {
	Filters         []filters.Filter `json:"filters,omitempty"`
	RefreshInterval *RefreshInterval `json:"refreshInterval,omitempty"`
	Time            *TimeRange       `json:"time,omitempty"`
}

// Clone returns a deep copy.
func (s AppState) Clone() AppState {
	out := s
	out.Columns = slices.Clone(s.Columns)
	out.Filters = filters.CloneAll(s.Filters)
	if s.Query != nil {
		q := *s.Query
		out.Query = &q
	}
	if s.Sort != nil {
		out.Sort = make([][]string, len(s.Sort))
		for i, pair := range s.Sort {
			out.Sort[i] = slices.Clone(pair)
		}
	}
	return out
}

// IsEmpty reports whether s holds no values at all.
func (s AppState) IsEmpty() bool {
	return len(s.Columns) == 0 && len(s.Filters) == 0 && !s.HideChart &&
		s.Index == "" && s.Interval == "" && s.Query == nil && len(s.Sort) == 0
}

// QueryText returns the query string, or "" when unset.
func (s AppState) QueryText() string {
	if s.Query == nil {
		return ""
	}
	return s.Query.Query
}

// Clone returns a deep copy.
func (s GlobalState) Clone() GlobalState {
	out := s
	out.Filters = filters.CloneAll(s.Filters)
	if s.RefreshInterval != nil {
		r := *s.RefreshInterval
		out.RefreshInterval = &r
	}
	if s.Time != nil {
		t := *s.Time
		out.Time = &t
	}
	return out
}

// IsEmpty reports whether s holds no values at all.
func (s GlobalState) IsEmpty() bool {
	return len(s.Filters) == 0 && s.RefreshInterval == nil && s.Time == nil
}

// AllFilters returns the global filters followed by the app filters.
func AllFilters(app AppState, global GlobalState) []filters.Filter {
	out := make([]filters.Filter, 0, len(global.Filters)+len(app.Filters))
	out = append(out, global.Filters...)
	return append(out, app.Filters...)
}
