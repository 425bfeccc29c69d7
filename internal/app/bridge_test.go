package app

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/filters"
)

func TestParamsFor(t *testing.T) {
	cfg := testConfig(t)
	pinned := filters.Exists("logs", "host").Pinned()
	app := discover.AppState{
		Index:   "app-*",
		Filters: []filters.Filter{filters.Phrase("logs", "level", "error")},
		Query:   &discover.Query{Language: discover.LanguageExpr, Query: "bytes > 10"},
	}
	global := discover.GlobalState{
		Filters: []filters.Filter{pinned},
		Time:    &discover.TimeRange{From: "now-2h", To: "now"},
	}

	p, err := paramsFor(cfg, app, global, epoch)
	if err != nil {
		t.Fatalf("paramsFor: %v", err)
	}
	want := dataaccess.Params{
		DataView:      "app-*",
		TimeRange:     dataaccess.TimeRange{From: epoch.Add(-2 * time.Hour), To: epoch},
		Filters:       []filters.Filter{pinned, app.Filters[0]},
		Query:         dataaccess.Query{Language: discover.LanguageExpr, Text: "bytes > 10"},
		Columns:       cfg.DefaultColumns,
		ChunkSize:     cfg.ChunkSize,
		EdgeThreshold: cfg.EdgeThreshold,
	}
	if diff := cmp.Diff(want, p, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestParamsFor_DefaultsAndBadRange(t *testing.T) {
	cfg := testConfig(t)
	p, err := paramsFor(cfg, discover.AppState{}, discover.GlobalState{}, epoch)
	if err != nil {
		t.Fatalf("paramsFor: %v", err)
	}
	if p.DataView != cfg.DefaultIndex || p.Query.Language != discover.LanguageText {
		t.Fatalf("defaults = %q %q", p.DataView, p.Query.Language)
	}
	if !p.TimeRange.From.Equal(epoch.Add(-time.Hour)) || !p.TimeRange.To.Equal(epoch) {
		t.Fatalf("default range = %+v", p.TimeRange)
	}

	_, err = paramsFor(cfg, discover.AppState{}, discover.GlobalState{Time: &discover.TimeRange{From: "now", To: "now-1d"}}, epoch)
	if err == nil {
		t.Fatalf("paramsFor with inverted range returned nil error")
	}
}

func TestEventsFor(t *testing.T) {
	p := dataaccess.Params{
		DataView:  "logs",
		TimeRange: dataaccess.TimeRange{From: epoch.Add(-time.Hour), To: epoch},
		Columns:   []string{"message"},
		Query:     dataaccess.Query{Language: "text", Text: "x"},
	}
	tests := []struct {
		name   string
		change discover.Change
		want   []string
	}{
		{"none", 0, nil},
		{"interval only", discover.ChangeInterval | discover.ChangeRefreshInterval, nil},
		{"refresh", discover.ChangeRefresh, []string{"refresh"}},
		{"refresh wins over range", discover.ChangeRefresh | discover.ChangeTimeRange, []string{"refresh"}},
		{"sort", discover.ChangeSort, []string{"columnsChanged"}},
		{"query", discover.ChangeQuery, []string{"filtersChanged"}},
		{"filters and query coalesce", discover.ChangeFilters | discover.ChangeQuery, []string{"filtersChanged"}},
		{
			"everything in order",
			discover.ChangeFilters | discover.ChangeDataView | discover.ChangeColumns | discover.ChangeTimeRange,
			[]string{"timeRangeChanged", "columnsChanged", "dataViewChanged", "filtersChanged"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range eventsFor(tt.change, p) {
				got = append(got, dataaccess.EventName(e))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
