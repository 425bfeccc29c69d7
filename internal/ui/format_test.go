package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/filters"
)

func ptr(f float64) *float64 { return &f }

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input string
		want  filters.Filter
	}{
		{"level:error", filters.Phrase("logs", "level", "error")},
		{" -level:error ", filters.Phrase("logs", "level", "error").Negated()},
		{"+host:*", filters.Exists("logs", "host").Pinned()},
		{"status:404", filters.Phrase("logs", "status", float64(404))},
		{`status:"404"`, filters.Phrase("logs", "status", "404")},
		{"latency>=100", filters.Range("logs", "latency", ptr(100), nil)},
		{"latency<2.5", filters.Range("logs", "latency", nil, ptr(2.5))},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFilter("logs", tt.input)
			if err != nil {
				t.Fatalf("parseFilter(%q) error = %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("parseFilter(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	for _, input := range []string{"", "error", "level:", ":error", ">=5", "latency>=fast"} {
		if _, err := parseFilter("logs", input); err == nil {
			t.Errorf("parseFilter(%q) error = nil, want error", input)
		}
	}
}

func TestPhraseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"error", "error"},
		{"42", float64(42)},
		{"true", true},
		{`"true"`, "true"},
	}
	for _, tt := range tests {
		if got := phraseValue(tt.in); got != tt.want {
			t.Errorf("phraseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestParseColumns(t *testing.T) {
	got := parseColumns(" message, level,, message ,host.name")
	want := []string{"message", "level", "host.name"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parseColumns mismatch (-want +got):\n%s", diff)
	}
	if got := parseColumns(" , "); got != nil {
		t.Fatalf("parseColumns(blank) = %v, want nil", got)
	}
}

func TestParseTimeRange(t *testing.T) {
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		input string
		want  discover.TimeRange
	}{
		{"now-1h..now", discover.TimeRange{From: "now-1h", To: "now"}},
		{"now-1d/d now/d", discover.TimeRange{From: "now-1d/d", To: "now/d"}},
		{"now-15m", discover.TimeRange{From: "now-15m", To: "now"}},
		{"2026-02-01T00:00:00Z..now", discover.TimeRange{From: "2026-02-01T00:00:00Z", To: "now"}},
	}
	for _, tt := range tests {
		got, err := parseTimeRange(tt.input, now)
		if err != nil {
			t.Fatalf("parseTimeRange(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("parseTimeRange(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}

	for _, input := range []string{"", "yesterday", "now-1h now now", "now..now-1h"} {
		if _, err := parseTimeRange(input, now); err == nil {
			t.Errorf("parseTimeRange(%q) error = nil, want error", input)
		}
	}
}

func TestParseRefresh(t *testing.T) {
	for _, input := range []string{"", "off", "0", "Pause"} {
		got, err := parseRefresh(input)
		if err != nil || !got.Pause {
			t.Fatalf("parseRefresh(%q) = %+v, %v, want paused", input, got, err)
		}
	}

	got, err := parseRefresh("10s")
	if err != nil {
		t.Fatalf("parseRefresh(10s) error = %v", err)
	}
	if want := (discover.RefreshInterval{Value: 10000}); got != want {
		t.Fatalf("parseRefresh(10s) = %+v, want %+v", got, want)
	}
	if label := refreshLabel(&got); label != "10s" {
		t.Fatalf("refreshLabel = %q, want 10s", label)
	}

	for _, input := range []string{"500ms", "soon"} {
		if _, err := parseRefresh(input); err == nil {
			t.Errorf("parseRefresh(%q) error = nil, want error", input)
		}
	}
	if label := refreshLabel(nil); label != "off" {
		t.Fatalf("refreshLabel(nil) = %q, want off", label)
	}
}

func TestFieldText(t *testing.T) {
	fields := map[string]any{
		"message":  "line one\nline two",
		"http":     map[string]any{"status": float64(200)},
		"host.ip":  "10.0.0.1",
		"ok":       true,
		"tags":     []any{"a", "b"},
		"empty":    nil,
		"duration": 1.5,
	}
	tests := map[string]string{
		"message":     "line one line two",
		"http.status": "200",
		"host.ip":     "10.0.0.1",
		"ok":          "true",
		"tags":        `["a","b"]`,
		"empty":       "-",
		"missing":     "-",
		"duration":    "1.5",
	}
	for name, want := range tests {
		if got := fieldText(fields, name); got != want {
			t.Errorf("fieldText(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("hi", 4); got != "hi  " {
		t.Fatalf("fit pad = %q", got)
	}
	if got := fit("hello world", 6); got != "hello…" {
		t.Fatalf("fit truncate = %q", got)
	}
	if got := fit("anything", 0); got != "" {
		t.Fatalf("fit zero = %q", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("abcdefghij", 7); got != "abc…hij" {
		t.Fatalf("truncateMiddle = %q, want abc…hij", got)
	}
	if got := truncateMiddle("short", 10); got != "short" {
		t.Fatalf("truncateMiddle(short) = %q", got)
	}
}

func TestWrapLines(t *testing.T) {
	lines := wrapLines("alpha beta gamma delta", 11)
	if len(lines) < 2 {
		t.Fatalf("wrapLines returned %d lines, want at least 2: %q", len(lines), lines)
	}
	for _, l := range lines {
		if w := len(strings.TrimRight(l, " ")); w > 11 {
			t.Fatalf("line %q is wider than 11", l)
		}
	}
}

func TestDetailText_SortsFields(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	got := detailText(ts, map[string]any{"b": "2", "a": "1"})
	want := "2026-02-03T10:00:00Z\n\na  1\nb  2\n"
	if got != want {
		t.Fatalf("detailText = %q, want %q", got, want)
	}
}
