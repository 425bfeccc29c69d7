package discover

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/five82/scout/internal/clock"
	"github.com/five82/scout/internal/filters"
)

// Change is a set of state aspects that changed since the last fetch
// trigger.
type Change uint16

const (
	ChangeDataView Change = 1 << iota
	ChangeFilters
	ChangeQuery
	ChangeTimeRange
	ChangeColumns
	ChangeSort
	ChangeInterval
	ChangeRefreshInterval
	ChangeRefresh
)

var changeNames = []struct {
	c    Change
	name string
}{
	{ChangeDataView, "dataView"},
	{ChangeFilters, "filters"},
	{ChangeQuery, "query"},
	{ChangeTimeRange, "timeRange"},
	{ChangeColumns, "columns"},
	{ChangeSort, "sort"},
	{ChangeInterval, "interval"},
	{ChangeRefreshInterval, "refreshInterval"},
	{ChangeRefresh, "refresh"},
}

// Has reports whether c includes any of the bits in other.
func (c Change) Has(other Change) bool { return c&other != 0 }

func (c Change) String() string {
	var parts []string
	for _, n := range changeNames {
		if c.Has(n.c) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// DefaultDebounce is the quiet period after the last change before a
// fetch is triggered.
const DefaultDebounce = 100 * time.Millisecond

// FetchTrigger coalesces bursts of state changes into single fetch
// signals delivered on C after a quiet period.
type FetchTrigger struct {
	clock  clock.Clock
	delay  time.Duration
	logger *slog.Logger
	out    chan Change

	mu      sync.Mutex
	pending Change
	timer   *clock.Timer
	stopped bool
}

// NewFetchTrigger creates a trigger. A non-positive delay uses
// DefaultDebounce.
func NewFetchTrigger(clk clock.Clock, delay time.Duration, logger *slog.Logger) *FetchTrigger {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FetchTrigger{clock: clk, delay: delay, logger: logger, out: make(chan Change, 16)}
}

// C delivers coalesced change sets.
func (t *FetchTrigger) C() <-chan Change { return t.out }

// Notify records changes and restarts the quiet period.
func (t *FetchTrigger) Notify(c Change) {
	if c == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.pending |= c
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = t.clock.AfterFunc(t.delay, t.fire)
}

// Pending returns the changes waiting for the quiet period to end.
func (t *FetchTrigger) Pending() Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Stop cancels any pending trigger. Later notifications are ignored.
func (t *FetchTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = 0
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *FetchTrigger) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.pending == 0 {
		return
	}
	select {
	case t.out <- t.pending:
		t.pending = 0
		t.timer = nil
	default:
		t.logger.Warn("fetch trigger backlog full, retrying", "pending", t.pending.String())
		t.timer = t.clock.AfterFunc(t.delay, t.fire)
	}
}

// AppChanges classifies the difference between two app states.
func AppChanges(prev, next AppState) Change {
	var c Change
	if prev.Index != next.Index {
		c |= ChangeDataView
	}
	if !filters.CompareFilters(prev.Filters, next.Filters, filters.CompareAllOptions) {
		c |= ChangeFilters
	}
	if !cmp.Equal(prev.Query, next.Query) {
		c |= ChangeQuery
	}
	if !slices.Equal(prev.Columns, next.Columns) {
		c |= ChangeColumns
	}
	if !cmp.Equal(prev.Sort, next.Sort, cmpopts.EquateEmpty()) {
		c |= ChangeSort
	}
	if prev.Interval != next.Interval {
		c |= ChangeInterval
	}
	return c
}

// GlobalChanges classifies the difference between two global states.
func GlobalChanges(prev, next GlobalState) Change {
	var c Change
	if !filters.CompareFilters(prev.Filters, next.Filters, filters.CompareAllOptions) {
		c |= ChangeFilters
	}
	if !cmp.Equal(prev.Time, next.Time) {
		c |= ChangeTimeRange
	}
	if !cmp.Equal(prev.RefreshInterval, next.RefreshInterval) {
		c |= ChangeRefreshInterval
	}
	return c
}
