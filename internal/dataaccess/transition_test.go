package dataaccess

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/five82/scout/internal/filters"
)

var t0 = time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

func at(sec int) Cursor { return Cursor{Time: t0.Add(time.Duration(sec) * time.Second)} }

// recs returns records for seconds from..to inclusive.
func recs(from, to int) []Record {
	var out []Record
	for i := from; i <= to; i++ {
		out = append(out, Record{Cursor: at(i), Fields: map[string]any{"n": i}})
	}
	return out
}

func testParams() Params {
	return Params{
		DataView:      "logs",
		Anchor:        at(500),
		TimeRange:     TimeRange{From: t0, To: t0.Add(1000 * time.Second)},
		Columns:       []string{"message"},
		ChunkSize:     10,
		EdgeThreshold: 2,
	}
}

func apply(t *testing.T, s State, e Event) (State, []Command) {
	t.Helper()
	next, cmds, handled := Transition(s, e)
	if !handled {
		t.Fatalf("%s not handled in %s", EventName(e), s.Name())
	}
	return next, cmds
}

func fetchFor(t *testing.T, cmds []Command, slot Slot) Fetch {
	t.Helper()
	for _, c := range cmds {
		if f, ok := c.(Fetch); ok && f.Slot == slot {
			return f
		}
	}
	t.Fatalf("no %s fetch in %#v", slot, cmds)
	return Fetch{}
}

func hasFetch(cmds []Command, slot Slot) bool {
	for _, c := range cmds {
		if f, ok := c.(Fetch); ok && f.Slot == slot {
			return true
		}
	}
	return false
}

// loaded returns a Loaded state holding records 491..510.
func loaded(t *testing.T) State {
	t.Helper()
	s, cmds := Start(testParams())
	f := fetchFor(t, cmds, SlotAround)
	s, _ = apply(t, s, LoadAroundSucceeded{RequestID: f.RequestID, Result: FetchResult{Records: recs(491, 510)}})
	return s
}

var chunkCmp = cmpopts.EquateErrors()

func TestStart(t *testing.T) {
	s, cmds := Start(testParams())
	if !s.Is("loadingAround") {
		t.Fatalf("state = %s, want loadingAround", s.Name())
	}
	want := []Command{Abort{Slot: SlotTop}, Abort{Slot: SlotBottom}, Fetch{
		Slot:      SlotAround,
		RequestID: s.RequestID,
		Request: FetchRequest{
			DataView:  "logs",
			Anchor:    at(500),
			Direction: Around,
			Size:      10,
			TimeRange: testParams().TimeRange,
			Columns:   []string{"message"},
		},
	}}
	if diff := cmp.Diff(want, cmds, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}

	if _, _, handled := Transition(s, Initialize{Params: testParams()}); handled {
		t.Fatalf("second Initialize was handled")
	}
}

func TestStart_DefaultsAndClampedAnchor(t *testing.T) {
	p := testParams()
	p.Anchor = Cursor{}
	p.ChunkSize, p.EdgeThreshold = 0, 0
	s, cmds := Start(p)
	f := fetchFor(t, cmds, SlotAround)
	if f.Request.Size != DefaultChunkSize || s.Params.EdgeThreshold != DefaultEdgeThreshold {
		t.Fatalf("defaults not applied: size=%d threshold=%d", f.Request.Size, s.Params.EdgeThreshold)
	}
	if !f.Request.Anchor.Time.Equal(p.TimeRange.To) {
		t.Fatalf("unset anchor = %v, want range end %v", f.Request.Anchor.Time, p.TimeRange.To)
	}
}

func TestUninitialized_StoresParams(t *testing.T) {
	s, cmds := apply(t, State{}, FiltersChanged{Filters: []filters.Filter{filters.Exists("logs", "host")}})
	if s.Phase != Uninitialized || len(cmds) != 0 {
		t.Fatalf("state = %s cmds = %v, want uninitialized without commands", s.Name(), cmds)
	}
	if len(s.Params.Filters) != 1 {
		t.Fatalf("filters not stored: %+v", s.Params)
	}
	if _, _, handled := Transition(State{}, Retry{}); handled {
		t.Fatalf("Retry handled in uninitialized")
	}
}

func TestLoadAround(t *testing.T) {
	s := loaded(t)
	if !s.Is("loaded") {
		t.Fatalf("state = %s, want loaded", s.Name())
	}
	if len(s.Records) != 20 {
		t.Fatalf("len(Records) = %d, want 20", len(s.Records))
	}
	if s.Top.Status != ChunkUninitialized || s.Bottom.Status != ChunkUninitialized {
		t.Fatalf("chunks = %v/%v, want uninitialized", s.Top.Status, s.Bottom.Status)
	}
	if s.Top.Exhausted || s.Bottom.Exhausted {
		t.Fatalf("full chunks marked exhausted")
	}
	if s.Top.Boundary != at(491) || s.Bottom.Boundary != at(510) {
		t.Fatalf("boundaries = %v..%v", s.Top.Boundary, s.Bottom.Boundary)
	}
}

func TestLoadAround_ShortResultExhaustsEdges(t *testing.T) {
	s, cmds := Start(testParams())
	f := fetchFor(t, cmds, SlotAround)
	s, _ = apply(t, s, LoadAroundSucceeded{RequestID: f.RequestID, Result: FetchResult{Records: recs(498, 503)}})
	if !s.Top.Exhausted || !s.Bottom.Exhausted {
		t.Fatalf("exhausted = %v/%v, want both", s.Top.Exhausted, s.Bottom.Exhausted)
	}
	_, cmds = apply(t, s, VisibleEntriesChanged{First: at(498), Last: at(503)})
	if len(cmds) != 0 {
		t.Fatalf("exhausted edges issued %v", cmds)
	}
}

func TestLoadAround_FailureAndRetry(t *testing.T) {
	s, cmds := Start(testParams())
	f := fetchFor(t, cmds, SlotAround)
	boom := errors.New("boom")
	s, _ = apply(t, s, LoadAroundFailed{RequestID: f.RequestID, Err: boom})
	if !s.Is("failedNoData") || !errors.Is(s.Err, boom) {
		t.Fatalf("state = %s err = %v, want failedNoData boom", s.Name(), s.Err)
	}
	if _, _, handled := Transition(s, RetryTop{}); handled {
		t.Fatalf("RetryTop handled in failedNoData")
	}

	s, _ = apply(t, s, ColumnsChanged{Columns: []string{"host"}})
	if !s.Is("failedNoData") {
		t.Fatalf("columnsChanged left failedNoData: %s", s.Name())
	}

	s, cmds = apply(t, s, Retry{})
	if !s.Is("loadingAround") || s.Err != nil {
		t.Fatalf("after retry state = %s err = %v", s.Name(), s.Err)
	}
	if got := fetchFor(t, cmds, SlotAround).Request.Columns; !cmp.Equal(got, []string{"host"}) {
		t.Fatalf("retry columns = %v, want [host]", got)
	}
}

func TestStaleResultsIgnored(t *testing.T) {
	s, cmds := Start(testParams())
	old := fetchFor(t, cmds, SlotAround)
	s, _ = apply(t, s, PositionChanged{Position: at(700)})

	next, _, handled := Transition(s, LoadAroundSucceeded{RequestID: old.RequestID, Result: FetchResult{Records: recs(1, 5)}})
	if handled {
		t.Fatalf("stale around result handled")
	}
	if !next.Is("loadingAround") || next.Params.Anchor != at(700) {
		t.Fatalf("stale result changed state: %s %v", next.Name(), next.Params.Anchor)
	}
}

func TestVisibleEntries_LoadsAndMergesTop(t *testing.T) {
	s := loaded(t)

	s2, cmds := apply(t, s, VisibleEntriesChanged{First: at(495), Last: at(505)})
	if len(cmds) != 0 || !s2.Is("loaded") {
		t.Fatalf("middle of window issued %v, state %s", cmds, s2.Name())
	}

	s, cmds = apply(t, s, VisibleEntriesChanged{First: at(492), Last: at(500)})
	if !s.Is("loadingTop") {
		t.Fatalf("state = %s, want loadingTop", s.Name())
	}
	f := fetchFor(t, cmds, SlotTop)
	if f.Request.Direction != Before || f.Request.Anchor != at(491) {
		t.Fatalf("top request = %+v", f.Request)
	}
	if hasFetch(cmds, SlotBottom) {
		t.Fatalf("bottom fetched while far from the bottom edge")
	}

	// In-flight edges are not requested twice.
	if _, again := apply(t, s, VisibleEntriesChanged{First: at(491), Last: at(500)}); len(again) != 0 {
		t.Fatalf("duplicate top request: %v", again)
	}

	before := len(s.Records)
	merged, _ := apply(t, s, LoadTopSucceeded{RequestID: f.RequestID, Result: FetchResult{Records: recs(481, 490)}})
	if len(s.Records) != before {
		t.Fatalf("Transition modified its input state")
	}
	if len(merged.Records) != 30 || merged.Records[0].Cursor != at(481) {
		t.Fatalf("merged window = %d records starting %v", len(merged.Records), merged.Records[0].Cursor)
	}
	if merged.Top.Status != ChunkLoaded || merged.Top.Count != 10 || merged.Top.Exhausted {
		t.Fatalf("top chunk = %+v", merged.Top)
	}

	merged, cmds = apply(t, merged, VisibleEntriesChanged{First: at(482), Last: at(490)})
	f = fetchFor(t, cmds, SlotTop)
	merged, _ = apply(t, merged, LoadTopSucceeded{RequestID: f.RequestID, Result: FetchResult{Records: recs(478, 480)}})
	if !merged.Top.Exhausted || merged.Top.Boundary != at(478) {
		t.Fatalf("short top chunk: %+v", merged.Top)
	}
}

func TestPositionChanged(t *testing.T) {
	s := loaded(t)

	next, cmds := apply(t, s, PositionChanged{Position: at(509)})
	if !next.Is("loadingBottom") || next.Params.Anchor != at(509) {
		t.Fatalf("state = %s anchor = %v", next.Name(), next.Params.Anchor)
	}
	if f := fetchFor(t, cmds, SlotBottom); f.Request.Direction != After || f.Request.Anchor != at(510) {
		t.Fatalf("bottom request = %+v", f.Request)
	}

	next, cmds = apply(t, s, PositionChanged{Position: at(900)})
	if !next.Is("loadingAround") || len(next.Records) != 0 {
		t.Fatalf("outside position: state = %s records = %d", next.Name(), len(next.Records))
	}
	if f := fetchFor(t, cmds, SlotAround); f.Request.Anchor != at(900) {
		t.Fatalf("around anchor = %v, want %v", f.Request.Anchor, at(900))
	}

	// Every position lies outside an empty window.
	empty, cmds := Start(testParams())
	empty, _ = apply(t, empty, LoadAroundSucceeded{RequestID: fetchFor(t, cmds, SlotAround).RequestID})
	next, cmds = apply(t, empty, PositionChanged{Position: at(100)})
	if !next.Is("loadingAround") || next.Params.Anchor != at(100) {
		t.Fatalf("empty window: state = %s anchor = %v", next.Name(), next.Params.Anchor)
	}
	if f := fetchFor(t, cmds, SlotAround); f.Request.Anchor != at(100) {
		t.Fatalf("empty window: around anchor = %v, want %v", f.Request.Anchor, at(100))
	}
}

// A failed top edge and its retry never touch the bottom edge.
func TestTopFailureIsolatedFromBottom(t *testing.T) {
	s := loaded(t)
	s, cmds := apply(t, s, VisibleEntriesChanged{First: at(491), Last: at(510)})
	top, bottom := fetchFor(t, cmds, SlotTop), fetchFor(t, cmds, SlotBottom)

	s, _ = apply(t, s, LoadBottomSucceeded{RequestID: bottom.RequestID, Result: FetchResult{Records: recs(511, 520)}})
	s, _ = apply(t, s, LoadTopFailed{RequestID: top.RequestID, Err: errors.New("timeout")})
	if s.Top.Status != ChunkFailed {
		t.Fatalf("top = %v, want failed", s.Top.Status)
	}
	wantBottom, wantRecords := s.Bottom, s.Records

	// Scrolling does not retry a failed edge on its own.
	if _, again := apply(t, s, VisibleEntriesChanged{First: at(491), Last: at(500)}); hasFetch(again, SlotTop) {
		t.Fatalf("failed top retried without retryTop")
	}

	s, cmds = apply(t, s, RetryTop{})
	if !s.Is("extendingTop") {
		t.Fatalf("state = %s, want extendingTop", s.Name())
	}
	if len(cmds) != 1 || hasFetch(cmds, SlotBottom) {
		t.Fatalf("retryTop commands = %v", cmds)
	}
	if diff := cmp.Diff(wantBottom, s.Bottom, chunkCmp); diff != "" {
		t.Fatalf("bottom changed by retryTop (-want +got):\n%s", diff)
	}

	s, _ = apply(t, s, LoadTopFailed{RequestID: fetchFor(t, cmds, SlotTop).RequestID, Err: errors.New("again")})
	if diff := cmp.Diff(wantBottom, s.Bottom, chunkCmp); diff != "" {
		t.Fatalf("bottom changed by second top failure (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantRecords, s.Records); diff != "" {
		t.Fatalf("records changed by top failure (-want +got):\n%s", diff)
	}

	if _, _, handled := Transition(s, RetryBottom{}); handled {
		t.Fatalf("RetryBottom handled with a loaded bottom edge")
	}
}

// filtersChanged and dataViewChanged restart loading from every state.
func TestFiltersChanged_FromAnyState(t *testing.T) {
	states := map[string]func(t *testing.T) State{
		"loadingAround": func(t *testing.T) State {
			s, _ := Start(testParams())
			return s
		},
		"loaded": loaded,
		"loadingTop": func(t *testing.T) State {
			s, _ := apply(t, loaded(t), VisibleEntriesChanged{First: at(491), Last: at(495)})
			return s
		},
		"extendingBottom": func(t *testing.T) State {
			r := testParams().TimeRange
			r.To = r.To.Add(time.Hour)
			s, _ := apply(t, loaded(t), TimeRangeChanged{TimeRange: r})
			return s
		},
		"reloading": func(t *testing.T) State {
			s, _ := apply(t, loaded(t), ColumnsChanged{Columns: []string{"host"}})
			return s
		},
		"failedNoData": func(t *testing.T) State {
			s, cmds := Start(testParams())
			s, _ = apply(t, s, LoadAroundFailed{RequestID: fetchFor(t, cmds, SlotAround).RequestID, Err: errors.New("x")})
			return s
		},
	}
	events := []Event{
		FiltersChanged{Filters: []filters.Filter{filters.Phrase("logs", "level", "error")}},
		DataViewChanged{DataView: "metrics"},
	}
	for name, build := range states {
		for _, e := range events {
			t.Run(name+"/"+EventName(e), func(t *testing.T) {
				s := build(t)
				if !s.Is(name) {
					t.Fatalf("setup state = %s, want %s", s.Name(), name)
				}
				next, cmds := apply(t, s, e)
				if !next.Is("loadingAround") {
					t.Fatalf("state = %s, want loadingAround", next.Name())
				}
				if next.Top.Status != ChunkUninitialized || next.Bottom.Status != ChunkUninitialized {
					t.Fatalf("chunks = %v/%v, want uninitialized", next.Top.Status, next.Bottom.Status)
				}
				if len(next.Records) != 0 {
					t.Fatalf("records kept across %s", EventName(e))
				}
				wantAborts := []Command{Abort{Slot: SlotTop}, Abort{Slot: SlotBottom}}
				if diff := cmp.Diff(wantAborts, cmds[:2]); diff != "" {
					t.Fatalf("edge aborts (-want +got):\n%s", diff)
				}
				f := fetchFor(t, cmds, SlotAround)
				if f.RequestID == s.RequestID {
					t.Fatalf("around request id reused")
				}
			})
		}
	}
}

func TestTimeRangeChanged(t *testing.T) {
	base := testParams().TimeRange

	t.Run("same range", func(t *testing.T) {
		s := loaded(t)
		next, cmds := apply(t, s, TimeRangeChanged{TimeRange: base})
		if len(cmds) != 0 || !next.Is("loaded") {
			t.Fatalf("same range issued %v", cmds)
		}
	})

	t.Run("extend top", func(t *testing.T) {
		s := loaded(t)
		s.Top.Exhausted = true
		r := base
		r.From = r.From.Add(-time.Hour)
		next, cmds := apply(t, s, TimeRangeChanged{TimeRange: r})
		if !next.Is("extendingTop") || next.Top.Exhausted {
			t.Fatalf("state = %s exhausted = %v", next.Name(), next.Top.Exhausted)
		}
		f := fetchFor(t, cmds, SlotTop)
		if f.Request.Direction != Before || f.Request.Anchor != at(491) || !f.Request.TimeRange.From.Equal(r.From) {
			t.Fatalf("extend request = %+v", f.Request)
		}
		if diff := cmp.Diff(s.Bottom, next.Bottom, chunkCmp); diff != "" {
			t.Fatalf("bottom changed (-want +got):\n%s", diff)
		}
	})

	t.Run("trim bottom", func(t *testing.T) {
		s := loaded(t)
		r := base
		r.To = at(505).Time
		next, cmds := apply(t, s, TimeRangeChanged{TimeRange: r})
		if len(cmds) != 0 {
			t.Fatalf("trim issued %v", cmds)
		}
		if len(next.Records) != 15 || next.Bottom.Boundary != at(505) || !next.Bottom.Exhausted {
			t.Fatalf("trimmed window = %d records, bottom %+v", len(next.Records), next.Bottom)
		}
		if next.Top.Exhausted {
			t.Fatalf("top exhausted by a bottom trim")
		}
	})

	t.Run("trim aborts in-flight edge", func(t *testing.T) {
		s := loaded(t)
		s, _ = apply(t, s, VisibleEntriesChanged{First: at(495), Last: at(510)})
		r := base
		r.To = at(505).Time
		next, cmds := apply(t, s, TimeRangeChanged{TimeRange: r})
		if diff := cmp.Diff([]Command{Abort{Slot: SlotBottom}}, cmds); diff != "" {
			t.Fatalf("commands (-want +got):\n%s", diff)
		}
		if next.Bottom.Status.InFlight() {
			t.Fatalf("bottom still in flight")
		}
	})

	t.Run("no overlap reanchors", func(t *testing.T) {
		s := loaded(t)
		r := TimeRange{From: at(2000).Time, To: at(3000).Time}
		next, cmds := apply(t, s, TimeRangeChanged{TimeRange: r})
		if !next.Is("loadingAround") {
			t.Fatalf("state = %s, want loadingAround", next.Name())
		}
		if f := fetchFor(t, cmds, SlotAround); f.Request.Anchor != at(2000) {
			t.Fatalf("anchor = %v, want clamped to %v", f.Request.Anchor, at(2000))
		}
	})
}

func TestRefresh(t *testing.T) {
	base := testParams().TimeRange

	t.Run("same range refetches newer edge", func(t *testing.T) {
		s := loaded(t)
		s.Bottom.Exhausted = true
		next, cmds := apply(t, s, Refresh{TimeRange: base})
		if !next.Is("extendingBottom") || next.Bottom.Exhausted {
			t.Fatalf("state = %s exhausted = %v", next.Name(), next.Bottom.Exhausted)
		}
		if len(cmds) != 1 {
			t.Fatalf("commands = %v, want one bottom fetch", cmds)
		}
		f := fetchFor(t, cmds, SlotBottom)
		if f.Request.Direction != After || f.Request.Anchor != at(510) {
			t.Fatalf("bottom request = %+v", f.Request)
		}
		if len(next.Records) != 20 || next.RequestID != s.RequestID {
			t.Fatalf("refresh replaced the window")
		}

		next, _ = apply(t, next, LoadBottomSucceeded{RequestID: f.RequestID, Result: FetchResult{Records: recs(511, 512)}})
		if len(next.Records) != 22 || !next.Bottom.Exhausted {
			t.Fatalf("after refresh = %d records, bottom %+v", len(next.Records), next.Bottom)
		}
	})

	t.Run("same range with bottom in flight", func(t *testing.T) {
		s := loaded(t)
		s, _ = apply(t, s, VisibleEntriesChanged{First: at(500), Last: at(510)})
		next, cmds := apply(t, s, Refresh{TimeRange: base})
		if len(cmds) != 0 || next.Bottom.RequestID != s.Bottom.RequestID {
			t.Fatalf("refresh superseded the running bottom fetch: %v", cmds)
		}
	})

	t.Run("moved range extends like a range change", func(t *testing.T) {
		s := loaded(t)
		r := base
		r.From, r.To = r.From.Add(time.Minute), r.To.Add(time.Minute)
		next, cmds := apply(t, s, Refresh{TimeRange: r})
		if !hasFetch(cmds, SlotBottom) || hasFetch(cmds, SlotAround) {
			t.Fatalf("commands = %v, want a bottom fetch only", cmds)
		}
		if !next.Params.TimeRange.To.Equal(r.To) {
			t.Fatalf("range = %+v, want %+v", next.Params.TimeRange, r)
		}
	})

	t.Run("empty window loads around", func(t *testing.T) {
		s, cmds := Start(testParams())
		s, _ = apply(t, s, LoadAroundSucceeded{RequestID: fetchFor(t, cmds, SlotAround).RequestID})
		next, cmds := apply(t, s, Refresh{TimeRange: base})
		if !next.Is("loadingAround") || !hasFetch(cmds, SlotAround) {
			t.Fatalf("state = %s commands = %v", next.Name(), cmds)
		}
	})

	t.Run("failed retries", func(t *testing.T) {
		s, cmds := Start(testParams())
		s, _ = apply(t, s, LoadAroundFailed{RequestID: fetchFor(t, cmds, SlotAround).RequestID, Err: errors.New("down")})
		next, cmds := apply(t, s, Refresh{TimeRange: base})
		if !next.Is("loadingAround") || !hasFetch(cmds, SlotAround) {
			t.Fatalf("state = %s commands = %v", next.Name(), cmds)
		}
	})

	t.Run("loading around keeps its fetch", func(t *testing.T) {
		s, _ := Start(testParams())
		next, cmds := apply(t, s, Refresh{TimeRange: base})
		if len(cmds) != 0 || next.RequestID != s.RequestID {
			t.Fatalf("refresh restarted the around fetch: %v", cmds)
		}
	})
}

func TestColumnsChanged_Reloads(t *testing.T) {
	s := loaded(t)
	s, cmds := apply(t, s, ColumnsChanged{Columns: []string{"message", "host"}})
	if !s.Is("reloading") {
		t.Fatalf("state = %s, want reloading", s.Name())
	}
	if len(s.Records) != 20 {
		t.Fatalf("reloading dropped the visible records")
	}
	f := fetchFor(t, cmds, SlotAround)
	if f.Request.Direction != Around || len(f.Request.Columns) != 2 {
		t.Fatalf("reload request = %+v", f.Request)
	}
	s, _ = apply(t, s, LoadAroundSucceeded{RequestID: f.RequestID, Result: FetchResult{Records: recs(495, 505)}})
	if !s.Is("loaded") || len(s.Records) != 11 {
		t.Fatalf("after reload state = %s records = %d", s.Name(), len(s.Records))
	}
}

func TestAbortedEdgeResultIgnored(t *testing.T) {
	s := loaded(t)
	s, cmds := apply(t, s, VisibleEntriesChanged{First: at(491), Last: at(500)})
	top := fetchFor(t, cmds, SlotTop)
	s, cmds = apply(t, s, FiltersChanged{})
	s, _ = apply(t, s, LoadAroundSucceeded{RequestID: fetchFor(t, cmds, SlotAround).RequestID, Result: FetchResult{Records: recs(491, 510)}})

	if _, _, handled := Transition(s, LoadTopSucceeded{RequestID: top.RequestID, Result: FetchResult{Records: recs(1, 10)}}); handled {
		t.Fatalf("result for an aborted top fetch was handled")
	}
}
