package dataaccess

import (
	"math"
	"slices"

	"github.com/five82/scout/internal/filters"
)

// Transition is the machine's reducer. It returns the next state, the
// commands to run, and whether e was handled in s. Unhandled events leave
// the state untouched; this includes results whose request id no longer
// matches the slot they were issued for.
func Transition(s State, e Event) (State, []Command, bool) {
	switch ev := e.(type) {
	case Initialize:
		if s.Phase != Uninitialized {
			return s, nil, false
		}
		s.Params = ev.Params.withDefaults()
		s.Params.Filters = filters.CloneAll(ev.Params.Filters)
		s.Params.Columns = slices.Clone(ev.Params.Columns)
		return s.enterLoadingAround()
	case FiltersChanged:
		s.Params.Filters = filters.CloneAll(ev.Filters)
		s.Params.Query = ev.Query
		if s.Phase == Uninitialized {
			return s, nil, true
		}
		return s.enterLoadingAround()
	case DataViewChanged:
		s.Params.DataView = ev.DataView
		if s.Phase == Uninitialized {
			return s, nil, true
		}
		return s.enterLoadingAround()
	}

	switch s.Phase {
	case LoadingAround, Reloading:
		return s.whileFetchingAround(e)
	case Loaded:
		return s.whileLoaded(e)
	case FailedNoData:
		return s.whileFailed(e)
	}

	switch ev := e.(type) {
	case TimeRangeChanged:
		s.Params.TimeRange = ev.TimeRange
		return s, nil, true
	case Refresh:
		s.Params.TimeRange = ev.TimeRange
		return s, nil, true
	case ColumnsChanged:
		s.Params.Columns = slices.Clone(ev.Columns)
		return s, nil, true
	}
	return s, nil, false
}

// Start is Transition(State{}, Initialize{p}).
func Start(p Params) (State, []Command) {
	s, cmds, _ := Transition(State{}, Initialize{Params: p})
	return s, cmds
}

func (s State) whileFetchingAround(e Event) (State, []Command, bool) {
	switch ev := e.(type) {
	case LoadAroundSucceeded:
		if ev.RequestID != s.RequestID {
			return s, nil, false
		}
		return s.applyAround(ev.Result), nil, true
	case LoadAroundFailed:
		if ev.RequestID != s.RequestID {
			return s, nil, false
		}
		s.Phase = FailedNoData
		s.Records = nil
		s.Err = ev.Err
		return s, nil, true
	case PositionChanged:
		s.Params.Anchor = ev.Position
		return s.enterLoadingAround()
	case TimeRangeChanged:
		if sameRange(s.Params.TimeRange, ev.TimeRange) {
			return s, nil, true
		}
		s.Params.TimeRange = ev.TimeRange
		return s.enterLoadingAround()
	case Refresh:
		// The fetch in flight already sees current data.
		if sameRange(s.Params.TimeRange, ev.TimeRange) {
			return s, nil, true
		}
		s.Params.TimeRange = ev.TimeRange
		return s.enterLoadingAround()
	case ColumnsChanged:
		s.Params.Columns = slices.Clone(ev.Columns)
		return s.enterReloading()
	}
	return s, nil, false
}

func (s State) whileLoaded(e Event) (State, []Command, bool) {
	switch ev := e.(type) {
	case PositionChanged:
		first, last, ok := s.Window()
		s.Params.Anchor = ev.Position
		if !ok {
			return s.enterLoadingAround()
		}
		if ev.Position.Compare(first) < 0 || ev.Position.Compare(last) > 0 {
			return s.enterLoadingAround()
		}
		i := s.indexOf(ev.Position)
		return s.loadNearEdges(i, i)
	case VisibleEntriesChanged:
		if len(s.Records) == 0 {
			return s, nil, false
		}
		return s.loadNearEdges(s.indexOf(ev.First), s.indexOf(ev.Last))
	case TimeRangeChanged:
		return s.changeTimeRange(ev.TimeRange)
	case Refresh:
		return s.refresh(ev.TimeRange)
	case ColumnsChanged:
		s.Params.Columns = slices.Clone(ev.Columns)
		return s.enterReloading()
	case RetryTop:
		if s.Top.Status != ChunkFailed {
			return s, nil, false
		}
		cmd := s.startTop(ChunkExtending)
		return s, []Command{cmd}, true
	case RetryBottom:
		if s.Bottom.Status != ChunkFailed {
			return s, nil, false
		}
		cmd := s.startBottom(ChunkExtending)
		return s, []Command{cmd}, true
	case LoadTopSucceeded:
		if !s.Top.Status.InFlight() || ev.RequestID != s.Top.RequestID {
			return s, nil, false
		}
		s.mergeTop(ev.Result)
		return s, nil, true
	case LoadTopFailed:
		if !s.Top.Status.InFlight() || ev.RequestID != s.Top.RequestID {
			return s, nil, false
		}
		s.Top.Status = ChunkFailed
		s.Top.Err = ev.Err
		return s, nil, true
	case LoadBottomSucceeded:
		if !s.Bottom.Status.InFlight() || ev.RequestID != s.Bottom.RequestID {
			return s, nil, false
		}
		s.mergeBottom(ev.Result)
		return s, nil, true
	case LoadBottomFailed:
		if !s.Bottom.Status.InFlight() || ev.RequestID != s.Bottom.RequestID {
			return s, nil, false
		}
		s.Bottom.Status = ChunkFailed
		s.Bottom.Err = ev.Err
		return s, nil, true
	}
	return s, nil, false
}

func (s State) whileFailed(e Event) (State, []Command, bool) {
	switch ev := e.(type) {
	case Retry:
		return s.enterLoadingAround()
	case PositionChanged:
		s.Params.Anchor = ev.Position
		return s.enterLoadingAround()
	case TimeRangeChanged, Refresh:
		s.Params.TimeRange = rangeOf(ev)
		return s.enterLoadingAround()
	case ColumnsChanged:
		// Kept for the next retry; nothing to reload.
		s.Params.Columns = slices.Clone(ev.Columns)
		return s, nil, true
	}
	return s, nil, false
}

func (s State) enterLoadingAround() (State, []Command, bool) {
	s.Phase = LoadingAround
	s.Records = nil
	s.Err = nil
	s.Top, s.Bottom = Chunk{}, Chunk{}
	cmd := s.requestAround()
	return s, []Command{Abort{Slot: SlotTop}, Abort{Slot: SlotBottom}, cmd}, true
}

// enterReloading refetches the anchor window. The current records stay
// visible until the result arrives.
func (s State) enterReloading() (State, []Command, bool) {
	s.Phase = Reloading
	s.Err = nil
	s.Top, s.Bottom = Chunk{}, Chunk{}
	cmd := s.requestAround()
	return s, []Command{Abort{Slot: SlotTop}, Abort{Slot: SlotBottom}, cmd}, true
}

func (s *State) requestAround() Command {
	s.Params.Anchor = clampAnchor(s.Params.Anchor, s.Params.TimeRange)
	s.RequestID = s.nextID()
	return Fetch{
		Slot:      SlotAround,
		RequestID: s.RequestID,
		Request:   s.request(s.Params.Anchor, Around),
	}
}

func (s State) applyAround(res FetchResult) State {
	s.Phase = Loaded
	s.Err = nil
	s.Records = s.inRange(res.Records)
	s.Top, s.Bottom = Chunk{}, Chunk{}
	var before int
	for _, r := range s.Records {
		if r.Cursor.Compare(s.Params.Anchor) <= 0 {
			before++
		}
	}
	s.Top.Exhausted = before < s.Params.ChunkSize
	s.Bottom.Exhausted = len(s.Records)-before < s.Params.ChunkSize
	if first, last, ok := s.Window(); ok {
		s.Top.Boundary, s.Bottom.Boundary = first, last
	} else {
		s.Top.Boundary, s.Bottom.Boundary = s.Params.Anchor, s.Params.Anchor
	}
	return s
}

func (s State) loadNearEdges(first, last int) (State, []Command, bool) {
	var cmds []Command
	if first < s.Params.EdgeThreshold && canExtend(s.Top) {
		cmds = append(cmds, s.startTop(ChunkLoading))
	}
	if len(s.Records)-1-last < s.Params.EdgeThreshold && canExtend(s.Bottom) {
		cmds = append(cmds, s.startBottom(ChunkLoading))
	}
	return s, cmds, true
}

// canExtend excludes failed edges: those only move again on an explicit
// retry or a time range change.
func canExtend(c Chunk) bool {
	return !c.Exhausted && !c.Status.InFlight() && c.Status != ChunkFailed
}

func (s *State) startTop(status ChunkStatus) Command {
	s.Top.Status = status
	s.Top.Err = nil
	s.Top.RequestID = s.nextID()
	anchor := s.Top.Boundary
	if first, _, ok := s.Window(); ok {
		anchor = first
	}
	return Fetch{Slot: SlotTop, RequestID: s.Top.RequestID, Request: s.request(anchor, Before)}
}

func (s *State) startBottom(status ChunkStatus) Command {
	s.Bottom.Status = status
	s.Bottom.Err = nil
	s.Bottom.RequestID = s.nextID()
	anchor := s.Bottom.Boundary
	if _, last, ok := s.Window(); ok {
		anchor = last
	}
	return Fetch{Slot: SlotBottom, RequestID: s.Bottom.RequestID, Request: s.request(anchor, After)}
}

func (s *State) mergeTop(res FetchResult) {
	first, _, ok := s.Window()
	var older []Record
	for _, r := range s.inRange(res.Records) {
		if !ok || r.Cursor.Compare(first) < 0 {
			older = append(older, r)
		}
	}
	records := make([]Record, 0, len(older)+len(s.Records))
	records = append(records, older...)
	s.Records = append(records, s.Records...)
	s.Top.Status = ChunkLoaded
	s.Top.Count += len(older)
	s.Top.Exhausted = len(res.Records) < s.Params.ChunkSize
	if len(s.Records) > 0 {
		s.Top.Boundary = s.Records[0].Cursor
	}
}

func (s *State) mergeBottom(res FetchResult) {
	_, last, ok := s.Window()
	records := make([]Record, 0, len(s.Records)+len(res.Records))
	records = append(records, s.Records...)
	var added int
	for _, r := range s.inRange(res.Records) {
		if !ok || r.Cursor.Compare(last) > 0 {
			records = append(records, r)
			added++
		}
	}
	s.Records = records
	s.Bottom.Status = ChunkLoaded
	s.Bottom.Count += added
	s.Bottom.Exhausted = len(res.Records) < s.Params.ChunkSize
	if len(s.Records) > 0 {
		s.Bottom.Boundary = s.Records[len(s.Records)-1].Cursor
	}
}

// changeTimeRange extends or trims each edge independently. A range that
// no longer overlaps the loaded window starts over around a clamped anchor.
func (s State) changeTimeRange(r TimeRange) (State, []Command, bool) {
	old := s.Params.TimeRange
	if sameRange(old, r) {
		return s, nil, true
	}
	s.Params.TimeRange = r
	first, last, ok := s.Window()
	if !ok || r.To.Before(first.Time) || r.From.After(last.Time) {
		return s.enterLoadingAround()
	}

	lo := 0
	for lo < len(s.Records) && s.Records[lo].Cursor.Time.Before(r.From) {
		lo++
	}
	hi := len(s.Records)
	for hi > lo && s.Records[hi-1].Cursor.Time.After(r.To) {
		hi--
	}
	if lo == hi {
		return s.enterLoadingAround()
	}
	trimmedTop, trimmedBottom := lo, len(s.Records)-hi
	s.Records = slices.Clone(s.Records[lo:hi])
	s.Params.Anchor = clampAnchor(s.Params.Anchor, r)

	var cmds []Command
	switch {
	case r.From.Before(old.From):
		s.Top.Exhausted = false
		cmds = append(cmds, s.startTop(ChunkExtending))
	case trimmedTop > 0:
		if s.Top.Status.InFlight() {
			cmds = append(cmds, Abort{Slot: SlotTop})
			s.Top.Status = ChunkLoaded
		}
		s.Top.Exhausted = true
		s.Top.Boundary = s.Records[0].Cursor
		s.Top.Count = max(0, s.Top.Count-trimmedTop)
	}
	switch {
	case r.To.After(old.To):
		s.Bottom.Exhausted = false
		cmds = append(cmds, s.startBottom(ChunkExtending))
	case trimmedBottom > 0:
		if s.Bottom.Status.InFlight() {
			cmds = append(cmds, Abort{Slot: SlotBottom})
			s.Bottom.Status = ChunkLoaded
		}
		s.Bottom.Exhausted = true
		s.Bottom.Boundary = s.Records[len(s.Records)-1].Cursor
		s.Bottom.Count = max(0, s.Bottom.Count-trimmedBottom)
	}
	return s, cmds, true
}

// refresh applies a re-resolved range. When the range did not move, the
// newer edge is fetched again so records appended inside it show up. The
// window is kept so the screen does not jump.
func (s State) refresh(r TimeRange) (State, []Command, bool) {
	if !sameRange(s.Params.TimeRange, r) {
		return s.changeTimeRange(r)
	}
	if len(s.Records) == 0 {
		return s.enterLoadingAround()
	}
	if s.Bottom.Status.InFlight() {
		return s, nil, true
	}
	s.Bottom.Exhausted = false
	cmd := s.startBottom(ChunkExtending)
	return s, []Command{cmd}, true
}

func rangeOf(e Event) TimeRange {
	switch ev := e.(type) {
	case TimeRangeChanged:
		return ev.TimeRange
	case Refresh:
		return ev.TimeRange
	}
	return TimeRange{}
}

func (s State) request(anchor Cursor, dir Direction) FetchRequest {
	return FetchRequest{
		DataView:  s.Params.DataView,
		Anchor:    anchor,
		Direction: dir,
		Size:      s.Params.ChunkSize,
		TimeRange: s.Params.TimeRange,
		Filters:   s.Params.Filters,
		Query:     s.Params.Query,
		Columns:   s.Params.Columns,
	}
}

func (s State) inRange(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if s.Params.TimeRange.Contains(r.Cursor.Time) {
			out = append(out, r)
		}
	}
	return out
}

// indexOf returns the index of c in the window, or the nearest record to
// it when c falls between records.
func (s State) indexOf(c Cursor) int {
	i, _ := slices.BinarySearchFunc(s.Records, c, func(r Record, c Cursor) int {
		return r.Cursor.Compare(c)
	})
	return min(i, len(s.Records)-1)
}

// clampAnchor pulls a into r. An unset anchor means the newest end.
func clampAnchor(a Cursor, r TimeRange) Cursor {
	switch {
	case a.IsZero() || a.Time.After(r.To):
		return Cursor{Time: r.To, Tiebreaker: math.MaxInt64}
	case a.Time.Before(r.From):
		return Cursor{Time: r.From}
	}
	return a
}

func sameRange(a, b TimeRange) bool {
	return a.From.Equal(b.From) && a.To.Equal(b.To)
}
