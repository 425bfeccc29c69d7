package dataaccess

import "github.com/five82/scout/internal/filters"

// Event is an input to Transition.
type Event interface {
	eventName() string
}

// Initialize starts the machine from Uninitialized.
type Initialize struct{ Params Params }

// PositionChanged moves the target position. A position outside the loaded
// window re-anchors the machine on it.
type PositionChanged struct{ Position Cursor }

// VisibleEntriesChanged reports the first and last records on screen.
type VisibleEntriesChanged struct{ First, Last Cursor }

// TimeRangeChanged carries a newly resolved time range.
type TimeRangeChanged struct{ TimeRange TimeRange }

// Refresh re-resolves the time range and looks for records added since the
// last fetch, even when the range itself has not moved.
type Refresh struct{ TimeRange TimeRange }

// ColumnsChanged carries the new column list.
type ColumnsChanged struct{ Columns []string }

// FiltersChanged carries the new filters and query.
type FiltersChanged struct {
	Filters []filters.Filter
	Query   Query
}

// DataViewChanged carries the new data view id.
type DataViewChanged struct{ DataView string }

// Retry retries a failed initial load.
type Retry struct{}

// RetryTop retries a failed top-edge fetch.
type RetryTop struct{}

// RetryBottom retries a failed bottom-edge fetch.
type RetryBottom struct{}

type (
	LoadAroundSucceeded struct {
		RequestID uint64
		Result    FetchResult
	}
	LoadAroundFailed struct {
		RequestID uint64
		Err       error
	}
	LoadTopSucceeded struct {
		RequestID uint64
		Result    FetchResult
	}
	LoadTopFailed struct {
		RequestID uint64
		Err       error
	}
	LoadBottomSucceeded struct {
		RequestID uint64
		Result    FetchResult
	}
	LoadBottomFailed struct {
		RequestID uint64
		Err       error
	}
)

func (Initialize) eventName() string            { return "initialize" }
func (PositionChanged) eventName() string       { return "positionChanged" }
func (VisibleEntriesChanged) eventName() string { return "visibleEntriesChanged" }
func (TimeRangeChanged) eventName() string      { return "timeRangeChanged" }
func (Refresh) eventName() string               { return "refresh" }
func (ColumnsChanged) eventName() string        { return "columnsChanged" }
func (FiltersChanged) eventName() string        { return "filtersChanged" }
func (DataViewChanged) eventName() string       { return "dataViewChanged" }
func (Retry) eventName() string                 { return "retry" }
func (RetryTop) eventName() string              { return "retryTop" }
func (RetryBottom) eventName() string           { return "retryBottom" }
func (LoadAroundSucceeded) eventName() string   { return "loadAroundSucceeded" }
func (LoadAroundFailed) eventName() string      { return "loadAroundFailed" }
func (LoadTopSucceeded) eventName() string      { return "loadTopSucceeded" }
func (LoadTopFailed) eventName() string         { return "loadTopFailed" }
func (LoadBottomSucceeded) eventName() string   { return "loadBottomSucceeded" }
func (LoadBottomFailed) eventName() string      { return "loadBottomFailed" }

// EventName returns the event's name for logging.
func EventName(e Event) string {
	if e == nil {
		return "<nil>"
	}
	return e.eventName()
}

// Slot identifies one of the three independent fetch lanes.
type Slot int

const (
	SlotAround Slot = iota
	SlotTop
	SlotBottom
)

func (s Slot) String() string {
	switch s {
	case SlotTop:
		return "top"
	case SlotBottom:
		return "bottom"
	}
	return "around"
}

// Command is an effect requested by Transition.
type Command interface {
	slot() Slot
}

// Fetch starts a request in Slot, superseding whatever that slot was
// running.
type Fetch struct {
	Slot      Slot
	RequestID uint64
	Request   FetchRequest
}

// Abort cancels whatever Slot is running.
type Abort struct{ Slot Slot }

func (f Fetch) slot() Slot { return f.Slot }
func (a Abort) slot() Slot { return a.Slot }
