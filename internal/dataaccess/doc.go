// Package dataaccess loads a window of records around an anchor and grows
// it at either edge as the viewport approaches.
//
// # Overview
//
// A log view never holds the whole result set. It holds a contiguous,
// cursor-ordered window: one chunk fetched around the anchor, plus older
// chunks prepended at the top and newer chunks appended at the bottom as
// the user scrolls toward an edge. The top edge holds older records, the
// bottom edge newer ones.
//
// # Architecture
//
// The package is split into a pure core and a thin effectful shell:
//
//	          events                         commands
//	UI ───────────────┐              ┌──────────────────┐
//	session ──────────┤              │                  ↓
//	                  ↓              │           ┌─────────────┐
//	            ┌──────────┐   ┌─────────────┐   │   Runner    │
//	            │ Machine  │──→│ Transition  │   │ slot around │──→ Fetcher
//	            │ (mutex)  │   │ (pure)      │   │ slot top    │
//	            └──────────┘   └─────────────┘   │ slot bottom │
//	                  ↑                          └─────────────┘
//	                  └──── Load*Succeeded / Load*Failed ───┘
//
// Transition(State, Event) returns the next State, the Commands to run
// (Fetch, Abort) and whether the event was handled. It performs no I/O and
// reads no clock, so every behavior is tested by feeding events and
// inspecting the result.
//
// Runner executes commands. Each slot has at most one fetch in flight; a
// Fetch for a busy slot cancels the previous context first. Results come
// back as events through the dispatch function.
//
// Machine ties the two together behind a mutex and reports every handled
// state through OnChange.
//
// # Phases
//
//	Uninitialized ──Initialize──→ LoadingAround ──ok──→ Loaded
//	                                    │                  │
//	                                  fail            columns changed
//	                                    ↓                  ↓
//	                              FailedNoData ←──fail── Reloading
//	                                    │
//	                                  Retry ──→ LoadingAround
//
// Reloading keeps the current records on screen while the window is
// refetched; LoadingAround clears them. Filter, query and data view
// changes always restart from LoadingAround, whatever the phase.
//
// Inside Loaded the Top and Bottom chunks are independent regions. Each
// moves through ChunkUninitialized, ChunkLoading (scrolled near the edge),
// ChunkExtending (range widened or retried), ChunkLoaded and ChunkFailed.
// State.Is answers the derived names loadingTop, loadingBottom,
// extendingTop and extendingBottom. A failed top edge never blocks the
// bottom one, and the reverse.
//
// # Events
//
//	PositionChanged        re-anchor outside the window, else load near edges
//	VisibleEntriesChanged  load an edge once the viewport is within
//	                       EdgeThreshold records of it
//	TimeRangeChanged       widen an edge, trim it, or start over when the
//	                       new range no longer overlaps the window
//	Refresh                as TimeRangeChanged; an unchanged range refetches
//	                       after the newest record instead
//	ColumnsChanged         reload in place
//	FiltersChanged         start over
//	DataViewChanged        start over
//	Retry, RetryTop,       retry the failed fetch only
//	RetryBottom
//
// An empty window has no inside, so any PositionChanged re-anchors.
//
// # Stale Results
//
// Every Fetch carries a request id drawn from a per-state counter. The
// around slot's id lives in State.RequestID and each edge keeps its own in
// Chunk.RequestID. A result whose id does not match the slot it was issued
// for is unhandled, so a late response can never overwrite newer data.
// Entering LoadingAround or Reloading aborts both edge slots.
//
// # Exhaustion
//
// A Before or After chunk shorter than the requested size marks its edge
// Exhausted, and visibility near an exhausted edge issues nothing. Widening
// the time range on that side clears it, and so does a Refresh over an
// unchanged range for the bottom edge, since new records arrive there.
//
// # Usage Example
//
//	m := dataaccess.NewMachine(ctx, fetcher,
//		dataaccess.WithLogger(logger),
//		dataaccess.OnChange(store.Publish),
//	)
//	defer m.Close()
//
//	m.Send(dataaccess.Initialize{Params: params})
//	m.Send(dataaccess.VisibleEntriesChanged{First: first, Last: last})
//
// # Testing Considerations
//
// Transition tests need no goroutines: build a State with Start, answer
// its Fetch commands with Load*Succeeded events and assert on the result.
// Runner and Machine tests use FetcherFunc to script responses.
package dataaccess
