// Package app provides the orchestration layer for scout.
//
// # Overview
//
// This package wires configuration, the record source, the discover state
// container, the data access machine and the UI together. It is the
// composition root: everything else is constructed here and connected.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       ├─────> config.Load()        Read scout config
//	       ├─────> openSource()         File source or log API client
//	       ├─────> newSession()         discover.Container + dataaccess.Machine
//	       ├─────> session.start()      Hydrate from URL, Initialize machine
//	       └─────> errgroup
//	                ├─ session.run()     FetchTrigger → machine events
//	                ├─ session.refresh() auto-refresh timer
//	                └─ ui.Run()          TUI (blocks, cancels the rest on quit)
//
// # Change Translation
//
// The discover container coalesces state changes into a Change set after
// a short debounce. session.run turns each set into machine events:
//
//	ChangeRefresh              → Refresh (range re-resolved, newer edge refetched)
//	ChangeTimeRange            → TimeRangeChanged (range re-resolved)
//	ChangeColumns, ChangeSort  → ColumnsChanged
//	ChangeDataView             → DataViewChanged
//	ChangeFilters, ChangeQuery → FiltersChanged
//
// Range and column events are sent first so a data view or filter reload
// in the same batch starts with every parameter applied.
//
// # Auto Refresh
//
// While the global refresh interval is unpaused, session.refresh calls
// Container.Refresh every interval. Relative ranges such as now-15m then
// resolve later and the machine extends the newer edge. An absolute range
// does not move, so the machine fetches the newer edge again to pick up
// records appended inside it. Consecutive fetch
// failures back the interval off exponentially, capped at 30 seconds.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Source file missing, or API address unparsable
//   - Session store unreadable
//
// Recoverable errors (logged, scout keeps running):
//   - Fetch failures, which the machine surfaces per edge
//   - Time ranges that fail to resolve
//   - Failure to save prefs or the session store at exit
//
// Logs go to state_dir/scout.log since the terminal belongs to the UI.
package app
