// Package ui provides the terminal user interface for scout.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program styled with Lipgloss. It never fetches
// records itself. It reads the data access state from a state.Store on a
// tick, edits the discover state through the discover.Container, and
// reports scrolling to the data access machine as events.
//
// # Package Structure
//
//   - app.go: Model, Options, Init/Update/View and Run
//   - input.go: key handling, retries and history navigation
//   - table.go: record rows, edge rows and selection tracking
//   - header.go: status bar, command bar and footer
//   - prompt.go: the footer prompt for query, filters, columns, time range,
//     index, auto-refresh, jump and save
//   - overlay.go: record detail, unsaved diff and saved view picker
//   - help.go: keyboard shortcut overlay
//   - keys.go, theme.go, style_helpers.go, layout.go, format.go: bindings,
//     colors, rendering helpers and parsers
//
// # Scrolling
//
// Moving the selection sends PositionChanged while the window is loaded,
// and VisibleEntriesChanged whenever the first or last record on screen
// changes. The machine extends the window when the visible range nears an
// edge. When records are merged above the selection the offset shifts by
// the same amount so the selected record stays in place.
//
// # Edges
//
// The rows above and below the records show each edge: loading, failed
// with "r to retry", or the end of the time range. r retries the initial
// load when nothing loaded, otherwise the failed edge.
//
// # State changes
//
// Prompts write to the discover container. The container's fetch trigger
// turns those writes into data access events, so a query typed here and a
// URL opened from history reload the same way.
package ui
