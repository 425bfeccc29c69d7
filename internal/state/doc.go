// Package state provides thread-safe state sharing between scout's
// background work and the UI.
//
// # Overview
//
// The data access machine, the fetch decorator and the URL watcher all
// write into a Store; the UI reads a Snapshot on every tick.
//
//	Producers:                         Consumer (UI):
//	┌──────────────────────┐          ┌──────────────────┐
//	│ machine OnChange     │─Publish─→│                  │
//	│ counting fetcher     │─Record──→│ store.Snapshot() │
//	│ discover container   │─SetLoc──→│      ↓           │
//	└──────────────────────┘  (mutex) │  render UI       │
//	                                  └──────────────────┘
//
// # Update Semantics
//
// Publish replaces the data access state wholesale. HasData stays set
// once the first window loaded, so a reload keeps showing old records.
//
// RecordFetch tracks fetch outcomes independently of the window. A
// failure keeps whatever data was published and bumps the failure
// counter; two failures in a row make the snapshot report IsOffline.
//
// # Defensive Copying
//
// Snapshot clones the record slice and wraps the last error so callers
// can hold on to a snapshot without racing the producers. Record field
// maps are shared: the data access machine never modifies records once
// they are in a window.
//
// The zero Store is ready to use.
package state
