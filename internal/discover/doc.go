// Package discover holds the state of one log-exploration view.
//
// # Overview
//
// Two state slices describe what the view shows:
//
//	GlobalState (_g)   time range, refresh interval, pinned filters
//	AppState    (_a)   data view, columns, sort, query, interval, filters
//
// Each slice lives in a statecontainer.Container and is kept in step with
// its URL key by a statesync.Syncer. The Container type ties these
// together for one view and owns their lifecycle: New builds it, Start
// hydrates from the URL and begins syncing, Stop tears everything down.
// There is no package-level state; every view gets its own Container.
//
// # Architecture
//
//	            ┌──────────────────── Container ─────────────────────┐
//	            │                                                    │
//	UI edits ──→│ AppState container ←─→ Syncer(_a) ─┐               │
//	            │        │                           ├─→ urlstate ───┼──→ history
//	            │ GlobalState container ←→ Syncer(_g)┘   Storage     │     (push,
//	            │        │                                           │   replace,
//	            │        └── Change bits ──→ FetchTrigger ──→ C() ───┼──→ session
//	            │                                                    │
//	            └────────────────────────────────────────────────────┘
//
// Data flows in both directions. A Set on a container notifies its syncer,
// which encodes the state as Rison and writes it to the URL. A history
// change (back, forward, a loaded link) decodes the key and Sets the
// container. The syncer guards each direction so the write it just made
// does not come back as a change.
//
// # Lifecycle
//
//	c := discover.New(opts)   // nothing observed yet
//	c.Start()                 // hydrate from URL, seed missing keys, subscribe
//	...
//	href := c.FlushToURL()    // final URL, global state first
//	c.Stop()                  // unsubscribe, stop the trigger
//
// Start reads _g and _a from the current location. Missing or unparsable
// keys fall back to the defaults in Options, and the defaults are written
// back with a replace so the URL is complete before the first fetch. Stop
// is idempotent.
//
// # Equality
//
// IsEqualState compares states with go-cmp, treating nil and empty
// collections alike, and compares filter lists with
// filters.CompareFilters under CompareAllOptions. Both containers use it
// as their freeze policy: a Set with an equal state stores the value but
// notifies nobody, so it neither rewrites the URL nor triggers a fetch.
//
// # URL policy
//
// User changes rewrite the current history entry. NavigateAppState and
// LoadView push a new one. When navigation removes a key, the state it
// held stays as it was. When both keys disappear at once the AbsentPolicy
// decides: PreservePrevious (the default) keeps the last known app state,
// ResetToDefault restores the default app state and writes it back.
//
// # Filters
//
// Filters live in two places. Pinned filters belong to the global state
// and follow the user across views; the rest belong to the app state.
// SetFilters takes the combined list, removes duplicates under
// filters.CompareAllOptions, splits it by pin state and writes both
// slices inside one urlstate batch, so the change is one history entry.
// Filters returns the global filters first.
//
// # Hashed URLs
//
// With Options.HashStore set, the storage replaces each encoded value by
// a short h@ reference kept in the store. URLs stay short and the full
// state survives in the session store between runs.
//
// # Dirty tracking
//
// The app state right after Start is the baseline. ResetInitialAppState
// moves the baseline to the current state, IsAppStateDirty compares
// against it and AppStateDiff renders the difference. PreviousAppState is
// a one-step buffer holding the state before the latest change.
//
// AppStateDiff renders both states as indented JSON and diffs them line
// by line with go-diff, prefixing removed lines "- " and added lines "+ ".
//
// # Saved views
//
// SaveView writes the current app state through the ViewStore under a
// title, reusing the open view's id unless asNew is set, then moves the
// dirty baseline. LoadView restores a stored state as a pushed history
// entry under #/view/<id>. CurrentViewID reads the id back from the path.
//
// # Fetch trigger
//
// Every state change is classified into a Change bit set (data view,
// filters, query, time range, ...) and handed to the FetchTrigger, which
// waits for DefaultDebounce of quiet and then emits the union of the
// changes on its channel. Typing a query therefore produces one fetch, not
// one per keystroke. The trigger uses an injected clock so tests advance
// time by hand.
//
// # Time
//
// ResolveTime and ResolveRange evaluate date math: now-15m, now/d,
// now-1w/w, RFC 3339 and epoch milliseconds. A trailing /unit rounds down
// for the lower bound and up for the upper bound, so now/d..now/d covers
// today. ResolveRange rejects a range whose end precedes its start.
//
// # Concurrency
//
// Container methods are safe for concurrent use. Listeners run on the
// goroutine that made the change, outside any container lock, so they may
// read state back. The FetchTrigger emits on its own timer goroutine and
// never blocks a Set: a pending Change set is merged with later ones until
// the consumer takes it.
//
// # Testing Considerations
//
// Tests build a Container on history.NewMemory and clock.Fake:
//
//	c := discover.New(discover.Options{
//		History:         history.NewMemory("/"),
//		DefaultAppState: discover.AppState{Index: "logs"},
//		Clock:           clock.Fake(epoch),
//	})
//
// Advancing the fake clock past the debounce fires the trigger without
// sleeping. Href returns the current URL for assertions.
package discover
