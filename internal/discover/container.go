package discover

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/five82/scout/internal/clock"
	"github.com/five82/scout/internal/filters"
	"github.com/five82/scout/internal/statecontainer"
	"github.com/five82/scout/internal/statesync"
	"github.com/five82/scout/internal/urlstate"
)

// AbsentPolicy decides what happens to the app state when navigation
// lands on a URL that carries neither state key.
type AbsentPolicy int

const (
	// PreservePrevious keeps the last known app state.
	PreservePrevious AbsentPolicy = iota
	// ResetToDefault restores the default app state and writes it back to
	// the URL.
	ResetToDefault
)

func (p AbsentPolicy) String() string {
	if p == ResetToDefault {
		return "reset"
	}
	return "preserve"
}

// ParseAbsentPolicy maps "preserve" and "reset" to a policy.
func ParseAbsentPolicy(s string) (AbsentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return PreservePrevious, nil
	case "reset":
		return ResetToDefault, nil
	}
	return PreservePrevious, fmt.Errorf("unknown absent policy %q", s)
}

// Options configures a Container.
type Options struct {
	History            urlstate.History
	DefaultAppState    AppState
	DefaultGlobalState GlobalState

	// HashStore enables hashed URLs when set.
	HashStore urlstate.HashStore
	Views     ViewStore

	AbsentPolicy AbsentPolicy
	Clock        clock.Clock
	Debounce     time.Duration
	Logger       *slog.Logger
}

// Container owns the app and global state of one discover view, their
// URL sync, dirty tracking and the debounced fetch trigger. It is created
// per view and torn down with Stop.
type Container struct {
	opts    Options
	logger  *slog.Logger
	storage *urlstate.Storage
	app     *statecontainer.Container[AppState]
	global  *statecontainer.Container[GlobalState]

	appSync    *statesync.Syncer[AppState]
	globalSync *statesync.Syncer[GlobalState]
	syncs      statesync.Group
	trigger    *FetchTrigger

	mu         sync.Mutex
	initial    AppState
	previous   AppState
	lastApp    AppState
	lastGlobal GlobalState
	unsubs     []func()
	started    bool
}

// New builds a stopped container. Call Start to hydrate from the URL.
func New(opts Options) *Container {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var storageOpts []urlstate.Option
	storageOpts = append(storageOpts, urlstate.WithLogger(logger))
	if opts.HashStore != nil {
		storageOpts = append(storageOpts, urlstate.WithHashStore(opts.HashStore))
	}

	c := &Container{
		opts:    opts,
		logger:  logger,
		storage: urlstate.New(opts.History, storageOpts...),
		app: statecontainer.New(opts.DefaultAppState.Clone(),
			statecontainer.WithEqual(IsEqualState[AppState]),
			statecontainer.WithClone(AppState.Clone)),
		global: statecontainer.New(opts.DefaultGlobalState.Clone(),
			statecontainer.WithEqual(IsEqualState[GlobalState]),
			statecontainer.WithClone(GlobalState.Clone)),
		trigger: NewFetchTrigger(opts.Clock, opts.Debounce, logger),
	}

	c.globalSync = statesync.New(statesync.Config[GlobalState]{
		Container: c.global,
		URL:       urlstate.Bind[GlobalState](c.storage, urlstate.GlobalKey),
		Equal:     IsEqualState[GlobalState],
		IsEmpty:   GlobalState.IsEmpty,
		OnAbsent:  c.onAbsent,
		Logger:    logger,
	})
	c.appSync = statesync.New(statesync.Config[AppState]{
		Container: c.app,
		URL:       urlstate.Bind[AppState](c.storage, urlstate.AppKey),
		Equal:     IsEqualState[AppState],
		IsEmpty:   AppState.IsEmpty,
		OnAbsent:  c.onAbsent,
		Logger:    logger,
	})
	c.syncs = statesync.Group{c.globalSync, c.appSync}
	return c
}

// Start hydrates both states from the URL, records the dirty baseline and
// begins syncing.
func (c *Container) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return statesync.ErrStarted
	}
	c.started = true
	c.mu.Unlock()

	var err error
	c.storage.Batch(func() { err = c.syncs.Start() })
	if err != nil {
		return fmt.Errorf("start state sync: %w", err)
	}

	app, global := c.app.Get(), c.global.Get()
	c.mu.Lock()
	c.initial = app.Clone()
	c.previous = app.Clone()
	c.lastApp = app
	c.lastGlobal = global
	c.unsubs = append(c.unsubs,
		c.app.Subscribe(c.onAppChange),
		c.global.Subscribe(c.onGlobalChange),
	)
	c.mu.Unlock()

	c.logger.Info("discover state started", "href", c.storage.Href())
	return nil
}

// Stop ends syncing, drops subscriptions and cancels a pending fetch
// trigger. It is safe to call more than once and before Start.
func (c *Container) Stop() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	c.syncs.Stop()
	for _, unsub := range unsubs {
		unsub()
	}
	c.trigger.Stop()
	c.storage.Close()
}

// AppState returns a copy of the current app state.
func (c *Container) AppState() AppState { return c.app.Get() }

// GlobalState returns a copy of the current global state.
func (c *Container) GlobalState() GlobalState { return c.global.Get() }

// SetAppState replaces the app state. The URL entry is replaced.
func (c *Container) SetAppState(s AppState) { c.app.Set(s) }

// UpdateAppState edits a copy of the app state and sets it.
func (c *Container) UpdateAppState(fn func(*AppState)) {
	c.app.Update(func(s AppState) AppState {
		fn(&s)
		return s
	})
}

// NavigateAppState is UpdateAppState recorded as a new history entry.
func (c *Container) NavigateAppState(fn func(*AppState)) {
	c.appSync.Navigate(func() { c.UpdateAppState(fn) })
}

// SetGlobalState replaces the global state.
func (c *Container) SetGlobalState(s GlobalState) { c.global.Set(s) }

// UpdateGlobalState edits a copy of the global state and sets it.
func (c *Container) UpdateGlobalState(fn func(*GlobalState)) {
	c.global.Update(func(s GlobalState) GlobalState {
		fn(&s)
		return s
	})
}

// SetFilters replaces every filter. Pinned filters go to the global
// state, the rest to the app state; duplicates are dropped. Both writes
// land in one history entry.
func (c *Container) SetFilters(all []filters.Filter) {
	all = filters.Dedupe(all, filters.CompareAllOptions)
	app, global := filters.Split(all)
	c.storage.Batch(func() {
		c.UpdateGlobalState(func(s *GlobalState) { s.Filters = global })
		c.UpdateAppState(func(s *AppState) { s.Filters = app })
	})
}

// Filters returns global filters followed by app filters.
func (c *Container) Filters() []filters.Filter {
	return AllFilters(c.app.Get(), c.global.Get())
}

// FlushToURL writes both states to the URL, global first, and returns
// the resulting href. Empty states are left out.
func (c *Container) FlushToURL() string {
	c.storage.Batch(func() {
		if err := c.globalSync.Flush(true); err != nil {
			c.logger.Warn("flush global state failed", "error", err)
		}
		if err := c.appSync.Flush(true); err != nil {
			c.logger.Warn("flush app state failed", "error", err)
		}
	})
	return c.storage.Href()
}

// ReplaceURLAppState updates the app state and rewrites its URL key in
// place, even when the key was missing.
func (c *Container) ReplaceURLAppState(fn func(*AppState)) {
	c.storage.Batch(func() {
		c.UpdateAppState(fn)
		if err := c.appSync.Flush(true); err != nil {
			c.logger.Warn("replace url app state failed", "error", err)
		}
	})
}

// Href returns the current href.
func (c *Container) Href() string { return c.storage.Href() }

// ResetInitialAppState makes the current app state the dirty baseline.
func (c *Container) ResetInitialAppState() {
	s := c.app.Get()
	c.mu.Lock()
	c.initial = s
	c.mu.Unlock()
}

// InitialAppState returns the dirty baseline.
func (c *Container) InitialAppState() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initial.Clone()
}

// IsAppStateDirty reports whether the app state differs from the
// baseline.
func (c *Container) IsAppStateDirty() bool {
	return !IsEqualState(c.InitialAppState(), c.app.Get())
}

// PreviousAppState returns the app state as it was before the most
// recent change.
func (c *Container) PreviousAppState() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previous.Clone()
}

// AppStateDiff is a line diff from the baseline to the current app state,
// or "" when clean.
func (c *Container) AppStateDiff() string {
	return stateDiff(c.InitialAppState(), c.app.Get())
}

// FetchTrigger returns the debounced change signal.
func (c *Container) FetchTrigger() *FetchTrigger { return c.trigger }

// Refresh asks for a fetch without any state change.
func (c *Container) Refresh() { c.trigger.Notify(ChangeRefresh) }

func (c *Container) onAppChange(next AppState) {
	c.mu.Lock()
	prev := c.lastApp
	c.previous = prev
	c.lastApp = next
	c.mu.Unlock()
	if changed := AppChanges(prev, next); changed != 0 {
		c.logger.Debug("app state changed", "changes", changed.String())
		c.trigger.Notify(changed)
	}
}

func (c *Container) onGlobalChange(next GlobalState) {
	c.mu.Lock()
	prev := c.lastGlobal
	c.lastGlobal = next
	c.mu.Unlock()
	if changed := GlobalChanges(prev, next); changed != 0 {
		c.logger.Debug("global state changed", "changes", changed.String())
		c.trigger.Notify(changed)
	}
}

func (c *Container) onAbsent() {
	if c.opts.AbsentPolicy != ResetToDefault {
		return
	}
	if _, ok := c.storage.Raw(urlstate.GlobalKey); ok {
		return
	}
	if _, ok := c.storage.Raw(urlstate.AppKey); ok {
		return
	}
	c.logger.Debug("both state keys absent, resetting app state")
	c.app.Set(c.opts.DefaultAppState.Clone())
}
