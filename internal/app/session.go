package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/scout/internal/clock"
	"github.com/five82/scout/internal/config"
	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/history"
	"github.com/five82/scout/internal/savedview"
	"github.com/five82/scout/internal/sessionstore"
	"github.com/five82/scout/internal/state"
)

// session ties one discover view to its data access machine.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	clock  clock.Clock
	store  *state.Store

	hist      *history.Memory
	hashes    *sessionstore.Store
	views     *savedview.FileStore
	container *discover.Container
	machine   *dataaccess.Machine

	// wake interrupts the refresher's wait when the refresh interval
	// changes.
	wake chan struct{}

	closeOnce sync.Once
	final     string
}

type sessionOptions struct {
	Config  config.Config
	Fetcher dataaccess.Fetcher
	Store   *state.Store
	Href    string
	Clock   clock.Clock
	Logger  *slog.Logger
}

func newSession(ctx context.Context, o sessionOptions) (*session, error) {
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Href == "" {
		o.Href = "/"
	}
	cfg := o.Config

	policy, err := discover.ParseAbsentPolicy(cfg.AbsentPolicy)
	if err != nil {
		return nil, fmt.Errorf("load absent policy: %w", err)
	}

	s := &session{
		cfg:    cfg,
		logger: o.Logger,
		clock:  o.Clock,
		store:  o.Store,
		hist:   history.NewMemory(o.Href),
		views:  savedview.NewFileStore(cfg.ViewsDir()),
		wake:   make(chan struct{}, 1),
	}

	dopts := discover.Options{
		History:            s.hist,
		DefaultAppState:    defaultAppState(cfg),
		DefaultGlobalState: defaultGlobalState(cfg),
		Views:              s.views,
		AbsentPolicy:       policy,
		Clock:              o.Clock,
		Debounce:           time.Duration(cfg.FetchDebounce) * time.Millisecond,
		Logger:             o.Logger.With("component", "discover"),
	}
	if cfg.StoreInSession {
		path := cfg.SessionStorePath()
		s.hashes, err = sessionstore.Load(path, sessionstore.DefaultMaxEntries)
		if err != nil {
			// Hashed state is a cache; start empty and overwrite on close.
			o.Logger.Warn("session store unreadable, starting empty", "path", path, "error", err)
			s.hashes = sessionstore.New(path, sessionstore.DefaultMaxEntries)
		}
		dopts.HashStore = s.hashes
	}
	s.container = discover.New(dopts)
	s.machine = dataaccess.NewMachine(ctx, countingFetcher{next: o.Fetcher, store: o.Store},
		dataaccess.WithLogger(o.Logger.With("component", "dataaccess")),
		dataaccess.OnChange(o.Store.Publish),
	)
	return s, nil
}

func defaultAppState(cfg config.Config) discover.AppState {
	return discover.AppState{
		Index:   cfg.DefaultIndex,
		Columns: append([]string(nil), cfg.DefaultColumns...),
		Query:   &discover.Query{Language: discover.LanguageText},
	}
}

func defaultGlobalState(cfg config.Config) discover.GlobalState {
	return discover.GlobalState{
		Time:            &discover.TimeRange{From: cfg.DefaultFrom, To: cfg.DefaultTo},
		RefreshInterval: &discover.RefreshInterval{Pause: true},
	}
}

// start hydrates the view from the URL and begins the first load.
func (s *session) start() error {
	if err := s.container.Start(); err != nil {
		return err
	}
	p, err := s.params()
	if err != nil {
		s.logger.Warn("time range invalid, using default", "error", err)
		p.TimeRange, err = resolveRange(*defaultGlobalState(s.cfg).Time, s.clock.Now())
		if err != nil {
			return fmt.Errorf("resolve default time range: %w", err)
		}
	}
	s.machine.Send(dataaccess.Initialize{Params: p})
	s.store.SetLocation(s.container.Href(), s.container.IsAppStateDirty())
	return nil
}

// run forwards fetch triggers to the machine until ctx ends.
func (s *session) run(ctx context.Context) error {
	trigger := s.container.FetchTrigger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-trigger.C():
			s.apply(c)
		}
	}
}

func (s *session) apply(c discover.Change) {
	if c.Has(discover.ChangeRefreshInterval) {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	p, err := s.params()
	if err != nil {
		s.logger.Warn("ignoring time range change", "error", err)
		c &^= discover.ChangeTimeRange | discover.ChangeRefresh
	}
	for _, e := range eventsFor(c, p) {
		s.machine.Send(e)
	}
	s.store.SetLocation(s.container.Href(), s.container.IsAppStateDirty())
}

// params builds machine params from the current view state. When the time
// range does not resolve, the returned params carry a zero range and the
// error is returned alongside.
func (s *session) params() (dataaccess.Params, error) {
	return paramsFor(s.cfg, s.container.AppState(), s.container.GlobalState(), s.clock.Now())
}

// close stops the view and returns its final href. Later calls return
// the same href.
func (s *session) close() string {
	s.closeOnce.Do(func() {
		s.final = s.container.FlushToURL()
		s.container.Stop()
		s.machine.Close()
		if s.hashes != nil {
			if err := s.hashes.Save(); err != nil {
				s.logger.Warn("save session store failed", "error", err)
			}
		}
	})
	return s.final
}
