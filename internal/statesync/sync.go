package statesync

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/five82/scout/internal/statecontainer"
	"github.com/five82/scout/internal/urlstate"
)

// ErrStarted is returned by Start on a syncer that is already running.
var ErrStarted = errors.New("state sync already started")

// URLBinding is the URL side of a sync: one key of the URL state storage.
type URLBinding[T any] interface {
	Key() string
	Get() (T, bool)
	Set(v T, opts urlstate.SetOptions) error
	OnChange(fn func(v T, present bool)) (unsubscribe func())
}

var _ URLBinding[int] = urlstate.Binding[int]{}

// Config wires a container to a URL key.
type Config[T any] struct {
	Container statecontainer.Store[T]
	URL       URLBinding[T]

	// Equal decides whether a URL value differs from the container. It
	// defaults to never equal, so every URL change is applied.
	Equal func(a, b T) bool

	// IsEmpty guards hydration: an empty decoded value never replaces the
	// container's state.
	IsEmpty func(v T) bool

	// OnAbsent runs when navigation removes the key. The container is
	// left as it is either way.
	OnAbsent func()

	Logger *slog.Logger
}

// Syncer keeps one container and one URL key consistent.
//
// Container changes are written to the URL as replacements unless made
// inside Navigate. URL changes caused by navigation are applied to the
// container when they differ from it. A key that disappears from the URL
// never clears the container.
type Syncer[T any] struct {
	cfg    Config[T]
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	unsubs   []func()
	navigate atomic.Int32
	applying atomic.Int32
}

// New creates a stopped syncer.
func New[T any](cfg Config[T]) *Syncer[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Syncer[T]{cfg: cfg, logger: logger.With("key", cfg.URL.Key())}
}

// Start hydrates the container from the URL, or seeds the URL from the
// container when the key is absent, and then subscribes to both sides.
func (s *Syncer[T]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrStarted
	}

	guarded := statecontainer.SkipEmpty[T]{Inner: s.cfg.Container, IsEmpty: s.cfg.IsEmpty}
	if v, ok := s.cfg.URL.Get(); ok {
		s.apply(guarded, v)
	} else if err := s.cfg.URL.Set(s.cfg.Container.Get(), urlstate.SetOptions{Replace: true}); err != nil {
		s.logger.Warn("seed url state failed", "error", err)
	}

	s.unsubs = append(s.unsubs,
		s.cfg.Container.Subscribe(s.onContainer),
		s.cfg.URL.OnChange(func(v T, present bool) { s.onURL(guarded, v, present) }),
	)
	s.running = true
	return nil
}

// Stop removes both subscriptions. It may be called more than once and
// before Start.
func (s *Syncer[T]) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.running = false
	s.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// Running reports whether the syncer is started.
func (s *Syncer[T]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Navigate runs fn with URL writes recorded as new history entries.
func (s *Syncer[T]) Navigate(fn func()) {
	s.navigate.Add(1)
	defer s.navigate.Add(-1)
	fn()
}

// Flush writes the container's current state to the URL.
func (s *Syncer[T]) Flush(replace bool) error {
	return s.cfg.URL.Set(s.cfg.Container.Get(), urlstate.SetOptions{Replace: replace})
}

func (s *Syncer[T]) onContainer(v T) {
	if s.applying.Load() > 0 {
		return
	}
	replace := s.navigate.Load() == 0
	if err := s.cfg.URL.Set(v, urlstate.SetOptions{Replace: replace}); err != nil {
		s.logger.Warn("write url state failed", "error", err)
	}
}

func (s *Syncer[T]) onURL(guarded statecontainer.Store[T], v T, present bool) {
	if !present {
		s.logger.Debug("url state absent, keeping current state")
		if s.cfg.OnAbsent != nil {
			s.cfg.OnAbsent()
		}
		return
	}
	if s.cfg.Equal != nil && s.cfg.Equal(v, s.cfg.Container.Get()) {
		return
	}
	s.apply(guarded, v)
}

func (s *Syncer[T]) apply(guarded statecontainer.Store[T], v T) {
	s.applying.Add(1)
	defer s.applying.Add(-1)
	guarded.Set(v)
}
