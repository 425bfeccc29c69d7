package urlstate

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/five82/scout/internal/history"
	"github.com/five82/scout/internal/rison"
)

// Keys under which the two state slices are stored.
const (
	GlobalKey = "_g"
	AppKey    = "_a"
)

// History is the navigation surface the storage writes to and listens on.
type History interface {
	Location() history.Location
	Push(href string)
	Replace(href string)
	Listen(fn history.Listener) (unlisten func())
}

// HashStore keeps encoded states out of the URL. Put returns a short
// reference that Lookup resolves.
type HashStore interface {
	Put(value string) string
	Lookup(ref string) (string, bool)
}

// SetOptions controls how a write reaches history.
type SetOptions struct {
	// Replace rewrites the current entry instead of pushing a new one.
	Replace bool
}

// Option configures a Storage.
type Option func(*Storage)

// WithHashStore stores encoded values in hs and writes only their
// references to the URL.
func WithHashStore(hs HashStore) Option {
	return func(s *Storage) { s.hashes = hs }
}

// WithKeyOrder sets the position new keys take in the query. Defaults to
// the global key followed by the app key.
func WithKeyOrder(keys ...string) Option {
	return func(s *Storage) { s.order = keys }
}

// WithLogger sets the logger used for decode failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) { s.logger = logger }
}

// Storage reads and writes rison-encoded values under named keys of the
// hash query, e.g. "/#?_g=(time:(from:now-15m,to:now))&_a=(index:logs)".
//
// Writes made through Set are committed to history right away unless they
// happen inside Batch, in which case they are committed together when the
// outermost Batch returns or Flush is called. A batch pushes a new entry if
// any of its writes asked for one.
type Storage struct {
	hist   History
	hashes HashStore
	order  []string
	logger *slog.Logger

	mu        sync.Mutex
	pending   []pendingWrite
	batch     int
	seen      map[string]string
	listeners []*changeListener
	unlisten  func()
}

type pendingWrite struct {
	key     string
	value   string
	present bool
	path    bool
	replace bool
}

type changeListener struct {
	key string
	fn  func(raw string, present bool)
}

// New creates a storage over hist and starts listening for navigation.
func New(hist History, opts ...Option) *Storage {
	s := &Storage{
		hist:   hist,
		order:  []string{GlobalKey, AppKey},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seen = s.resolveAll(hist.Location())
	s.unlisten = hist.Listen(s.onLocation)
	return s
}

// Close stops listening to history and drops pending writes.
func (s *Storage) Close() {
	s.Cancel()
	s.mu.Lock()
	unlisten := s.unlisten
	s.unlisten = nil
	s.mu.Unlock()
	if unlisten != nil {
		unlisten()
	}
}

// Href returns the committed location.
func (s *Storage) Href() string {
	return s.hist.Location().Href()
}

// Path returns the path part of the hash, e.g. "/view/abc".
func (s *Storage) Path() string {
	path, _ := hashParts(s.pendingLocation().Hash)
	return path
}

// Raw returns the resolved rison text stored under key, including writes
// not yet flushed. A missing key or an unresolvable hash reference reports
// false.
func (s *Storage) Raw(key string) (string, bool) {
	_, params := hashParts(s.pendingLocation().Hash)
	raw, ok := lookup(params, key)
	if !ok {
		return "", false
	}
	return s.resolve(key, raw)
}

// Get decodes the value under key into v. Absent and malformed values
// both report false.
func (s *Storage) Get(key string, v any) bool {
	raw, ok := s.Raw(key)
	if !ok {
		return false
	}
	if err := rison.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Debug("ignoring malformed url state", "key", key, "error", err)
		return false
	}
	return true
}

// Set encodes v under key. A value that encodes to an empty object or
// null removes the key. Other keys are left as they are.
func (s *Storage) Set(key string, v any, opts SetOptions) error {
	data, err := rison.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	raw := string(data)
	w := pendingWrite{key: key, value: raw, present: raw != "()" && raw != "!n", replace: opts.Replace}
	if w.present && s.hashes != nil {
		w.value = s.hashes.Put(raw)
	}
	s.enqueue(w)
	return nil
}

// SetRaw stores already encoded rison text under key.
func (s *Storage) SetRaw(key, raw string, opts SetOptions) {
	w := pendingWrite{key: key, value: raw, present: raw != "", replace: opts.Replace}
	if w.present && s.hashes != nil && !strings.HasPrefix(raw, "h@") {
		w.value = s.hashes.Put(raw)
	}
	s.enqueue(w)
}

// Remove deletes key from the URL.
func (s *Storage) Remove(key string, opts SetOptions) {
	s.enqueue(pendingWrite{key: key, replace: opts.Replace})
}

// SetPath changes the hash path, keeping the query.
func (s *Storage) SetPath(path string, opts SetOptions) {
	s.enqueue(pendingWrite{path: true, value: path, replace: opts.Replace})
}

// Batch defers commits until fn returns.
func (s *Storage) Batch(fn func()) {
	s.mu.Lock()
	s.batch++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.batch--
		done := s.batch == 0
		s.mu.Unlock()
		if done {
			s.Flush()
		}
	}()
	fn()
}

// Flush commits pending writes to history. It reports whether the
// location changed.
func (s *Storage) Flush() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	current := s.hist.Location()
	next := applyWrites(current, s.pending, s.order)
	replace := true
	for _, w := range s.pending {
		if !w.replace {
			replace = false
		}
	}
	s.pending = nil
	if next.Href() == current.Href() {
		s.mu.Unlock()
		return false
	}
	s.seen = s.resolveAll(next)
	s.mu.Unlock()

	if replace {
		s.hist.Replace(next.Href())
	} else {
		s.hist.Push(next.Href())
	}
	return true
}

// Cancel drops pending writes.
func (s *Storage) Cancel() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// OnChange calls fn when navigation changes the value under key. Writes
// made through this storage do not trigger it. The returned function is
// idempotent.
func (s *Storage) OnChange(key string, fn func(raw string, present bool)) func() {
	l := &changeListener{key: key, fn: fn}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, existing := range s.listeners {
				if existing == l {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Storage) onLocation(loc history.Location, _ history.Action) {
	values := s.resolveAll(loc)

	s.mu.Lock()
	prev := s.seen
	s.seen = values
	var fire []func()
	for _, l := range s.listeners {
		before, hadBefore := prev[l.key]
		after, hasAfter := values[l.key]
		if before == after && hadBefore == hasAfter {
			continue
		}
		fn := l.fn
		fire = append(fire, func() { fn(after, hasAfter) })
	}
	s.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

func (s *Storage) enqueue(w pendingWrite) {
	s.mu.Lock()
	s.pending = append(s.pending, w)
	batched := s.batch > 0
	s.mu.Unlock()
	if !batched {
		s.Flush()
	}
}

func (s *Storage) pendingLocation() history.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.hist.Location()
	if len(s.pending) == 0 {
		return loc
	}
	return applyWrites(loc, s.pending, s.order)
}

func (s *Storage) resolve(key, raw string) (string, bool) {
	if !strings.HasPrefix(raw, "h@") {
		return raw, true
	}
	if s.hashes == nil {
		s.logger.Debug("hashed url state without a session store", "key", key)
		return "", false
	}
	value, ok := s.hashes.Lookup(raw)
	if !ok {
		s.logger.Debug("unknown url state hash", "key", key, "hash", raw)
	}
	return value, ok
}

func (s *Storage) resolveAll(loc history.Location) map[string]string {
	_, params := hashParts(loc.Hash)
	out := make(map[string]string, len(params))
	for _, p := range params {
		if p.bad {
			continue
		}
		if value, ok := s.resolve(p.key, p.value); ok {
			out[p.key] = value
		}
	}
	return out
}

func applyWrites(loc history.Location, writes []pendingWrite, order []string) history.Location {
	path, params := hashParts(loc.Hash)
	for _, w := range writes {
		switch {
		case w.path:
			path = w.value
		case w.present:
			params = upsert(params, w.key, w.value, order)
		default:
			params = remove(params, w.key)
		}
	}
	loc.Hash = buildHash(path, params)
	return loc
}
