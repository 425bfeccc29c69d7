package history

import (
	"strings"
	"sync"
)

// Action describes how the current entry changed.
type Action string

const (
	Push    Action = "PUSH"
	Replace Action = "REPLACE"
	Pop     Action = "POP"
)

// Location is a parsed href: Pathname, then Search starting with "?",
// then Hash starting with "#".
type Location struct {
	Pathname string
	Search   string
	Hash     string
}

// Parse splits href into a Location. An empty pathname becomes "/".
func Parse(href string) Location {
	var loc Location
	if i := strings.IndexByte(href, '#'); i >= 0 {
		loc.Hash = href[i:]
		href = href[:i]
	}
	if i := strings.IndexByte(href, '?'); i >= 0 {
		loc.Search = href[i:]
		href = href[:i]
	}
	loc.Pathname = href
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if loc.Hash == "#" {
		loc.Hash = ""
	}
	return loc
}

// Href joins the location back into a string.
func (l Location) Href() string {
	path := l.Pathname
	if path == "" {
		path = "/"
	}
	return path + l.Search + l.Hash
}

// Listener observes every entry change, including ones made through Push
// and Replace.
type Listener func(loc Location, action Action)

// Memory is an in-process history stack. The zero value is not usable;
// call NewMemory.
type Memory struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners []*listenerEntry
}

type listenerEntry struct {
	fn Listener
}

// NewMemory creates a history whose only entry is initial.
func NewMemory(initial string) *Memory {
	return &Memory{entries: []Location{Parse(initial)}}
}

// Location returns the current entry.
func (m *Memory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Push discards forward entries and appends href.
func (m *Memory) Push(href string) {
	loc := Parse(href)
	m.mu.Lock()
	m.entries = append(m.entries[:m.index+1], loc)
	m.index++
	m.mu.Unlock()
	m.notify(loc, Push)
}

// Replace overwrites the current entry.
func (m *Memory) Replace(href string) {
	loc := Parse(href)
	m.mu.Lock()
	m.entries[m.index] = loc
	m.mu.Unlock()
	m.notify(loc, Replace)
}

// Go moves n entries, clamped to the stack. It reports whether the
// current entry changed.
func (m *Memory) Go(n int) bool {
	m.mu.Lock()
	next := min(max(m.index+n, 0), len(m.entries)-1)
	if next == m.index {
		m.mu.Unlock()
		return false
	}
	m.index = next
	loc := m.entries[next]
	m.mu.Unlock()
	m.notify(loc, Pop)
	return true
}

// Back is Go(-1).
func (m *Memory) Back() bool { return m.Go(-1) }

// Forward is Go(1).
func (m *Memory) Forward() bool { return m.Go(1) }

// CanGoBack reports whether Back would move.
func (m *Memory) CanGoBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0
}

// CanGoForward reports whether Forward would move.
func (m *Memory) CanGoForward() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index < len(m.entries)-1
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Listen registers fn. The returned function is idempotent.
func (m *Memory) Listen(fn Listener) func() {
	e := &listenerEntry{fn: fn}
	m.mu.Lock()
	m.listeners = append(m.listeners, e)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, existing := range m.listeners {
				if existing == e {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Memory) notify(loc Location, action Action) {
	m.mu.Lock()
	listeners := append([]*listenerEntry(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l.fn(loc, action)
	}
}
