package statecontainer

// SkipEmpty decorates a Store so that Set silently drops values for which
// IsEmpty reports true. Get and Subscribe pass through.
//
// Sync code hydrates containers from decoded URL segments; an empty or
// missing segment must never replace in-memory defaults, and this is the
// single place that policy lives.
type SkipEmpty[T any] struct {
	Inner   Store[T]
	IsEmpty func(T) bool
}

var _ Store[int] = SkipEmpty[int]{}

// Get returns the inner state.
func (s SkipEmpty[T]) Get() T { return s.Inner.Get() }

// Set forwards next unless it is empty.
func (s SkipEmpty[T]) Set(next T) {
	if s.IsEmpty != nil && s.IsEmpty(next) {
		return
	}
	s.Inner.Set(next)
}

// Subscribe registers on the inner store.
func (s SkipEmpty[T]) Subscribe(fn func(T)) func() { return s.Inner.Subscribe(fn) }
