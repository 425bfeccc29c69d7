package statecontainer

import (
	"fmt"
	"sync"
)

// Store is the surface shared by Container and its decorators.
type Store[T any] interface {
	Get() T
	Set(next T)
	Subscribe(listener func(T)) (unsubscribe func())
}

// Transition computes a new state from the current one. It must not
// modify current in place.
type Transition[T any] func(current T, args ...any) T

// Option configures a Container.
type Option[T any] func(*Container[T])

// WithEqual enables the freeze policy: Set skips notification when equal
// reports the next state equal to the current one. The stored value is
// still replaced.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(c *Container[T]) { c.equal = equal }
}

// WithClone makes Get and listener deliveries hand out clone(state), so
// callers can never alias the stored value.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(c *Container[T]) { c.clone = clone }
}

// WithTransitions registers named transitions callable through
// Container.Transition.
func WithTransitions[T any](transitions map[string]Transition[T]) Option[T] {
	return func(c *Container[T]) {
		for name, fn := range transitions {
			c.transitions[name] = fn
		}
	}
}

// Container holds one state value and notifies subscribers when it is
// replaced.
type Container[T any] struct {
	mu          sync.Mutex
	state       T
	listeners   []*listener[T]
	equal       func(a, b T) bool
	clone       func(T) T
	transitions map[string]Transition[T]
}

type listener[T any] struct {
	fn func(T)
}

var _ Store[int] = (*Container[int])(nil)

// New creates a container holding initial.
func New[T any](initial T, opts ...Option[T]) *Container[T] {
	c := &Container[T]{transitions: map[string]Transition[T]{}}
	for _, opt := range opts {
		opt(c)
	}
	c.state = c.copyOf(initial)
	return c
}

// Get returns the most recently set state.
func (c *Container[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyOf(c.state)
}

// Set replaces the state and notifies subscribers synchronously, in
// subscription order, before returning. Listeners run outside the lock
// and may call Get or Set.
func (c *Container[T]) Set(next T) {
	c.mu.Lock()
	skip := c.equal != nil && c.equal(c.state, next)
	c.state = c.copyOf(next)
	if skip {
		c.mu.Unlock()
		return
	}
	listeners := append([]*listener[T](nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(c.copyOf(next))
	}
}

// Update applies fn to the current state and sets the result.
func (c *Container[T]) Update(fn func(current T) T) {
	c.Set(fn(c.Get()))
}

// Transition runs the named transition with args.
func (c *Container[T]) Transition(name string, args ...any) error {
	c.mu.Lock()
	fn, ok := c.transitions[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown transition %q", name)
	}
	c.Set(fn(c.Get(), args...))
	return nil
}

// Subscribe registers listener. The returned function removes exactly
// this registration and is safe to call more than once.
func (c *Container[T]) Subscribe(fn func(T)) func() {
	l := &listener[T]{fn: fn}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, existing := range c.listeners {
				if existing == l {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Len reports the number of active subscriptions.
func (c *Container[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Clear drops every subscription. Used when the owning view unmounts.
func (c *Container[T]) Clear() {
	c.mu.Lock()
	c.listeners = nil
	c.mu.Unlock()
}

func (c *Container[T]) copyOf(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}
