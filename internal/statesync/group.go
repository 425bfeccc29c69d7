package statesync

import "fmt"

// Syncable is anything with a Start/Stop lifecycle.
type Syncable interface {
	Start() error
	Stop()
}

// Group starts and stops several syncers as one.
type Group []Syncable

// Start starts members in order. If one fails, the ones already started
// are stopped again.
func (g Group) Start() error {
	for i, s := range g {
		if err := s.Start(); err != nil {
			for _, started := range g[:i] {
				started.Stop()
			}
			return fmt.Errorf("start sync %d: %w", i, err)
		}
	}
	return nil
}

// Stop stops members in reverse order.
func (g Group) Stop() {
	for i := len(g) - 1; i >= 0; i-- {
		g[i].Stop()
	}
}
