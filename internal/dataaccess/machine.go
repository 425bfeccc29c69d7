package dataaccess

import (
	"context"
	"log/slog"
	"sync"
)

// Machine serializes events through Transition and runs the resulting
// commands. It is safe for concurrent use; fetch results re-enter through
// Send from the runner's goroutines.
type Machine struct {
	logger   *slog.Logger
	runner   *Runner
	onChange func(State)

	mu    sync.Mutex
	state State
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets the machine's logger.
func WithLogger(l *slog.Logger) MachineOption {
	return func(m *Machine) { m.logger = l }
}

// OnChange registers fn to receive every state produced by a handled
// event. Calls are serialized.
func OnChange(fn func(State)) MachineOption {
	return func(m *Machine) { m.onChange = fn }
}

// NewMachine returns an uninitialized machine fetching through f. Send an
// Initialize event to begin loading.
func NewMachine(ctx context.Context, f Fetcher, opts ...MachineOption) *Machine {
	m := &Machine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(m)
	}
	m.runner = NewRunner(ctx, f, func(e Event) { m.Send(e) }, m.logger)
	return m
}

// Send applies e and reports whether the current state handled it.
func (m *Machine) Send(e Event) bool {
	m.mu.Lock()
	next, cmds, handled := Transition(m.state, e)
	if !handled {
		name := m.state.Name()
		m.mu.Unlock()
		m.logger.Debug("event ignored", "event", EventName(e), "state", name)
		return false
	}
	m.state = next
	m.runner.Execute(cmds)
	if m.onChange != nil {
		m.onChange(next)
	}
	m.mu.Unlock()
	m.logger.Debug("event handled", "event", EventName(e), "state", next.Name(), "commands", len(cmds))
	return true
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close cancels outstanding fetches and waits for them to finish.
func (m *Machine) Close() {
	m.runner.Close()
}
