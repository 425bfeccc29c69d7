package dataaccess

import (
	"context"
	"log/slog"
	"sync"
)

// Runner executes fetch commands. Each slot runs at most one fetch; a new
// fetch or an Abort cancels the one before it. Results are handed to
// dispatch as events, except for aborted fetches, which are dropped.
type Runner struct {
	ctx      context.Context
	fetcher  Fetcher
	dispatch func(Event)
	logger   *slog.Logger

	mu      sync.Mutex
	cancels map[Slot]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewRunner returns a runner whose fetches live no longer than ctx.
func NewRunner(ctx context.Context, fetcher Fetcher, dispatch func(Event), logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		ctx:      ctx,
		fetcher:  fetcher,
		dispatch: dispatch,
		logger:   logger,
		cancels:  make(map[Slot]context.CancelFunc),
	}
}

// Execute runs cmds in order without blocking on the fetches.
func (r *Runner) Execute(cmds []Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for _, cmd := range cmds {
		r.cancelLocked(cmd.slot())
		f, ok := cmd.(Fetch)
		if !ok {
			continue
		}
		ctx, cancel := context.WithCancel(r.ctx)
		r.cancels[f.Slot] = cancel
		r.wg.Add(1)
		go r.run(ctx, f)
	}
}

func (r *Runner) run(ctx context.Context, f Fetch) {
	defer r.wg.Done()
	res, err := r.fetcher.FetchChunk(ctx, f.Request)
	if ctx.Err() != nil || (err != nil && IsAborted(err)) {
		r.logger.Debug("fetch aborted", "slot", f.Slot, "request_id", f.RequestID)
		return
	}
	if err != nil {
		r.logger.Warn("fetch failed", "slot", f.Slot, "request_id", f.RequestID, "error", err)
	}
	r.dispatch(resultEvent(f, res, err))
}

func resultEvent(f Fetch, res FetchResult, err error) Event {
	switch f.Slot {
	case SlotTop:
		if err != nil {
			return LoadTopFailed{RequestID: f.RequestID, Err: err}
		}
		return LoadTopSucceeded{RequestID: f.RequestID, Result: res}
	case SlotBottom:
		if err != nil {
			return LoadBottomFailed{RequestID: f.RequestID, Err: err}
		}
		return LoadBottomSucceeded{RequestID: f.RequestID, Result: res}
	}
	if err != nil {
		return LoadAroundFailed{RequestID: f.RequestID, Err: err}
	}
	return LoadAroundSucceeded{RequestID: f.RequestID, Result: res}
}

func (r *Runner) cancelLocked(slot Slot) {
	if cancel, ok := r.cancels[slot]; ok {
		cancel()
		delete(r.cancels, slot)
	}
}

// Close cancels every slot and waits for the fetch goroutines to return.
// Nothing is dispatched after Close returns.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	for slot := range r.cancels {
		r.cancelLocked(slot)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
