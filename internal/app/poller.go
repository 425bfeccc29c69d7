package app

import (
	"context"
	"time"

	"github.com/five82/scout/internal/clock"
)

const (
	minRefreshInterval = time.Second
	maxBackoff         = 30 * time.Second
)

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// refreshInterval returns the auto-refresh period of the global state and
// whether auto-refresh is on.
func (s *session) refreshInterval() (time.Duration, bool) {
	ri := s.container.GlobalState().RefreshInterval
	if ri == nil || ri.Pause || ri.Value <= 0 {
		return 0, false
	}
	return max(time.Duration(ri.Value)*time.Millisecond, minRefreshInterval), true
}

// refresh asks the view for a fetch every refresh interval while
// auto-refresh is on, backing off while fetches keep failing. It returns
// when ctx ends.
func (s *session) refresh(ctx context.Context) error {
	for {
		var (
			fire  chan struct{}
			timer *clock.Timer
		)
		if d, ok := s.refreshInterval(); ok {
			d = calculateBackoff(s.store.Snapshot().ConsecutiveFailures, d)
			fire = make(chan struct{}, 1)
			timer = s.clock.AfterFunc(d, func() { fire <- struct{}{} })
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-fire:
			s.logger.Debug("auto refresh")
			s.container.Refresh()
		}
	}
}
