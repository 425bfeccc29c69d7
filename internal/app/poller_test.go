package app

import (
	"testing"
	"time"

	"github.com/five82/scout/internal/clock"
	"github.com/five82/scout/internal/discover"
	"github.com/five82/scout/internal/history"
)

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		failures int
		want     time.Duration
	}{
		{"healthy source keeps interval", 5 * time.Second, 0, 5 * time.Second},
		{"negative treated as healthy", 5 * time.Second, -3, 5 * time.Second},
		{"one failure doubles", 5 * time.Second, 1, 10 * time.Second},
		{"two failures", 5 * time.Second, 2, 20 * time.Second},
		{"three failures capped", 5 * time.Second, 3, maxBackoff},
		{"minimum interval grows", minRefreshInterval, 4, 16 * time.Second},
		{"base above cap", time.Minute, 1, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.failures, tt.base); got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, tt.base, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_NeverExceedsCap(t *testing.T) {
	for failures := 0; failures <= 64; failures++ {
		if got := calculateBackoff(failures, minRefreshInterval); got > maxBackoff {
			t.Fatalf("calculateBackoff(%d) = %v, exceeds %v", failures, got, maxBackoff)
		}
	}
}

func TestRefreshInterval(t *testing.T) {
	tests := []struct {
		name   string
		ri     *discover.RefreshInterval
		want   time.Duration
		wantOn bool
	}{
		{"unset", nil, 0, false},
		{"paused", &discover.RefreshInterval{Pause: true, Value: 5000}, 0, false},
		{"zero", &discover.RefreshInterval{Value: 0}, 0, false},
		{"five seconds", &discover.RefreshInterval{Value: 5000}, 5 * time.Second, true},
		{"clamped to minimum", &discover.RefreshInterval{Value: 10}, minRefreshInterval, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := discover.New(discover.Options{
				History:            history.NewMemory("/"),
				DefaultGlobalState: discover.GlobalState{RefreshInterval: tt.ri},
				Clock:              clock.Fake(epoch),
			})
			s := &session{container: c}
			got, on := s.refreshInterval()
			if got != tt.want || on != tt.wantOn {
				t.Fatalf("refreshInterval() = %v, %v, want %v, %v", got, on, tt.want, tt.wantOn)
			}
		})
	}
}
