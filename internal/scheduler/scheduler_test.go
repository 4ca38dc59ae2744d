package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/i474232898/weather-globe/internal/globe"
)

func TestNewSunTrackerClampsInterval(t *testing.T) {
	if got := NewSunTracker(time.Second, nil).Interval(); got != MinSunInterval {
		t.Fatalf("expected %v, got %v", MinSunInterval, got)
	}
	if got := NewSunTracker(time.Hour, nil).Interval(); got != MaxSunInterval {
		t.Fatalf("expected %v, got %v", MaxSunInterval, got)
	}
	if got := NewSunTracker(30*time.Second, nil).Interval(); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}

func TestSunTrackerRefreshUsesClock(t *testing.T) {
	now := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	tracker := NewSunTracker(DefaultSunInterval, func() time.Time { return now })

	s := tracker.Current()
	if !s.ComputedAt.Equal(now) {
		t.Fatalf("expected initial state computed at %v, got %v", now, s.ComputedAt)
	}
	if math.Abs(s.Direction.Len()-1) > 1e-12 {
		t.Fatalf("expected unit direction, got length %v", s.Direction.Len())
	}

	now = now.Add(6 * time.Hour)
	refreshed := tracker.Refresh()
	if refreshed.Direction == s.Direction {
		t.Fatal("expected direction to change after six hours")
	}
	if tracker.Current() != refreshed {
		t.Fatal("expected Current to return the refreshed state")
	}
}

func TestSunTrackerStartStop(t *testing.T) {
	tracker := NewSunTracker(DefaultSunInterval, nil)
	if err := tracker.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.Start(); err == nil {
		t.Fatal("expected error on second start")
	}
	tracker.Stop()
	if err := tracker.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSunTrackerStopWithoutStart(t *testing.T) {
	tracker := NewSunTracker(DefaultSunInterval, nil)
	tracker.Stop()
}

func TestSunTrackerOnUpdate(t *testing.T) {
	tracker := NewSunTracker(DefaultSunInterval, func() time.Time {
		return time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC)
	})

	var got []float64
	tracker.OnUpdate(func(s globe.SunState) { got = append(got, s.Intensity) })
	tracker.Refresh()

	if len(got) != 1 {
		t.Fatalf("expected one update, got %d", len(got))
	}
	if got[0] != tracker.Current().Intensity {
		t.Fatalf("expected hook to receive the published state")
	}
}
