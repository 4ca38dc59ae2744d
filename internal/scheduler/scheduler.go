package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/logger"
)

// Sun recomputation bounds. The sun moves about a quarter degree per minute.
const (
	MinSunInterval     = 20 * time.Second
	MaxSunInterval     = 60 * time.Second
	DefaultSunInterval = MinSunInterval
)

var errAlreadyStarted = errors.New("sun tracker already started")

// SunTracker periodically recomputes the sun direction and light intensity.
// It is owned by a scene or server lifecycle and must be stopped on teardown.
type SunTracker struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	clock     func() time.Time

	mu       sync.RWMutex
	current  globe.SunState
	started  bool
	onUpdate func(globe.SunState)
}

// NewSunTracker creates a tracker. The interval is clamped to [MinSunInterval, MaxSunInterval];
// a nil clock means time.Now.
func NewSunTracker(interval time.Duration, clock func() time.Time) *SunTracker {
	if clock == nil {
		clock = time.Now
	}
	if interval < MinSunInterval {
		interval = MinSunInterval
	}
	if interval > MaxSunInterval {
		interval = MaxSunInterval
	}

	t := &SunTracker{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		clock:     clock,
	}
	t.Refresh()
	return t
}

func (t *SunTracker) Interval() time.Duration { return t.interval }

// OnUpdate registers fn to be called with every recomputed state.
func (t *SunTracker) OnUpdate(fn func(globe.SunState)) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

// Start schedules the periodic recomputation and starts the underlying scheduler.
func (t *SunTracker) Start() error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return errAlreadyStarted
	}
	t.started = true
	t.mu.Unlock()

	log := logger.Named("sun")
	_, err := t.scheduler.Every(t.interval).Do(func() {
		s := t.Refresh()
		log.Debug("sun direction updated",
			zap.Float64("x", s.Direction.X),
			zap.Float64("y", s.Direction.Y),
			zap.Float64("z", s.Direction.Z),
			zap.Float64("intensity", s.Intensity),
		)
	})
	if err != nil {
		return err
	}

	t.scheduler.StartAsync()
	log.Info("tracker started", zap.Duration("interval", t.interval))
	return nil
}

// Refresh recomputes the sun state from the tracker clock and publishes it.
func (t *SunTracker) Refresh() globe.SunState {
	s := globe.ComputeSun(t.clock())

	t.mu.Lock()
	t.current = s
	fn := t.onUpdate
	t.mu.Unlock()

	if fn != nil {
		fn(s)
	}
	return s
}

// Current returns the most recently published sun state.
func (t *SunTracker) Current() globe.SunState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Stop stops the scheduler and cancels any future recomputation. It is safe to call
// on a tracker that was never started.
func (t *SunTracker) Stop() {
	if t.scheduler != nil {
		t.scheduler.Stop()
	}
}

// Close adapts Stop to a resource release function.
func (t *SunTracker) Close() error {
	t.Stop()
	return nil
}
