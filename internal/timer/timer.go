// ABOUTME: Wall-clock anchored rest timer with minimize/restore and one-shot expiry.
// ABOUTME: Remaining time is always recomputed from the start instant, never decremented per tick.
package timer

import (
	"sync"
	"time"

	"github.com/harperreed/lift/internal/logging"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is how often a running timer checks for expiry.
const DefaultInterval = 100 * time.Millisecond

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// State is the display state of the rest timer.
type State string

const (
	Stopped          State = "stopped"
	Running          State = "running"
	RunningMinimized State = "running_minimized"
)

// ComputeRemaining returns max(0, duration - (now - startedAt)).
func ComputeRemaining(now, startedAt time.Time, duration time.Duration) time.Duration {
	remaining := duration - now.Sub(startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Status is a point-in-time view of the timer.
type Status struct {
	State     State         `json:"state"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Duration  time.Duration `json:"duration"`
	Remaining time.Duration `json:"remaining"`
}

// RestTimer counts down a rest period and fires OnExpire once when it ends.
type RestTimer struct {
	mu        sync.Mutex
	clock     Clock
	interval  time.Duration
	onExpire  func()
	log       *logrus.Entry
	startedAt time.Time
	duration  time.Duration
	running   bool
	minimized bool
	// done stops the ticker goroutine of the current run.
	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a RestTimer.
type Option func(*RestTimer)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(t *RestTimer) { t.clock = c }
}

// WithInterval sets the expiry check period.
func WithInterval(d time.Duration) Option {
	return func(t *RestTimer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithOnExpire registers the completion notification (haptic, sound).
func WithOnExpire(fn func()) Option {
	return func(t *RestTimer) { t.onExpire = fn }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(t *RestTimer) { t.log = log }
}

// New creates a stopped timer.
func New(opts ...Option) *RestTimer {
	t := &RestTimer{
		clock:    SystemClock,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = logging.OrDiscard(t.log).WithField("component", "timer")
	return t
}

// Start begins a countdown of the given seconds, replacing any running one.
// A non-positive duration stops the timer instead.
func (t *RestTimer) Start(seconds int) {
	t.mu.Lock()
	t.stopLocked()
	if seconds <= 0 {
		t.mu.Unlock()
		return
	}
	t.startedAt = t.clock.Now()
	t.duration = time.Duration(seconds) * time.Second
	t.running = true
	t.minimized = false
	t.done = make(chan struct{})
	done := t.done
	t.wg.Add(1)
	t.mu.Unlock()

	t.log.WithField("seconds", seconds).Debug("rest timer started")
	go t.tick(done)
}

// Stop cancels the countdown without firing expiry.
func (t *RestTimer) Stop() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

// Close stops the timer and waits for its ticker goroutine to exit.
func (t *RestTimer) Close() {
	t.Stop()
	t.wg.Wait()
}

// Minimize collapses the timer to a background indicator.
func (t *RestTimer) Minimize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.minimized = true
	}
}

// Restore expands a minimized timer.
func (t *RestTimer) Restore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minimized = false
}

// Remaining returns the time left, zero when stopped.
func (t *RestTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return ComputeRemaining(t.clock.Now(), t.startedAt, t.duration)
}

// State returns the display state.
func (t *RestTimer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

// Status returns a snapshot of the timer.
func (t *RestTimer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := Status{State: t.stateLocked()}
	if t.running {
		started := t.startedAt
		st.StartedAt = &started
		st.Duration = t.duration
		st.Remaining = ComputeRemaining(t.clock.Now(), t.startedAt, t.duration)
	}
	return st
}

// Check evaluates the countdown once. When it has reached zero the timer
// stops and OnExpire runs; Check reports whether this call fired it.
func (t *RestTimer) Check() bool {
	t.mu.Lock()
	if !t.running || ComputeRemaining(t.clock.Now(), t.startedAt, t.duration) > 0 {
		t.mu.Unlock()
		return false
	}
	t.stopLocked()
	fn := t.onExpire
	t.mu.Unlock()

	t.log.Debug("rest timer expired")
	if fn != nil {
		fn()
	}
	return true
}

func (t *RestTimer) stateLocked() State {
	switch {
	case !t.running:
		return Stopped
	case t.minimized:
		return RunningMinimized
	default:
		return Running
	}
}

// stopLocked clears the countdown and signals the ticker to exit. It does
// not wait, so it is safe to call from the ticker goroutine itself.
func (t *RestTimer) stopLocked() {
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	t.running = false
	t.minimized = false
	t.startedAt = time.Time{}
	t.duration = 0
}

func (t *RestTimer) tick(done <-chan struct{}) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if t.Check() {
				return
			}
		}
	}
}
