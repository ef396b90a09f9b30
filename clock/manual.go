package clock

import (
	"sync"
	"time"
)

// Manual is a virtual Clock driven explicitly by test code via Advance.
// It lets worker-loop tests exercise scheduled_delay / export_timeout
// semantics without sleeping on the wall clock.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	timers  []*manualTimer
}

// NewManual returns a Manual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d, firing any tickers/timers whose
// deadline has passed. Firing sends are non-blocking: a tick is dropped if
// the consumer hasn't drained the previous one, matching time.Ticker.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := m.now.Add(d)
	for m.now.Before(target) {
		next := target
		for _, t := range m.tickers {
			if t.stopped || t.period <= 0 {
				continue
			}
			if t.deadline.Before(next) {
				next = t.deadline
			}
		}
		for _, tm := range m.timers {
			if tm.fired || tm.stopped {
				continue
			}
			if tm.deadline.Before(next) {
				next = tm.deadline
			}
		}
		m.now = next

		for _, t := range m.tickers {
			if t.stopped || t.period <= 0 {
				continue
			}
			for !t.deadline.After(m.now) {
				select {
				case t.ch <- m.now:
				default:
				}
				t.deadline = t.deadline.Add(t.period)
			}
		}
		for _, tm := range m.timers {
			if tm.fired || tm.stopped {
				continue
			}
			if !tm.deadline.After(m.now) {
				select {
				case tm.ch <- m.now:
				default:
				}
				tm.fired = true
			}
		}
	}
}

func (m *Manual) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d <= 0 {
		d = time.Hour
	}
	t := &manualTicker{ch: make(chan time.Time, 1), period: d, deadline: m.now.Add(d), owner: m}
	m.tickers = append(m.tickers, t)
	return t
}

func (m *Manual) NewTimer(d time.Duration) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	tm := &manualTimer{ch: make(chan time.Time, 1), deadline: m.now.Add(d), owner: m}
	if d == 0 {
		tm.fired = true
		tm.ch <- m.now
	}
	m.timers = append(m.timers, tm)
	return tm
}

type manualTicker struct {
	ch       chan time.Time
	period   time.Duration
	deadline time.Time
	stopped  bool
	owner    *Manual
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) Reset(d time.Duration) {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if d <= 0 {
		d = time.Hour
	}
	t.period = d
	t.stopped = false
	t.deadline = t.owner.now.Add(d)
}

type manualTimer struct {
	ch       chan time.Time
	deadline time.Time
	fired    bool
	stopped  bool
	owner    *Manual
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	fired := t.fired
	t.stopped = true
	return !fired
}
