package usecase_test

import (
	"sync"
	"time"

	"github.com/cashclarity/ledgersync/internal/usecase"
)

// manualTimers is an AfterFunc whose timers only fire when the test says so.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	owner   *manualTimers
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) usecase.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{owner: m, delay: d, fn: f}
	m.timers = append(m.timers, t)

	return t
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	active := !t.stopped && !t.fired
	t.stopped = true

	return active
}

// Armed returns how many timers are waiting to fire.
func (m *manualTimers) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}

	return n
}

// Created returns how many timers were ever scheduled.
func (m *manualTimers) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.timers)
}

// LastDelay returns the delay of the most recent timer.
func (m *manualTimers) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.timers) == 0 {
		return 0
	}

	return m.timers[len(m.timers)-1].delay
}

// FireAll runs every armed timer on the calling goroutine and returns how
// many fired.
func (m *manualTimers) FireAll() int {
	m.mu.Lock()
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()

	for _, t := range due {
		t.fn()
	}

	return len(due)
}
