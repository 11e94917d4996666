// Package schedule provides cancellable scheduled tasks.
//
// Simulations never touch time.Ticker or time.AfterFunc directly: they ask a
// Scheduler for a Task. Production code uses Real; tests use Manual and move
// a virtual clock forward so every tick runs synchronously in the test's
// goroutine.
package schedule

import (
	"sync"
	"time"
)

// Task is a scheduled callback that can be cancelled.
type Task interface {
	// Stop cancels the task. It reports whether the call stopped a task that
	// was still pending. Stop may be called from inside the task's own callback.
	Stop() bool
}

// Scheduler creates one-shot and periodic tasks.
type Scheduler interface {
	// After runs fn once, delay from now.
	After(delay time.Duration, fn func()) Task

	// Every runs fn each interval until the returned task is stopped.
	Every(interval time.Duration, fn func()) Task
}

// Real is a Scheduler backed by the runtime timers.
type Real struct{}

// After implements Scheduler
func (Real) After(delay time.Duration, fn func()) Task {
	return &timerTask{timer: time.AfterFunc(delay, fn)}
}

// Every implements Scheduler
func (Real) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.loop(fn)
	return t
}

type timerTask struct {
	timer *time.Timer
}

func (t *timerTask) Stop() bool {
	return t.timer.Stop()
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) loop(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// A tick can race with Stop; done wins.
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *tickerTask) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
