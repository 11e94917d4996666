package schedule

import (
	"sync"
	"time"
)

// Manual is a Scheduler driven by a virtual clock. Nothing fires until the
// owner calls Advance or Next; callbacks run in the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m        *Manual
	seq      int
	due      time.Time
	interval time.Duration
	fn       func()
	stopped  bool
}

// NewManual creates a Manual scheduler whose clock starts at the Unix epoch.
func NewManual() *Manual {
	return &Manual{now: time.Unix(0, 0)}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After implements Scheduler
func (m *Manual) After(delay time.Duration, fn func()) Task {
	return m.add(delay, 0, fn)
}

// Every implements Scheduler
func (m *Manual) Every(interval time.Duration, fn func()) Task {
	return m.add(interval, interval, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{
		m:        m,
		seq:      m.seq,
		due:      m.now.Add(delay),
		interval: interval,
		fn:       fn,
	}
	m.tasks = append(m.tasks, t)
	return t
}

// Pending returns the number of tasks that have not been stopped or fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, firing every task that comes due in
// order of due time. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	fired := 0
	for {
		fn, ok := m.popDue(target)
		if !ok {
			break
		}
		fn()
		fired++
	}

	m.mu.Lock()
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
	return fired
}

// Next jumps the clock to the earliest pending task and fires it. It
// reports false when nothing is scheduled.
func (m *Manual) Next() bool {
	m.mu.Lock()
	t := m.earliest()
	if t == nil {
		m.mu.Unlock()
		return false
	}
	due := t.due
	m.mu.Unlock()

	fn, ok := m.popDue(due)
	if !ok {
		return false
	}
	fn()
	return true
}

// RunUntilIdle fires tasks until none remain or limit callbacks have run.
// Periodic tasks keep the scheduler busy until they stop themselves.
func (m *Manual) RunUntilIdle(limit int) int {
	fired := 0
	for fired < limit && m.Next() {
		fired++
	}
	return fired
}

// popDue removes or reschedules the earliest task due at or before target
// and returns its callback.
func (m *Manual) popDue(target time.Time) (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.earliest()
	if t == nil || t.due.After(target) {
		return nil, false
	}

	m.now = t.due
	if t.interval > 0 {
		t.due = t.due.Add(t.interval)
	} else {
		m.remove(t)
	}
	return t.fn, true
}

func (m *Manual) earliest() *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) remove(target *manualTask) {
	for i, t := range m.tasks {
		if t == target {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	for _, other := range t.m.tasks {
		if other == t {
			t.m.remove(t)
			return true
		}
	}
	return false
}
