package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Repeater runs fn every d until the returned stop func is called.
// Implementations must not run two calls of the same fn concurrently.
type Repeater interface {
	Every(d time.Duration, fn func()) (stop func())
}

// IntervalRepeater is the production Repeater backed by time.Ticker.
// It keeps firing regardless of what the caller is doing, so periodic work
// like meter syncs continues while playback is paused or backgrounded.
type IntervalRepeater struct{}

func (IntervalRepeater) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// ManualRepeater is a Repeater for tests: nothing fires until Fire is called.
type ManualRepeater struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]manualJob
	starts int
}

type manualJob struct {
	every time.Duration
	fn    func()
}

func (m *ManualRepeater) Every(d time.Duration, fn func()) func() {
	m.mu.Lock()
	if m.jobs == nil {
		m.jobs = make(map[int]manualJob)
	}
	m.nextID++
	id := m.nextID
	m.jobs[id] = manualJob{every: d, fn: fn}
	m.starts++
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

// Fire runs every active job once, in registration order.
func (m *ManualRepeater) Fire() {
	m.mu.Lock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Ints(ids)
	for _, id := range ids {
		m.mu.Lock()
		job, ok := m.jobs[id]
		m.mu.Unlock()
		if ok {
			job.fn()
		}
	}
}

// Active reports how many jobs are currently scheduled.
func (m *ManualRepeater) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Starts reports how many times Every has been called.
func (m *ManualRepeater) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Interval returns the period of the most recently scheduled active job.
func (m *ManualRepeater) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	best, d := 0, time.Duration(0)
	for id, job := range m.jobs {
		if id > best {
			best, d = id, job.every
		}
	}
	return d
}
