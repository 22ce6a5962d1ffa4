package scheduler

import (
	"sync"
	"time"
)

// Clock defines an interface for getting the current time.
// This allows us to inject a fake time during unit tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

// MockClock implements Clock for testing specific scenarios.
// Advance moves it forward; it is safe for concurrent use.
type MockClock struct {
	mu       sync.Mutex
	MockTime time.Time
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MockTime
}

func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.MockTime = m.MockTime.Add(d)
	m.mu.Unlock()
}
