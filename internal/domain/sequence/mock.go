package sequence

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextFunc func(ctx context.Context, now time.Time) (Result, error)

	mu      sync.Mutex
	counter map[string]int
}

// Next implements Generator.
// Without a NextFunc override it behaves like the real generator against an
// in-memory per-day counter, which makes concurrency tests meaningful.
func (m *MockGenerator) Next(ctx context.Context, now time.Time) (Result, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, now)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counter == nil {
		m.counter = make(map[string]int)
	}
	prefix := DayPrefix(now)
	m.counter[prefix]++
	return Result{Number: Format(now, m.counter[prefix])}, nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
