package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockStep is one scripted poll outcome. A zero Price with nil Err is
// reported as ErrUnavailable.
type MockStep struct {
	Price float64
	Err   error
}

// MockSource returns controllable prices for development and testing.
// Scripted steps are consumed in order; once exhausted, Price is returned.
type MockSource struct {
	Price float64

	mu    sync.Mutex
	steps []MockStep
	calls int
}

// NewMockSource creates a MockSource that replays steps before settling on
// the fixed price.
func NewMockSource(price float64, steps ...MockStep) *MockSource {
	return &MockSource{Price: price, steps: steps}
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	step := MockStep{Price: m.Price}
	if len(m.steps) > 0 {
		step = m.steps[0]
		m.steps = m.steps[1:]
	}
	if step.Err != nil {
		return 0, step.Err
	}
	if step.Price <= 0 {
		return 0, fmt.Errorf("mock %s: %w", symbol, ErrUnavailable)
	}
	return step.Price, nil
}

// Calls returns how many fetches have been served.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// StaticResolver resolves queries from a fixed, case-insensitive table.
// Queries absent from the table resolve to themselves when Passthrough is set.
type StaticResolver struct {
	Symbols     map[string]string
	Passthrough bool
}

func (r *StaticResolver) ResolveSymbol(_ context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	for k, v := range r.Symbols {
		if strings.ToLower(k) == key {
			return strings.ToUpper(v), nil
		}
	}
	if r.Passthrough && key != "" {
		return strings.ToUpper(key), nil
	}
	return "", fmt.Errorf("%q: %w", query, ErrNotFound)
}
