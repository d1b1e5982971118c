// Package history keeps a bounded, time-ordered window of price observations.
package history

import (
	"sync"

	"PredictionTracker/internal/model"
)

// MaxHistory is the number of observations retained per session.
const MaxHistory = 60

// Buffer is a fixed-capacity ring of observations. The oldest entry is
// evicted once the capacity is exceeded. Append and Snapshot may be called
// from different goroutines.
type Buffer struct {
	mu    sync.RWMutex
	items []model.Observation
	start int // index of the oldest entry
	size  int
}

// New creates an empty buffer holding at most capacity observations.
// A non-positive capacity falls back to MaxHistory.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = MaxHistory
	}
	return &Buffer{items: make([]model.Observation, capacity)}
}

// Append stores obs, evicting the oldest entry when full. Observations
// without a positive price are dropped and Append returns false. A timestamp
// earlier than the newest stored one is clamped to keep the window ordered.
func (b *Buffer) Append(obs model.Observation) bool {
	if obs.Price <= 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size > 0 {
		last := b.items[(b.start+b.size-1)%len(b.items)]
		if obs.Timestamp.Before(last.Timestamp) {
			obs.Timestamp = last.Timestamp
		}
	}

	if b.size < len(b.items) {
		b.items[(b.start+b.size)%len(b.items)] = obs
		b.size++
		return true
	}
	b.items[b.start] = obs
	b.start = (b.start + 1) % len(b.items)
	return true
}

// Snapshot returns a copy of the stored observations, oldest first.
func (b *Buffer) Snapshot() []model.Observation {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Observation, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.start+i)%len(b.items)]
	}
	return out
}

// Latest returns the newest observation, if any.
func (b *Buffer) Latest() (model.Observation, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return model.Observation{}, false
	}
	return b.items[(b.start+b.size-1)%len(b.items)], true
}

// Len returns the number of stored observations.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.items)
}
