// Package tracker runs the per-prediction poll loop and keeps the live
// deviation of the observed price from the prediction target.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"PredictionTracker/internal/collector"
	"PredictionTracker/internal/model"
)

// Window is an inclusive range for a randomized delay.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Draw returns a delay drawn uniformly from the window.
func (w Window) Draw() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int63n(int64(w.Max-w.Min+1)))
}

// Policy holds the delay windows for the two scheduler states.
type Policy struct {
	Normal  Window
	Backoff Window
}

// DefaultPolicy polls every 10-15s and backs off 30-60s after a failure.
var DefaultPolicy = Policy{
	Normal:  Window{Min: 10 * time.Second, Max: 15 * time.Second},
	Backoff: Window{Min: 30 * time.Second, Max: 60 * time.Second},
}

// Validate checks that both windows are positive and ordered.
func (p Policy) Validate() error {
	for name, w := range map[string]Window{"normal": p.Normal, "backoff": p.Backoff} {
		if w.Min <= 0 {
			return fmt.Errorf("%s delay must be positive", name)
		}
		if w.Max < w.Min {
			return fmt.Errorf("%s delay max %s is below min %s", name, w.Max, w.Min)
		}
	}
	return nil
}

// Poller drives the fetch cadence for one symbol. It alternates between a
// Normal state after successful fetches and a Backoff state after failures.
type Poller struct {
	source collector.PriceSource
	symbol string
	policy Policy
	now    func() time.Time

	mu        sync.RWMutex
	state     model.PollState
	failures  int
	lastError string
}

// NewPoller creates a Poller in the Normal state.
func NewPoller(source collector.PriceSource, symbol string, policy Policy) *Poller {
	return &Poller{
		source: source,
		symbol: symbol,
		policy: policy,
		now:    time.Now,
		state:  model.PollNormal,
	}
}

// State returns the scheduler state, the consecutive failure count and the
// last failure message.
func (p *Poller) State() (model.PollState, int, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state, p.failures, p.lastError
}

// Run polls until ctx is cancelled, passing each successful observation to
// handle. Fetch failures never stop the loop. Run returns ctx.Err().
func (p *Poller) Run(ctx context.Context, handle func(model.Observation)) error {
	for {
		delay := p.poll(ctx, handle)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wait(ctx, delay); err != nil {
			return err
		}
		p.setState(model.PollNormal)
	}
}

// poll performs one fetch and returns the delay before the next attempt.
func (p *Poller) poll(ctx context.Context, handle func(model.Observation)) time.Duration {
	price, err := p.source.FetchPrice(ctx, p.symbol)
	if ctx.Err() != nil {
		// Cancelled mid-fetch: nothing is recorded.
		return 0
	}
	if err == nil && price <= 0 {
		err = fmt.Errorf("%s: non-positive price %v: %w", p.symbol, price, collector.ErrUnavailable)
	}

	if err != nil {
		delay := p.policy.Backoff.Draw()
		p.mu.Lock()
		p.state = model.PollBackoff
		p.failures++
		p.lastError = err.Error()
		failures := p.failures
		p.mu.Unlock()

		slog.Warn("price fetch failed, backing off",
			slog.String("symbol", p.symbol),
			slog.String("source", p.source.Name()),
			slog.String("err", err.Error()),
			slog.Int("failures", failures),
			slog.Duration("delay", delay),
		)
		return delay
	}

	p.mu.Lock()
	p.state = model.PollNormal
	p.failures = 0
	p.lastError = ""
	p.mu.Unlock()

	handle(model.Observation{Timestamp: p.now(), Price: price})
	return p.policy.Normal.Draw()
}

func (p *Poller) setState(s model.PollState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// wait sleeps for d or until ctx is done, whichever comes first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
