package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"PredictionTracker/internal/calculator"
	"PredictionTracker/internal/collector"
	"PredictionTracker/internal/history"
	"PredictionTracker/internal/model"
)

// ObservationEvent is delivered to observers after each stored observation.
type ObservationEvent struct {
	SessionID    string
	Prediction   model.Prediction
	Observation  model.Observation
	DeviationPct float64
}

// Observer is notified from the poll loop; it must not block for long.
type Observer func(evt ObservationEvent)

// Option customizes a Session.
type Option func(*Session)

// WithID sets the opaque session identifier.
func WithID(id string) Option { return func(s *Session) { s.id = id } }

// WithUser records who submitted the prediction.
func WithUser(user string) Option { return func(s *Session) { s.user = user } }

// WithPolicy overrides the poll delay windows.
func WithPolicy(p Policy) Option { return func(s *Session) { s.policy = p } }

// WithObserver registers fn to receive every stored observation.
func WithObserver(fn Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// WithClock overrides the time source used for observation timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// Session tracks one prediction. It owns the prediction, a bounded history
// and the poller feeding it; sessions share no mutable state.
type Session struct {
	id         string
	user       string
	prediction model.Prediction
	policy     Policy
	now        func() time.Time
	observers  []Observer

	history   *history.Buffer
	poller    *Poller
	startedAt time.Time

	mu        sync.RWMutex
	latest    *float64
	deviation *float64
}

// New creates a session for pred polling source. The session does nothing
// until Run is called.
func New(pred model.Prediction, source collector.PriceSource, opts ...Option) *Session {
	s := &Session{
		prediction: pred,
		policy:     DefaultPolicy,
		now:        time.Now,
		history:    history.New(history.MaxHistory),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.poller = NewPoller(source, pred.Symbol, s.policy)
	s.poller.now = s.now
	s.startedAt = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// User returns who submitted the prediction.
func (s *Session) User() string { return s.user }

// Prediction returns the immutable prediction being tracked.
func (s *Session) Prediction() model.Prediction { return s.prediction }

// Run polls until ctx is cancelled. Cancellation is the only way a session
// ends, so Run returns nil for it.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("tracking session started",
		slog.String("sessionID", s.id),
		slog.String("symbol", s.prediction.Symbol),
		slog.Float64("targetPrice", s.prediction.TargetPrice),
		slog.String("targetDate", s.prediction.DateString()),
	)

	err := s.poller.Run(ctx, s.record)

	slog.Info("tracking session stopped", slog.String("sessionID", s.id), slog.String("symbol", s.prediction.Symbol))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// record appends obs and recomputes the deviation.
func (s *Session) record(obs model.Observation) {
	dev, err := calculator.DeviationPct(obs.Price, s.prediction.TargetPrice)
	if err != nil {
		slog.Error("deviation calculation failed", slog.String("sessionID", s.id), slog.String("err", err.Error()))
		return
	}

	s.mu.Lock()
	if !s.history.Append(obs) {
		s.mu.Unlock()
		return
	}
	price := obs.Price
	s.latest = &price
	s.deviation = &dev
	s.mu.Unlock()

	slog.Debug("observation stored",
		slog.String("sessionID", s.id),
		slog.String("symbol", s.prediction.Symbol),
		slog.Float64("price", price),
		slog.Float64("deviationPct", dev),
	)

	evt := ObservationEvent{SessionID: s.id, Prediction: s.prediction, Observation: obs, DeviationPct: dev}
	for _, fn := range s.observers {
		fn(evt)
	}
}

// Deviation returns the latest deviation from target in percent, or false
// before the first successful poll.
func (s *Session) Deviation() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deviation == nil {
		return 0, false
	}
	return *s.deviation, true
}

// Snapshot returns a consistent copy of the session state. It never blocks
// on an in-flight fetch.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.RLock()
	hist := s.history.Snapshot()
	var price, dev *float64
	if s.latest != nil {
		p, d := *s.latest, *s.deviation
		price, dev = &p, &d
	}
	s.mu.RUnlock()

	state, failures, lastErr := s.poller.State()
	snap := model.Snapshot{
		SessionID:    s.id,
		User:         s.user,
		Symbol:       s.prediction.Symbol,
		TargetPrice:  s.prediction.TargetPrice,
		TargetDate:   s.prediction.TargetDate,
		CurrentPrice: price,
		DeviationPct: dev,
		History:      hist,
		State:        state,
		Failures:     failures,
		LastError:    lastErr,
		StartedAt:    s.startedAt,
	}
	if high, low, err := calculator.PriceRange(hist); err == nil {
		snap.High, snap.Low = high, low
	}
	return snap
}
