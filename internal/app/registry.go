package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"PredictionTracker/internal/collector"
	"PredictionTracker/internal/model"
	"PredictionTracker/internal/recorder"
	"PredictionTracker/internal/tracker"
)

var (
	ErrSessionNotFound = errors.New("no tracking session with that id")
	ErrAmbiguousID     = errors.New("id prefix matches more than one session")
)

type entry struct {
	session *tracker.Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// Registry runs tracking sessions, one goroutine each, under a shared parent
// context. Cancelling the parent stops every session.
type Registry struct {
	parent context.Context
	source collector.PriceSource
	rec    recorder.Recorder
	policy tracker.Policy

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates a registry polling source. Every stored observation is
// passed to rec.
func NewRegistry(ctx context.Context, source collector.PriceSource, rec recorder.Recorder, policy tracker.Policy) *Registry {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Registry{
		parent:  ctx,
		source:  source,
		rec:     rec,
		policy:  policy,
		entries: make(map[string]*entry),
	}
}

// Start launches a session for pred under id and returns it.
func (r *Registry) Start(id string, pred model.Prediction, user string) *tracker.Session {
	sess := tracker.New(pred, r.source,
		tracker.WithID(id),
		tracker.WithUser(user),
		tracker.WithPolicy(r.policy),
		tracker.WithObserver(r.persist),
	)

	ctx, cancel := context.WithCancel(r.parent)
	e := &entry{session: sess, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()

	go func() {
		defer close(e.done)
		if err := sess.Run(ctx); err != nil {
			slog.Error("tracking session failed", slog.String("sessionID", id), slog.String("err", err.Error()))
		}
	}()
	return sess
}

func (r *Registry) persist(evt tracker.ObservationEvent) {
	err := r.rec.RecordObservation(&recorder.ObservationEvent{
		SessionID:    evt.SessionID,
		Symbol:       evt.Prediction.Symbol,
		Timestamp:    evt.Observation.Timestamp,
		Price:        evt.Observation.Price,
		DeviationPct: evt.DeviationPct,
	})
	if err != nil {
		slog.Error("record observation failed", slog.String("sessionID", evt.SessionID), slog.String("err", err.Error()))
	}
}

// Find returns the session whose id equals ref or, failing that, the single
// session whose id starts with ref.
func (r *Registry) Find(ref string) (*tracker.Session, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[ref]; ok {
		return e.session, nil
	}
	var found *tracker.Session
	for id, e := range r.entries {
		if !strings.HasPrefix(id, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%q: %w", ref, ErrAmbiguousID)
		}
		found = e.session
	}
	if found == nil {
		return nil, fmt.Errorf("%q: %w", ref, ErrSessionNotFound)
	}
	return found, nil
}

// Stop cancels the session matching ref, waits for its poll loop to exit and
// removes it.
func (r *Registry) Stop(ref string) (*tracker.Session, error) {
	sess, err := r.Find(ref)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	e, ok := r.entries[sess.ID()]
	delete(r.entries, sess.ID())
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", ref, ErrSessionNotFound)
	}

	e.cancel()
	<-e.done
	return sess, nil
}

// StopAll stops every session and waits for them to finish.
func (r *Registry) StopAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
	for _, e := range entries {
		<-e.done
	}
}

// Len returns the number of running sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshots returns the state of every session, oldest first.
func (r *Registry) Snapshots() []model.Snapshot {
	r.mu.RLock()
	sessions := make([]*tracker.Session, 0, len(r.entries))
	for _, e := range r.entries {
		sessions = append(sessions, e.session)
	}
	r.mu.RUnlock()

	snaps := make([]model.Snapshot, len(sessions))
	for i, s := range sessions {
		snaps[i] = s.Snapshot()
	}
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].StartedAt.Equal(snaps[j].StartedAt) {
			return snaps[i].StartedAt.Before(snaps[j].StartedAt)
		}
		return snaps[i].SessionID < snaps[j].SessionID
	})
	return snaps
}
