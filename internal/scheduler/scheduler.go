package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"PredictionTracker/internal/model"
	"PredictionTracker/internal/notifier"
)

// SessionLister exposes the running tracking sessions.
type SessionLister interface {
	Snapshots() []model.Snapshot
}

// Sender delivers a report to the configured chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the periodic report jobs.
type Scheduler struct {
	Cron     *cron.Cron
	Sessions SessionLister
	Notifier Sender
	Ctx      context.Context

	view notifier.HTMLPresenter
	now  func() time.Time

	mu       sync.Mutex
	reported map[string]bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sessions SessionLister, sender Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Sessions: sessions,
		Notifier: sender,
		Ctx:      ctx,
		now:      time.Now,
		reported: make(map[string]bool),
	}
}

// RegisterAll registers the digest and expiry jobs. An empty spec disables
// the job.
func (s *Scheduler) RegisterAll(digestCron, expiryCron string) error {
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	if expiryCron != "" {
		if _, err := s.Cron.AddFunc(expiryCron, s.expiryTask); err != nil {
			return fmt.Errorf("register expiry task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	slog.Info("scheduler started", slog.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunDigestNow sends the digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) digestTask() {
	snaps := s.Sessions.Snapshots()
	slog.Info("running digest task", slog.Int("sessions", len(snaps)))
	s.trySend(s.view.Digest(snaps, s.now()))
}

// expiryTask reports sessions whose target date has passed. Each session is
// reported once and keeps running.
func (s *Scheduler) expiryTask() {
	now := s.now()
	var expired []model.Snapshot

	snaps := s.Sessions.Snapshots()
	live := make(map[string]bool, len(snaps))

	s.mu.Lock()
	for _, snap := range snaps {
		live[snap.SessionID] = true
		if s.reported[snap.SessionID] || !snap.Prediction().Expired(now) {
			continue
		}
		s.reported[snap.SessionID] = true
		expired = append(expired, snap)
	}
	// Stopped sessions are forgotten.
	for id := range s.reported {
		if !live[id] {
			delete(s.reported, id)
		}
	}
	s.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	slog.Info("target dates passed", slog.Int("sessions", len(expired)))
	s.trySend(s.view.Expired(expired))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		slog.Error("send notification failed", slog.String("err", err.Error()))
	}
}
