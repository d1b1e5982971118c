package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"PredictionTracker/internal/model"
)

type fakeSessions []model.Snapshot

func (f fakeSessions) Snapshots() []model.Snapshot { return f }

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func snapshot(id, symbol string, target time.Time) model.Snapshot {
	return model.Snapshot{SessionID: id, Symbol: symbol, TargetPrice: 100, TargetDate: target, State: model.PollNormal}
}

func newTestScheduler(sessions fakeSessions) (*Scheduler, *fakeSender) {
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), sessions, sender)
	s.now = func() time.Time { return time.Date(2030, 2, 13, 9, 0, 0, 0, time.UTC) }
	return s, sender
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(nil)
	if err := s.RegisterAll("0 0 9 * * *", ""); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	if err := s.RegisterAll("not a cron", ""); err == nil {
		t.Error("invalid cron spec accepted")
	}
}

func TestDigestListsSessions(t *testing.T) {
	day := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	s, sender := newTestScheduler(fakeSessions{snapshot("a-1", "NVDA", day), snapshot("b-1", "AAPL", day)})
	s.RunDigestNow()

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	msg := sender.sent[0]
	if !strings.Contains(msg, "2030-02-13 09:00") || !strings.Contains(msg, "NVDA") || !strings.Contains(msg, "AAPL") {
		t.Errorf("digest:\n%s", msg)
	}
}

func TestExpiryReportsOnce(t *testing.T) {
	past := time.Date(2030, 2, 12, 0, 0, 0, 0, time.UTC)
	today := time.Date(2030, 2, 13, 0, 0, 0, 0, time.UTC)
	s, sender := newTestScheduler(fakeSessions{snapshot("a-1", "NVDA", past), snapshot("b-1", "AAPL", today)})

	s.expiryTask()
	s.expiryTask()

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0], "NVDA") || strings.Contains(sender.sent[0], "AAPL") {
		t.Errorf("expiry report:\n%s", sender.sent[0])
	}
}

func TestExpiryForgetsStoppedSessions(t *testing.T) {
	past := time.Date(2030, 2, 12, 0, 0, 0, 0, time.UTC)
	sessions := fakeSessions{snapshot("a-1", "NVDA", past), snapshot("b-1", "AAPL", past)}
	s, _ := newTestScheduler(sessions)

	s.expiryTask()
	if len(s.reported) != 2 {
		t.Fatalf("reported = %v", s.reported)
	}

	s.Sessions = sessions[1:]
	s.expiryTask()
	if len(s.reported) != 1 || !s.reported["b-1"] {
		t.Errorf("reported after stop = %v, want only b-1", s.reported)
	}

	s.Sessions = fakeSessions{}
	s.expiryTask()
	if len(s.reported) != 0 {
		t.Errorf("reported with no sessions = %v", s.reported)
	}
}

func TestExpiryNothingDue(t *testing.T) {
	future := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	s, sender := newTestScheduler(fakeSessions{snapshot("a-1", "NVDA", future)})
	s.expiryTask()
	if len(sender.sent) != 0 {
		t.Errorf("sent %v", sender.sent)
	}
}
