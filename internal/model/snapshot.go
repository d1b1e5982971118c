package model

import "time"

// PollState is the poll scheduler's current mode.
type PollState string

const (
	PollNormal  PollState = "NORMAL"
	PollBackoff PollState = "BACKOFF"
)

// Snapshot is a consistent, read-only view of a tracking session.
// CurrentPrice and DeviationPct are nil until the first successful poll.
type Snapshot struct {
	SessionID    string
	User         string
	Symbol       string
	TargetPrice  float64
	TargetDate   time.Time
	CurrentPrice *float64
	DeviationPct *float64
	History      []Observation

	State     PollState
	Failures  int    // consecutive failed polls
	LastError string // most recent fetch failure, cleared on success
	High      float64
	Low       float64
	StartedAt time.Time
}

// HasPrice reports whether at least one observation has been recorded.
func (s *Snapshot) HasPrice() bool {
	return s.CurrentPrice != nil
}

// Prediction returns the tracked prediction.
func (s *Snapshot) Prediction() Prediction {
	return Prediction{Symbol: s.Symbol, TargetPrice: s.TargetPrice, TargetDate: s.TargetDate}
}
