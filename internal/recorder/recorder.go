package recorder

import (
	"errors"
	"time"

	"PredictionTracker/internal/model"
)

// PredictionEvent records a successfully parsed prediction.
type PredictionEvent struct {
	SessionID  string
	User       string
	Prediction model.Prediction
	CreatedAt  time.Time
}

// ObservationEvent records one stored price observation.
type ObservationEvent struct {
	SessionID    string
	Symbol       string
	Timestamp    time.Time
	Price        float64
	DeviationPct float64
}

// Recorder persists predictions and observations. Records are only ever
// appended.
type Recorder interface {
	RecordPrediction(evt *PredictionEvent) error
	RecordObservation(evt *ObservationEvent) error
	Close() error
}

// Multi fans every record out to all recorders, joining their errors.
type Multi []Recorder

func (m Multi) RecordPrediction(evt *PredictionEvent) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordPrediction(evt))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordObservation(evt *ObservationEvent) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordObservation(evt))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
