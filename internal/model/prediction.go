package model

import "time"

// DateLayout is the canonical calendar date form used for target dates.
const DateLayout = "2006-01-02"

// Prediction is a user's claim that Symbol will reach TargetPrice by TargetDate.
// A Prediction is never mutated after parsing; new input yields a new value.
type Prediction struct {
	Symbol      string
	TargetPrice float64
	TargetDate  time.Time
}

// DateString returns the target date as YYYY-MM-DD.
func (p Prediction) DateString() string {
	return p.TargetDate.Format(DateLayout)
}

// Expired reports whether the target date lies strictly before the day of now.
func (p Prediction) Expired(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, p.TargetDate.Location())
	return p.TargetDate.Before(today)
}

// PredictionRecord is the persisted form of a Prediction, one per log line.
type PredictionRecord struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"target_price"`
	Date        string  `json:"date"`
}

// Record converts the prediction to its persisted form.
func (p Prediction) Record() PredictionRecord {
	return PredictionRecord{
		Symbol:      p.Symbol,
		TargetPrice: p.TargetPrice,
		Date:        p.DateString(),
	}
}
