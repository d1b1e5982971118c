package recorder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"PredictionTracker/internal/model"
)

// PredictionLog appends one JSON object per parsed prediction to a file.
// Observations are not written to the log.
type PredictionLog struct {
	path string
	mu   sync.Mutex
}

// NewPredictionLog returns a log writing to path. The file is created on
// first write.
func NewPredictionLog(path string) *PredictionLog {
	return &PredictionLog{path: path}
}

func (l *PredictionLog) RecordPrediction(evt *PredictionEvent) error {
	line, err := json.Marshal(evt.Prediction.Record())
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open prediction log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append prediction: %w", err)
	}
	return f.Close()
}

func (l *PredictionLog) RecordObservation(_ *ObservationEvent) error { return nil }

func (l *PredictionLog) Close() error { return nil }

// ReadPredictionLog loads every record from the log at path. A missing file
// yields no records.
func ReadPredictionLog(path string) ([]model.PredictionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []model.PredictionRecord
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec model.PredictionRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("prediction log line %d: %w", n, err)
		}
		records = append(records, rec)
	}
	return records, sc.Err()
}
