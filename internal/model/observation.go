package model

import "time"

// Observation is a single successful price read.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}
