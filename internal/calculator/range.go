package calculator

import (
	"errors"
	"math"

	"PredictionTracker/internal/model"
)

// PriceRange scans the observations and returns the high and low.
func PriceRange(history []model.Observation) (high, low float64, err error) {
	if len(history) == 0 {
		return 0, 0, errors.New("no observations provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, o := range history {
		if o.Price > high {
			high = o.Price
		}
		if o.Price < low {
			low = o.Price
		}
	}
	return high, low, nil
}

// RangePosition returns where price sits within [low, high] (0.0~1.0).
func RangePosition(price, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
