package calculator

import "errors"

// DeviationPct returns how far price sits from target, in percent of target.
func DeviationPct(price, target float64) (float64, error) {
	if target <= 0 {
		return 0, errors.New("target must be positive")
	}
	return (price - target) / target * 100, nil
}

// Reached reports whether price has met or passed target.
func Reached(price, target float64) bool {
	return price >= target
}
