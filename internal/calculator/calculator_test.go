package calculator

import (
	"math"
	"testing"
	"time"

	"PredictionTracker/internal/model"
)

func TestDeviationPct(t *testing.T) {
	cases := []struct {
		price, target, want float64
	}{
		{150, 145, 3.4482758620689653},
		{145, 145, 0},
		{100, 200, -50},
	}
	for _, c := range cases {
		got, err := DeviationPct(c.price, c.target)
		if err != nil {
			t.Fatalf("DeviationPct(%v, %v): %v", c.price, c.target, err)
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("DeviationPct(%v, %v) = %v, want %v", c.price, c.target, got, c.want)
		}
	}
}

func TestDeviationPct_ZeroTarget(t *testing.T) {
	if _, err := DeviationPct(10, 0); err == nil {
		t.Error("expected error for zero target")
	}
}

func TestReached(t *testing.T) {
	if !Reached(145, 145) {
		t.Error("price equal to target should count as reached")
	}
	if Reached(144.99, 145) {
		t.Error("price below target should not count as reached")
	}
}

func TestPriceRange(t *testing.T) {
	now := time.Now()
	obs := []model.Observation{
		{Timestamp: now, Price: 101},
		{Timestamp: now.Add(time.Second), Price: 99.5},
		{Timestamp: now.Add(2 * time.Second), Price: 103.25},
	}
	high, low, err := PriceRange(obs)
	if err != nil {
		t.Fatalf("PriceRange: %v", err)
	}
	if high != 103.25 || low != 99.5 {
		t.Errorf("PriceRange = (%v, %v), want (103.25, 99.5)", high, low)
	}

	if _, _, err := PriceRange(nil); err == nil {
		t.Error("expected error for empty history")
	}
}

func TestRangePosition(t *testing.T) {
	pos, err := RangePosition(105, 110, 100)
	if err != nil {
		t.Fatalf("RangePosition: %v", err)
	}
	if pos != 0.5 {
		t.Errorf("RangePosition = %v, want 0.5", pos)
	}
	if pos, _ := RangePosition(120, 110, 100); pos != 1 {
		t.Errorf("RangePosition above high = %v, want 1", pos)
	}
	if _, err := RangePosition(1, 1, 2); err == nil {
		t.Error("expected error when high < low")
	}
}
