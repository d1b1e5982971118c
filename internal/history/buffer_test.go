package history

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"PredictionTracker/internal/model"
)

var base = time.Date(2030, 2, 13, 9, 30, 0, 0, time.UTC)

func obsAt(i int) model.Observation {
	return model.Observation{Timestamp: base.Add(time.Duration(i) * time.Second), Price: float64(100 + i)}
}

func TestAppend_EvictsOldest(t *testing.T) {
	b := New(MaxHistory)
	for i := 0; i < MaxHistory+1; i++ {
		b.Append(obsAt(i))
	}

	snap := b.Snapshot()
	if len(snap) != MaxHistory {
		t.Fatalf("len(snapshot) = %d, want %d", len(snap), MaxHistory)
	}
	if snap[0] != obsAt(1) {
		t.Errorf("oldest = %+v, want %+v", snap[0], obsAt(1))
	}
	if snap[len(snap)-1] != obsAt(MaxHistory) {
		t.Errorf("newest = %+v, want %+v", snap[len(snap)-1], obsAt(MaxHistory))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp.Before(snap[i-1].Timestamp) {
			t.Fatalf("snapshot out of order at %d", i)
		}
	}
}

func TestAppend_NeverExceedsBound(t *testing.T) {
	b := New(MaxHistory)
	for i := 0; i < 3*MaxHistory+7; i++ {
		b.Append(obsAt(i))
		if b.Len() > MaxHistory {
			t.Fatalf("len = %d after %d appends", b.Len(), i+1)
		}
	}
	snap := b.Snapshot()
	if snap[0] != obsAt(2*MaxHistory+7) {
		t.Errorf("oldest = %+v, want %+v", snap[0], obsAt(2*MaxHistory+7))
	}
}

func TestAppend_DropsAbsentPrice(t *testing.T) {
	b := New(4)
	if b.Append(model.Observation{Timestamp: base, Price: 0}) {
		t.Error("zero price should be rejected")
	}
	if b.Append(model.Observation{Timestamp: base, Price: -3}) {
		t.Error("negative price should be rejected")
	}
	if b.Len() != 0 {
		t.Errorf("len = %d, want 0", b.Len())
	}
}

func TestAppend_ClampsEarlierTimestamp(t *testing.T) {
	b := New(4)
	b.Append(obsAt(5))
	b.Append(model.Observation{Timestamp: base, Price: 1})

	snap := b.Snapshot()
	if !snap[1].Timestamp.Equal(obsAt(5).Timestamp) {
		t.Errorf("timestamp = %v, want clamped to %v", snap[1].Timestamp, obsAt(5).Timestamp)
	}
}

func TestSnapshot_Idempotent(t *testing.T) {
	b := New(8)
	for i := 0; i < 5; i++ {
		b.Append(obsAt(i))
	}
	first := b.Snapshot()
	second := b.Snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("snapshots differ: %v vs %v", first, second)
	}

	// Mutating a snapshot must not leak into the buffer.
	first[0].Price = -1
	if b.Snapshot()[0].Price != obsAt(0).Price {
		t.Error("snapshot shares storage with buffer")
	}
}

func TestLatest(t *testing.T) {
	b := New(2)
	if _, ok := b.Latest(); ok {
		t.Error("Latest on empty buffer should report false")
	}
	b.Append(obsAt(0))
	b.Append(obsAt(1))
	b.Append(obsAt(2))
	got, ok := b.Latest()
	if !ok || got != obsAt(2) {
		t.Errorf("Latest = %+v, %v; want %+v", got, ok, obsAt(2))
	}
}

func TestNew_DefaultCapacity(t *testing.T) {
	if c := New(0).Cap(); c != MaxHistory {
		t.Errorf("Cap = %d, want %d", c, MaxHistory)
	}
}

func TestConcurrentAppendSnapshot(t *testing.T) {
	b := New(MaxHistory)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Append(obsAt(i))
		}
	}()
	for i := 0; i < 200; i++ {
		snap := b.Snapshot()
		if len(snap) > MaxHistory {
			t.Fatalf("len(snapshot) = %d", len(snap))
		}
		for j := 1; j < len(snap); j++ {
			if snap[j].Timestamp.Before(snap[j-1].Timestamp) {
				t.Fatalf("snapshot out of order at %d", j)
			}
		}
	}
	wg.Wait()
}
