package travelfee

import (
	"sync"
	"testing"
	"time"
)

func km(v float64) Result {
	return Result{DistanceKm: &v}
}

func TestSchedulerAppliesLatestOnly(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)

	var mu sync.Mutex
	var applied []float64
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, *res.DistanceKm)
	}

	// Three rapid triggers; only the last may fire.
	s.Schedule(func() Result { return km(1) }, record)
	s.Schedule(func() Result { return km(2) }, record)
	s.Schedule(func() Result { return km(3) }, record)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != 3 {
		t.Fatalf("expected only the latest result [3], got %v", applied)
	}
}

func TestSchedulerDiscardsStaleInFlightResult(t *testing.T) {
	s := NewScheduler(5 * time.Millisecond)

	var mu sync.Mutex
	var applied []float64
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, *res.DistanceKm)
	}

	slowStarted := make(chan struct{})
	release := make(chan struct{})

	s.Schedule(func() Result {
		close(slowStarted)
		<-release
		return km(1)
	}, record)

	// Wait for the first computation to be in flight, then supersede it.
	<-slowStarted
	s.Schedule(func() Result { return km(2) }, record)
	close(release)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != 2 {
		t.Fatalf("expected the in-flight result to be discarded, got %v", applied)
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)

	var mu sync.Mutex
	count := 0

	s.Schedule(func() Result { return km(1) }, func(Result) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	s.Cancel()

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("expected no application after cancel, got %d", count)
	}
}
