package busy

import (
	"sync"
	"testing"
)

func TestTracker_Nesting(t *testing.T) {
	var tr Tracker
	if tr.Busy() {
		t.Fatal("zero tracker should be idle")
	}

	endA := tr.Begin()
	endB := tr.Begin()
	if !tr.Busy() || tr.Count() != 2 {
		t.Fatalf("count = %d", tr.Count())
	}

	endA()
	if !tr.Busy() {
		t.Fatal("tracker went idle while B still running")
	}
	endA()
	if tr.Count() != 1 {
		t.Fatalf("double end changed count to %d", tr.Count())
	}

	endB()
	if tr.Busy() {
		t.Fatal("tracker should be idle")
	}
}

func TestTracker_Concurrent(t *testing.T) {
	var tr Tracker
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			end := tr.Begin()
			end()
		}()
	}
	wg.Wait()
	if tr.Count() != 0 {
		t.Fatalf("count = %d after all operations ended", tr.Count())
	}
}

func TestTracker_TryBegin(t *testing.T) {
	var tr Tracker
	end, ok := tr.TryBegin()
	if !ok || tr.Count() != 1 {
		t.Fatalf("first TryBegin ok=%v count=%d", ok, tr.Count())
	}
	if _, ok := tr.TryBegin(); ok {
		t.Fatal("TryBegin succeeded while busy")
	}
	end()
	if _, ok := tr.TryBegin(); !ok {
		t.Fatal("TryBegin failed after the operation ended")
	}
}

func TestTracker_TryBeginRace(t *testing.T) {
	var tr Tracker
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := tr.TryBegin(); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	if wins != 1 {
		t.Fatalf("%d goroutines started an operation, want 1", wins)
	}
}
