package rtview

import (
	"math"
	"sync"
	"testing"
)

func TestTimingStartsUnavailable(t *testing.T) {
	tm := NewTiming()
	if !math.IsNaN(tm.Milliseconds()) {
		t.Errorf("Milliseconds() = %v, want NaN", tm.Milliseconds())
	}
	if tm.Available() {
		t.Error("Available() = true before any store")
	}
	if got := tm.String(); got != "not available" {
		t.Errorf("String() = %q", got)
	}
}

func TestTimingStore(t *testing.T) {
	tm := NewTiming()
	tm.store(1.25)
	if got := tm.Milliseconds(); got != 1.25 {
		t.Errorf("Milliseconds() = %v, want 1.25", got)
	}
	if !tm.Available() {
		t.Error("Available() = false after store")
	}
	if got := tm.String(); got != "1.250 ms" {
		t.Errorf("String() = %q, want %q", got, "1.250 ms")
	}

	tm.store(math.NaN())
	if tm.Available() {
		t.Error("Available() = true after storing NaN")
	}
}

func TestTimingConcurrent(t *testing.T) {
	tm := NewTiming()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				tm.store(v)
			}
		}(float64(i))
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				ms := tm.Milliseconds()
				if !math.IsNaN(ms) && (ms < 0 || ms > 3) {
					t.Errorf("torn read: %v", ms)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDurationMillis(t *testing.T) {
	tests := []struct {
		name       string
		begin, end uint64
		period     float64
		want       float64
	}{
		{"one ms at 1ns", 0, 1_000_000, 1, 1},
		{"period scaled", 100, 600, 2, 0.001},
		{"zero", 5, 5, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := durationMillis(tt.begin, tt.end, tt.period)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("durationMillis() = %v, want %v", got, tt.want)
			}
		})
	}
	if got := durationMillis(10, 5, 1); !math.IsNaN(got) {
		t.Errorf("backwards pair = %v, want NaN", got)
	}
}
