package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestGetOrCreateCachesSuccess(t *testing.T) {
	c := New[string, int](4)
	calls := 0
	create := func() (int, error) { calls++; return 42, nil }

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCreate("a", create)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCreate() = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("stats = %+v, want 2 hits 1 miss", s)
	}
	if got := s.HitRate(); got < 0.66 || got > 0.67 {
		t.Errorf("HitRate() = %v", got)
	}
}

func TestGetOrCreateDoesNotCacheErrors(t *testing.T) {
	c := New[string, int](4)
	errBoom := errors.New("boom")
	if _, err := c.GetOrCreate("a", func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want errBoom", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed create, want 0", c.Len())
	}
	v, err := c.GetOrCreate("a", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("retry = %d, %v; want 7, nil", v, err)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, string](2)
	c.Set(1, "one")
	c.Set(2, "two")
	if _, ok := c.Get(1); !ok {
		t.Fatal("Get(1) missing")
	}
	c.Set(3, "three")

	if _, ok := c.Get(2); ok {
		t.Error("entry 2 should have been evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("entry 1 was used recently and should remain")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("entry 3 missing")
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 2 || s.Capacity != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestSetUpdatesInPlace(t *testing.T) {
	c := New[int, string](2)
	c.Set(1, "a")
	c.Set(1, "b")
	if v, _ := c.Get(1); v != "b" || c.Len() != 1 {
		t.Errorf("Get(1) = %q, Len = %d", v, c.Len())
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[int, int](0)
	if c.Stats().Capacity != 1 {
		t.Errorf("capacity = %d, want limit raised to 1", c.Stats().Capacity)
	}
	c.Set(1, 1)
	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete should report presence exactly once")
	}
	c.Set(2, 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear", c.Len())
	}
	c.Set(3, 3)
	if v, ok := c.Get(3); !ok || v != 3 {
		t.Error("cache unusable after Clear")
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	c := New[int, int](8)
	var mu sync.Mutex
	calls := map[int]int{}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 4; k++ {
				_, _ = c.GetOrCreate(k, func() (int, error) {
					mu.Lock()
					calls[k]++
					mu.Unlock()
					return k * k, nil
				})
			}
		}()
	}
	wg.Wait()
	for k := 0; k < 4; k++ {
		if calls[k] != 1 {
			t.Errorf("key %d created %d times, want 1", k, calls[k])
		}
	}
}
