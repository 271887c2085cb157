package cache_test

import (
	"math"
	"testing"
	"time"

	"github.com/srvdns/srvdns-go/cache"
)

func TestTTLCacheGetSet(t *testing.T) {
	now := time.Unix(0, 0)
	later := now.Add(time.Minute)

	c := cache.New[string, int](3)
	if c.Len() != 0 || c.Capacity() != 3 {
		t.Fatalf("c.Len() = %d, c.Capacity() = %d, want 0, 3", c.Len(), c.Capacity())
	}

	c.Set("a", 1, later)
	if v, ok := c.Get("a", now); v != 1 || !ok {
		t.Errorf(`c.Get("a") = %d, %v, want 1, true`, v, ok)
	}
	if _, ok := c.Get("b", now); ok {
		t.Error(`c.Get("b") = _, true, want false`)
	}

	c.Set("a", 2, later)
	if v, ok := c.Get("a", now); v != 2 || !ok {
		t.Errorf(`c.Get("a") = %d, %v, want 2, true`, v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("c.Len() = %d, want 1", c.Len())
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Unix(0, 0)

	c := cache.New[string, int](3)
	c.Set("a", 1, now.Add(time.Minute))

	if _, ok := c.Get("a", now.Add(time.Minute)); ok {
		t.Error("entry at its expiration time should be a miss")
	}
	if c.Len() != 0 {
		t.Errorf("c.Len() = %d after expired Get, want 0", c.Len())
	}
}

func TestTTLCacheEviction(t *testing.T) {
	now := time.Unix(0, 0)
	later := now.Add(time.Minute)

	c := cache.New[string, int](2)
	c.Set("a", 1, later)
	c.Set("b", 2, later)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a", now); !ok {
		t.Fatal(`c.Get("a") = _, false, want true`)
	}

	c.Set("c", 3, later)
	if _, ok := c.Get("b", now); ok {
		t.Error(`"b" should have been evicted`)
	}
	if _, ok := c.Get("a", now); !ok {
		t.Error(`"a" should have survived eviction`)
	}
	if _, ok := c.Get("c", now); !ok {
		t.Error(`"c" should be present`)
	}
}

func TestTTLCacheRemoveClear(t *testing.T) {
	now := time.Unix(0, 0)
	later := now.Add(time.Minute)

	c := cache.New[string, int](0)
	if c.Capacity() != math.MaxInt {
		t.Errorf("c.Capacity() = %d, want math.MaxInt", c.Capacity())
	}

	c.Set("a", 1, later)
	c.Set("b", 2, later)
	if !c.Remove("a") {
		t.Error(`c.Remove("a") = false, want true`)
	}
	if c.Remove("a") {
		t.Error(`second c.Remove("a") = true, want false`)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("c.Len() = %d after Clear, want 0", c.Len())
	}
	if _, ok := c.Get("b", now); ok {
		t.Error(`c.Get("b") = _, true after Clear, want false`)
	}
}
