package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string](0)

	c.Set("org.mpris.MediaPlayer2.mpd", "Music Player Daemon")

	value, ok := c.Get("org.mpris.MediaPlayer2.mpd")
	if !ok {
		t.Fatal("expected cached value")
	}
	if value != "Music Player Daemon" {
		t.Errorf("value = %q, want %q", value, "Music Player Daemon")
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New[int](0)

	value, ok := c.Get("absent")
	if ok {
		t.Error("missing key should not be found")
	}
	if value != 0 {
		t.Errorf("missing key should return zero value, got %d", value)
	}
}

func TestNoExpirationWithZeroTTL(t *testing.T) {
	c := New[string](0)
	c.Set("key", "value")

	// Entrée sans TTL: toujours présente
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("key"); !ok {
		t.Error("entry with ttl=0 should never expire")
	}
}

func TestExpiration(t *testing.T) {
	c := New[string](5 * time.Millisecond)
	c.Set("key", "value")

	if _, ok := c.Get("key"); !ok {
		t.Fatal("fresh entry should be present")
	}

	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("key"); ok {
		t.Error("entry should have expired")
	}
}

func TestGetOrCompute(t *testing.T) {
	c := New[string](0)
	calls := 0

	value, ok := c.GetOrCompute("key", func() (string, bool) {
		calls++
		return "computed", true
	})
	if !ok || value != "computed" {
		t.Fatalf("GetOrCompute = (%q, %v), want (computed, true)", value, ok)
	}

	// Second call must hit the cache
	value, ok = c.GetOrCompute("key", func() (string, bool) {
		calls++
		return "recomputed", true
	})
	if !ok || value != "computed" {
		t.Errorf("GetOrCompute = (%q, %v), want cached (computed, true)", value, ok)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrComputeNotCacheable(t *testing.T) {
	c := New[string](0)
	calls := 0

	compute := func() (string, bool) {
		calls++
		return "", false
	}

	if _, ok := c.GetOrCompute("key", compute); ok {
		t.Error("compute returning false should propagate not-found")
	}
	// Un résultat non cachable doit être recalculé
	c.GetOrCompute("key", compute)
	if calls != 2 {
		t.Errorf("compute ran %d times, want 2", calls)
	}
}

func TestDelete(t *testing.T) {
	c := New[string](0)
	c.Set("key", "value")
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("deleted entry should not be found")
	}

	// Deleting an absent key must not panic
	c.Delete("absent")
}

func TestClear(t *testing.T) {
	c := New[int](0)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
}

func TestCleanExpired(t *testing.T) {
	c := New[string](5 * time.Millisecond)
	c.Set("old", "value")

	time.Sleep(10 * time.Millisecond)
	c.Set("fresh", "value")
	// Set avec TTL renouvelle l'échéance, seul "old" doit partir
	c.CleanExpired()

	if c.Len() != 1 {
		t.Errorf("Len() = %d after CleanExpired, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry should survive CleanExpired")
	}
}
