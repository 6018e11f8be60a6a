package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("cough|fever", "t=0.4")
	b := Key("cough|fever", "t=0.4")
	c := Key("cough|fever", "t=0.5")
	d := Key("cough", "t=0.4")

	if a != b {
		t.Error("expected identical inputs to give identical keys")
	}
	if a == c || a == d {
		t.Error("expected different policy or symptoms to change the key")
	}
	if len(a) != len("medimatch:v1:")+64 {
		t.Errorf("unexpected key length %d", len(a))
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if val, ok := c.Get("k"); !ok || string(val) != "v" {
		t.Errorf("expected hit with v, got %q %v", val, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	_ = c.Set("a", []byte("1"), 0)
	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Minute)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if val, ok := c.Get("k"); !ok || string(val) != "v" {
		t.Errorf("expected hit with v, got %q %v", val, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Errorf("delete: %v", err)
	}
	if err := c.Delete("k"); err != nil {
		t.Errorf("expected deleting a missing key to succeed, got %v", err)
	}

	_ = c.Set("old", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("old"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh process sees an empty memory layer but the same disk layer
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	if val, ok := second.Get("k"); !ok || string(val) != "v" {
		t.Fatalf("expected disk hit, got %q %v", val, ok)
	}
	if val, ok := second.memory.Get("k"); !ok || string(val) != "v" {
		t.Error("expected disk hit promoted to memory")
	}

	_ = second.Clear()
	if _, ok := second.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}
