package gateway

import (
	"testing"
	"time"
)

func TestCacheKeyNormalization(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []string
		equal bool
	}{
		{
			name:  "whitespace and case insensitive",
			a:     []string{"Grade   This Answer", "question ONE"},
			b:     []string{"grade this answer", "question one"},
			equal: true,
		},
		{
			name:  "swapped roles differ",
			a:     []string{"alpha", "beta"},
			b:     []string{"beta", "alpha"},
			equal: false,
		},
		{
			name:  "different content differs",
			a:     []string{"alpha"},
			b:     []string{"gamma"},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := CacheKey("llama3", 0.2, 42, tt.a...)
			kb := CacheKey("llama3", 0.2, 42, tt.b...)
			if (ka == kb) != tt.equal {
				t.Errorf("key equality = %v, want %v", ka == kb, tt.equal)
			}
		})
	}
}

func TestCacheKeyKeepsPromptRolesPositional(t *testing.T) {
	a := CacheKey("llama3", 0.2, 42, "you are a strict grader", "grade answer one")
	b := CacheKey("llama3", 0.2, 42, "grade answer one", "you are a strict grader")
	if a == b {
		t.Error("swapping system and user prompts must change the key")
	}
}

func TestCacheKeyIncludesParameters(t *testing.T) {
	base := CacheKey("llama3", 0.2, 42, "prompt")
	if CacheKey("llama3", 0.7, 42, "prompt") == base {
		t.Error("temperature must affect the key")
	}
	if CacheKey("llama3", 0.2, 7, "prompt") == base {
		t.Error("seed must affect the key")
	}
	if CacheKey("qwen2.5", 0.2, 42, "prompt") == base {
		t.Error("model must affect the key")
	}
}

func TestResponseCachePutGet(t *testing.T) {
	c := NewResponseCache(10, time.Minute)
	c.Put("k", "v")

	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should miss")
	}
}

func TestResponseCacheTTLExpiry(t *testing.T) {
	c := NewResponseCache(10, 10*time.Millisecond)
	c.Put("k", "v")

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
}

func TestResponseCacheCapacityEvictsOldest(t *testing.T) {
	c := NewResponseCache(2, time.Minute)

	c.Put("first", "1")
	time.Sleep(2 * time.Millisecond)
	c.Put("second", "2")
	time.Sleep(2 * time.Millisecond)
	c.Put("third", "3")

	if _, ok := c.Get("first"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("second"); !ok {
		t.Error("second entry should survive")
	}
	if _, ok := c.Get("third"); !ok {
		t.Error("newest entry should survive")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestResponseCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewResponseCache(2, time.Minute)
	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("a", "updated")

	if v, _ := c.Get("a"); v != "updated" {
		t.Errorf("a = %q, want updated", v)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should not be evicted by an overwrite")
	}
}
