package avatar

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("hello world")
	k2 := CacheKey("hello world")
	k3 := CacheKey("hello world!")

	if k1 != k2 {
		t.Errorf("same text produced different keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Errorf("different texts produced the same key: %s", k1)
	}
	if !strings.HasPrefix(k1, CacheKeyVersion+"_") {
		t.Errorf("key %s missing version prefix", k1)
	}
}

func TestCacheGetSet(t *testing.T) {
	c := NewAudioCache(4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache reported a hit")
	}

	entry := &CacheEntry{
		Key:        CacheKey("hello"),
		Chunks:     [][]byte{{1, 2}, {3, 4}},
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	}
	c.Set(entry)

	got, ok := c.Get(entry.Key)
	if !ok {
		t.Fatal("stored entry not found")
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got.Chunks))
	}
	if got.CreatedAt.IsZero() {
		t.Error("Set did not stamp CreatedAt")
	}
}

func TestCacheResetUpdatesEntry(t *testing.T) {
	c := NewAudioCache(4, time.Minute)
	key := CacheKey("repeat")

	c.Set(&CacheEntry{Key: key, Chunks: [][]byte{{1}}})
	c.Set(&CacheEntry{Key: key, Chunks: [][]byte{{9}, {9}}})

	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1 after re-set", c.Len())
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("entry not found after re-set")
	}
	if len(got.Chunks) != 2 || got.Chunks[0][0] != 9 {
		t.Fatalf("re-set did not replace payload: %v", got.Chunks)
	}
}

func TestCacheEvictsOldestAtCapacity(t *testing.T) {
	c := NewAudioCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		c.Set(&CacheEntry{Key: CacheKey(fmt.Sprintf("t%d", i)), Chunks: [][]byte{{byte(i)}}})
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}

	c.Set(&CacheEntry{Key: CacheKey("t3"), Chunks: [][]byte{{3}}})

	if c.Len() != 3 {
		t.Fatalf("len = %d after eviction, want 3", c.Len())
	}
	if _, ok := c.Get(CacheKey("t0")); ok {
		t.Error("oldest entry survived capacity eviction")
	}
	for i := 1; i <= 3; i++ {
		if _, ok := c.Get(CacheKey(fmt.Sprintf("t%d", i))); !ok {
			t.Errorf("entry t%d missing after eviction", i)
		}
	}
}

func TestCacheExpiredEntryAbsent(t *testing.T) {
	c := NewAudioCache(4, 50*time.Millisecond)
	key := CacheKey("short lived")

	c.Set(&CacheEntry{
		Key:       key,
		Chunks:    [][]byte{{1}},
		CreatedAt: time.Now().Add(-time.Second),
	})

	if _, ok := c.Get(key); ok {
		t.Fatal("expired entry reported as present")
	}
	if c.Len() != 0 {
		t.Errorf("len = %d, want 0 after expiry removal", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := NewAudioCache(4, time.Minute)
	c.Set(&CacheEntry{Key: CacheKey("a"), Chunks: [][]byte{{1}}})
	c.Set(&CacheEntry{Key: CacheKey("b"), Chunks: [][]byte{{2}}})

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len = %d after clear, want 0", c.Len())
	}
	if _, ok := c.Get(CacheKey("a")); ok {
		t.Error("cleared entry still present")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()

	c1, err := NewAudioCacheWithDisk(4, time.Minute, dir)
	if err != nil {
		t.Fatal(err)
	}
	key := CacheKey("persisted line")
	c1.Set(&CacheEntry{
		Key:        key,
		Chunks:     [][]byte{{1, 2, 3}, {4, 5}},
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	})

	// A fresh cache over the same directory recovers the entry from disk.
	c2, err := NewAudioCacheWithDisk(4, time.Minute, dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := c2.Get(key)
	if !ok {
		t.Fatal("entry not recovered from disk tier")
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got.Chunks))
	}
	if got.Chunks[0][2] != 3 || got.Chunks[1][1] != 5 {
		t.Fatalf("payload corrupted: %v", got.Chunks)
	}
	if got.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", got.SampleRate, DefaultSampleRate)
	}
}
