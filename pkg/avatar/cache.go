package avatar

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Cache limits.
const (
	// DefaultCacheMaxEntries bounds the number of in-memory entries.
	DefaultCacheMaxEntries = 64
	// DefaultCacheMaxAge is the age past which an entry is treated as
	// absent.
	DefaultCacheMaxAge = 30 * time.Minute
	// CacheKeyVersion prefixes generated keys for migration support.
	CacheKeyVersion = "v1"
)

// CacheEntry holds synthesized audio for one text, addressed by the
// hash of that text.
type CacheEntry struct {
	Key        string
	Chunks     [][]byte
	SampleRate int
	Channels   int
	CreatedAt  time.Time
}

func (e *CacheEntry) size() int64 {
	var n int64
	for _, c := range e.Chunks {
		n += int64(len(c))
	}
	return n
}

// CacheKey generates the content address for a text: a versioned
// SHA-256 of the exact input.
func CacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s_%s", CacheKeyVersion, hex.EncodeToString(hash[:]))
}

// AudioCache is a bounded content-addressed cache of synthesized audio.
// Capacity eviction removes the oldest entry first; entries older than
// maxAge are treated as absent on lookup.
type AudioCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // oldest at front
	maxEntries int
	maxAge     time.Duration

	disk *diskCache
}

// NewAudioCache creates a memory-only audio cache.
func NewAudioCache(maxEntries int, maxAge time.Duration) *AudioCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &AudioCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// NewAudioCacheWithDisk creates an audio cache backed by a disk tier in
// dir. The memory tier alone provides the capacity and age guarantees;
// the disk tier survives process restarts.
func NewAudioCacheWithDisk(maxEntries int, maxAge time.Duration, dir string) (*AudioCache, error) {
	c := NewAudioCache(maxEntries, maxAge)
	disk, err := newDiskCache(dir, maxAge)
	if err != nil {
		return nil, err
	}
	c.disk = disk
	return c, nil
}

// Get looks up an entry. Expired entries are removed and reported as
// absent.
func (c *AudioCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if ok {
		entry := elem.Value.(*CacheEntry)
		if time.Since(entry.CreatedAt) <= c.maxAge {
			return entry, true
		}
		c.remove(elem)
	}

	if c.disk != nil {
		if entry, ok := c.disk.get(key); ok {
			c.put(entry)
			return entry, true
		}
	}
	return nil, false
}

// Set stores or replaces an entry. Re-setting an existing key updates
// its payload and timestamp.
func (c *AudioCache) Set(entry *CacheEntry) {
	if entry == nil || entry.Key == "" {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	c.mu.Lock()
	c.put(entry)
	c.mu.Unlock()

	if c.disk != nil {
		if err := c.disk.put(entry); err != nil {
			log.Warn("disk cache write failed", "key", entry.Key, "error", err)
		}
	}
}

// put inserts or replaces an entry; caller holds the lock.
func (c *AudioCache) put(entry *CacheEntry) {
	if elem, ok := c.entries[entry.Key]; ok {
		c.order.Remove(elem)
		delete(c.entries, entry.Key)
	}
	for len(c.entries) >= c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*CacheEntry)
		c.remove(oldest)
		log.Debug("cache evicted oldest entry",
			"key", evicted.Key,
			"size", humanize.Bytes(uint64(evicted.size())))
	}
	c.entries[entry.Key] = c.order.PushBack(entry)
}

// remove deletes an element; caller holds the lock.
func (c *AudioCache) remove(elem *list.Element) {
	entry := elem.Value.(*CacheEntry)
	delete(c.entries, entry.Key)
	c.order.Remove(elem)
}

// Len returns the number of live in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all in-memory entries.
func (c *AudioCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// diskCache persists entries under a directory with a sonic-encoded
// index file. Payload chunks are concatenated into one file per key;
// chunk boundaries are recorded in the index.
type diskCache struct {
	mu     sync.Mutex
	dir    string
	maxAge time.Duration
	index  map[string]*diskEntryMeta
}

type diskEntryMeta struct {
	Key         string    `json:"key"`
	File        string    `json:"file"`
	ChunkSizes  []int     `json:"chunk_sizes"`
	SampleRate  int       `json:"sample_rate"`
	Channels    int       `json:"channels"`
	CreatedAt   time.Time `json:"created_at"`
	PayloadSize int64     `json:"payload_size"`
}

func newDiskCache(dir string, maxAge time.Duration) (*diskCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	dc := &diskCache{
		dir:    dir,
		maxAge: maxAge,
		index:  make(map[string]*diskEntryMeta),
	}
	if data, err := os.ReadFile(dc.indexPath()); err == nil {
		if err := sonic.Unmarshal(data, &dc.index); err != nil {
			// Corrupt index: start fresh rather than failing the session.
			dc.index = make(map[string]*diskEntryMeta)
		}
	}
	return dc, nil
}

func (dc *diskCache) indexPath() string {
	return filepath.Join(dc.dir, "index.json")
}

func (dc *diskCache) get(key string) (*CacheEntry, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	meta, ok := dc.index[key]
	if !ok || time.Since(meta.CreatedAt) > dc.maxAge {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(dc.dir, meta.File))
	if err != nil {
		return nil, false
	}

	chunks := make([][]byte, 0, len(meta.ChunkSizes))
	off := 0
	for _, n := range meta.ChunkSizes {
		if off+n > len(data) {
			return nil, false
		}
		chunks = append(chunks, data[off:off+n])
		off += n
	}
	return &CacheEntry{
		Key:        key,
		Chunks:     chunks,
		SampleRate: meta.SampleRate,
		Channels:   meta.Channels,
		CreatedAt:  meta.CreatedAt,
	}, true
}

func (dc *diskCache) put(entry *CacheEntry) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	file := entry.Key + ".audio"
	var payload []byte
	sizes := make([]int, 0, len(entry.Chunks))
	for _, c := range entry.Chunks {
		payload = append(payload, c...)
		sizes = append(sizes, len(c))
	}
	if err := os.WriteFile(filepath.Join(dc.dir, file), payload, 0o600); err != nil {
		return err
	}

	dc.index[entry.Key] = &diskEntryMeta{
		Key:         entry.Key,
		File:        file,
		ChunkSizes:  sizes,
		SampleRate:  entry.SampleRate,
		Channels:    entry.Channels,
		CreatedAt:   entry.CreatedAt,
		PayloadSize: int64(len(payload)),
	}
	return dc.saveIndex()
}

// saveIndex writes the index; caller holds the lock.
func (dc *diskCache) saveIndex() error {
	data, err := sonic.Marshal(dc.index)
	if err != nil {
		return err
	}
	return os.WriteFile(dc.indexPath(), data, 0o600)
}
