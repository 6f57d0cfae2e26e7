package baseline

import (
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	sha       string
	value     []byte
	expiresAt time.Time
}

// memoryTier is the in-process tier in front of the blob store.
// It is owned by one Fetcher; there is no package-level cache.
type memoryTier struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryTier() *memoryTier {
	return &memoryTier{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryTier) get(key string) (memoryEntry, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expiresAt) {
		return memoryEntry{}, false
	}
	return e, true
}

func (m *memoryTier) set(key, sha string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{sha: sha, value: value, expiresAt: m.now().Add(ttl)}
}

// setUntil stores an entry promoted from the blob store, keeping its deadline.
func (m *memoryTier) setUntil(key, sha string, value []byte, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{sha: sha, value: value, expiresAt: expiresAt}
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *memoryTier) deletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *memoryTier) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
