package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the string key/value cache used by services that memoise upstream calls
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Len(ctx context.Context) (int, error)
}

// Options configures an in-memory cache
type Options struct {
	// DefaultTTL applies when Set is called with ttl == 0. Zero means no expiry.
	DefaultTTL time.Duration
	// MaxItems bounds the number of entries. Zero means unbounded.
	MaxItems int
	// CleanupInterval controls how often expired entries are swept. Zero disables the sweeper.
	CleanupInterval time.Duration
}

type item struct {
	value      string
	expiration int64
	insertedAt int64
}

func (i item) expired(now int64) bool {
	return i.expiration != 0 && now > i.expiration
}

// Memory is a thread-safe in-memory cache with expiration and bounded size.
// When full, the entry closest to expiry is evicted, ties broken by insertion order.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]item
	opts      Options
	onEvicted func(key, value string)
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewMemory creates an in-memory cache and starts its sweeper if configured
func NewMemory(opts Options) *Memory {
	m := &Memory{
		items: make(map[string]item),
		opts:  opts,
		stop:  make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go m.runCleanup(opts.CleanupInterval)
	}

	return m
}

// Get retrieves an item from the cache
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, found := m.items[key]
	if !found || it.expired(time.Now().UnixNano()) {
		return "", false, nil
	}
	return it.value, true, nil
}

// Set stores value under key. A zero ttl uses the default.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.opts.DefaultTTL
	}

	now := time.Now()
	var exp int64
	if ttl > 0 {
		exp = now.Add(ttl).UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && m.opts.MaxItems > 0 && len(m.items) >= m.opts.MaxItems {
		m.evictOne()
	}

	m.items[key] = item{value: value, expiration: exp, insertedAt: now.UnixNano()}
	return nil
}

// Delete removes an item from the cache
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if it, found := m.items[key]; found && m.onEvicted != nil {
		m.onEvicted(key, it.value)
	}
	delete(m.items, key)
	return nil
}

// Len returns the number of entries, including expired ones not yet swept
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

// Flush removes all items from the cache
func (m *Memory) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.onEvicted != nil {
		for k, v := range m.items {
			m.onEvicted(k, v.value)
		}
	}
	m.items = make(map[string]item)
}

// SetOnEvicted sets the callback to be called when an item is evicted
func (m *Memory) SetOnEvicted(f func(key, value string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvicted = f
}

// Close stops the sweeper goroutine
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) runCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range m.items {
		if v.expired(now) {
			if m.onEvicted != nil {
				m.onEvicted(k, v.value)
			}
			delete(m.items, k)
		}
	}
}

// evictOne must be called with mu held
func (m *Memory) evictOne() {
	var victim string
	var victimItem item
	first := true

	for k, v := range m.items {
		if first || less(v, victimItem) {
			victim, victimItem = k, v
			first = false
		}
	}

	if first {
		return
	}
	if m.onEvicted != nil {
		m.onEvicted(victim, victimItem.value)
	}
	delete(m.items, victim)
}

// less orders entries by eviction priority. Entries without expiry go last.
func less(a, b item) bool {
	switch {
	case a.expiration == b.expiration:
		return a.insertedAt < b.insertedAt
	case a.expiration == 0:
		return false
	case b.expiration == 0:
		return true
	default:
		return a.expiration < b.expiration
	}
}
