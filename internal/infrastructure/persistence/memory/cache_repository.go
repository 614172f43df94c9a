// Package memory provides in-memory implementations of the outbound ports
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutriplan/engine/internal/ports/outbound"
)

// defaultTTL applies when Set is called with a zero ttl
const defaultTTL = 24 * time.Hour

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

type cacheSet struct {
	members   map[string]struct{}
	expiresAt time.Time
}

// CacheRepository implements outbound.CacheRepository in process memory
type CacheRepository struct {
	mutex sync.RWMutex
	data  map[string]CacheItem
	sets  map[string]*cacheSet
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewCacheRepository creates a new in-memory cache repository. Expired
// entries are swept every interval until Close is called.
func NewCacheRepository(interval time.Duration) *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]CacheItem),
		sets: make(map[string]*cacheSet),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if interval > 0 {
		go repo.cleanup(interval)
	}
	return repo
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	item, exists := r.data[key]
	if !exists || r.now().After(item.ExpiresAt) {
		return nil, outbound.ErrCacheMiss
	}
	out := make([]byte, len(item.Value))
	copy(out, item.Value)
	return out, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data[key] = CacheItem{Value: stored, ExpiresAt: r.now().Add(ttl)}
	return nil
}

// Delete removes keys and sets
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, key := range keys {
		delete(r.data, key)
		delete(r.sets, key)
	}
	return nil
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	now := r.now()
	if item, ok := r.data[key]; ok && !now.After(item.ExpiresAt) {
		return true, nil
	}
	if set, ok := r.sets[key]; ok && !now.After(set.expiresAt) {
		return true, nil
	}
	return false, nil
}

// SAdd adds members to a set and extends its lifetime
func (r *CacheRepository) SAdd(ctx context.Context, key string, members ...string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	set, ok := r.sets[key]
	if !ok || now.After(set.expiresAt) {
		set = &cacheSet{members: make(map[string]struct{})}
		r.sets[key] = set
	}
	for _, m := range members {
		set.members[m] = struct{}{}
	}
	set.expiresAt = now.Add(defaultTTL)
	return nil
}

// SMembers returns all members of a set in lexical order
func (r *CacheRepository) SMembers(ctx context.Context, key string) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	set, ok := r.sets[key]
	if !ok || r.now().After(set.expiresAt) {
		return []string{}, nil
	}
	out := make([]string, 0, len(set.members))
	for m := range set.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of live entries, sets included
func (r *CacheRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data) + len(r.sets)
}

// Close stops the sweeper
func (r *CacheRepository) Close() {
	r.once.Do(func() { close(r.stop) })
}

// cleanup removes expired items
func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *CacheRepository) sweep() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	for key, item := range r.data {
		if now.After(item.ExpiresAt) {
			delete(r.data, key)
		}
	}
	for key, set := range r.sets {
		if now.After(set.expiresAt) {
			delete(r.sets, key)
		}
	}
}
