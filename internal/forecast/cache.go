package forecast

import (
	"errors"
	"sync"

	"retail-ops/internal/apperrors"

	"golang.org/x/sync/singleflight"
)

// LoadFunc loads a persisted artifact from durable storage.
// Absent artifacts are reported as apperrors.ErrNotFound; an artifact that
// exists but fails to deserialize is apperrors.ErrStorageCorruption.
type LoadFunc[T any] func(key string) (T, error)

// Cache is the model lifecycle cache: an unbounded in-memory map in front
// of durable storage. Unbounded is fine here - the artifact count equals
// the number of distinct trained entities, which is operationally small.
//
// GetOrLoad guarantees at most one in-flight disk load per key; concurrent
// requesters for the same key share the result via singleflight.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	load  LoadFunc[T]
	group singleflight.Group
}

// NewCache creates a cache backed by the given durable-storage loader.
func NewCache[T any](load LoadFunc[T]) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]T),
		load:  load,
	}
}

// GetOrLoad returns the cached artifact, loading it from durable storage on
// a miss. First success wins:
//
//  1. memory hit - returned with no I/O
//  2. disk load - inserted into memory, returned
//  3. neither - apperrors.ErrNotFound; the cache is left untouched
//
// Training is deliberately not part of this path; it is an explicit
// operation that publishes its result via Put.
func (c *Cache[T]) GetOrLoad(key string) (T, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return item, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check: another flight may have populated the map between
		// our read miss and entering the group.
		c.mu.RLock()
		item, ok := c.items[key]
		c.mu.RUnlock()
		if ok {
			return item, nil
		}

		loaded, err := c.load(key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[key] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Put inserts or overwrites the artifact for key. Called after training
// persists a fresh artifact; the cache never holds anything that differs
// from what was last trained and persisted.
func (c *Cache[T]) Put(key string, item T) {
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
}

// Contains reports whether the key is cached in memory, without touching
// durable storage.
func (c *Cache[T]) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[key]
	return ok
}

// Len returns the number of cached artifacts.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IsNotFound reports whether err means "no artifact" as opposed to a real
// failure such as corruption.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
