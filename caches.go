package dbus

import (
	"errors"
	"sync"
	"sync/atomic"
)

var errNotFound = errors.New("cache entry not found")

// maxCacheEntries bounds the size of a cache. Signatures arrive from
// untrusted peers, so past this size new results are computed but not
// remembered.
const maxCacheEntries = 4096

// cache is a concurrency-safe memo of results and errors.
type cache[K comparable, V any] struct {
	m sync.Map
	n atomic.Int64
}

type cacheEntry[V any] struct {
	val V
	err error
}

// Get returns the cached value or error for k. If k has no entry, Get
// returns errNotFound.
func (c *cache[K, V]) Get(k K) (V, error) {
	ent, ok := c.m.Load(k)
	if !ok {
		var zero V
		return zero, errNotFound
	}
	e := ent.(cacheEntry[V])
	return e.val, e.err
}

// Set records v as the result for k.
func (c *cache[K, V]) Set(k K, v V) {
	c.store(k, cacheEntry[V]{val: v})
}

// SetErr records err as the result for k.
func (c *cache[K, V]) SetErr(k K, err error) {
	c.store(k, cacheEntry[V]{err: err})
}

func (c *cache[K, V]) store(k K, e cacheEntry[V]) {
	if c.n.Load() >= maxCacheEntries {
		return
	}
	if _, loaded := c.m.LoadOrStore(k, e); !loaded {
		c.n.Add(1)
	}
}
