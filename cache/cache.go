// Package cache provides a bounded in-memory cache with per-entry
// expiration, for keeping resolved answers around until their TTL runs out.
package cache

import (
	"math"
	"time"
)

type node[K comparable, V any] struct {
	prev *node[K, V]
	next *node[K, V]

	key      K
	value    V
	expireAt time.Time
}

// TTLCache is a bounded in-memory cache. Each entry carries its own
// expiration time; expired entries are dropped on access. When the cache
// is full, insertions evict the least recently used entry.
//
// TTLCache is not safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	nodeByKey map[K]*node[K, V]
	capacity  int

	// head is the least recently used node.
	head *node[K, V]
	// tail is the most recently used node.
	tail *node[K, V]
}

// New returns a new cache with the given capacity.
// If capacity is not positive, the cache is effectively unbounded.
func New[K comparable, V any](capacity int) *TTLCache[K, V] {
	if capacity <= 0 {
		capacity = math.MaxInt
	}
	return &TTLCache[K, V]{
		nodeByKey: make(map[K]*node[K, V]),
		capacity:  capacity,
	}
}

// Len returns the number of entries in the cache, counting entries that
// have expired but have not been dropped yet.
func (c *TTLCache[K, V]) Len() int {
	return len(c.nodeByKey)
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *TTLCache[K, V]) Capacity() int {
	return c.capacity
}

// Get returns the unexpired value associated with key at time now.
// An expired entry is removed and reported as a miss.
func (c *TTLCache[K, V]) Get(key K, now time.Time) (value V, ok bool) {
	n, ok := c.nodeByKey[key]
	if !ok {
		return value, false
	}
	if !n.expireAt.After(now) {
		c.remove(n)
		return value, false
	}
	c.moveToTail(n)
	return n.value, true
}

// Set adds or replaces the value associated with key, expiring at
// expireAt. If the key is new and the cache is full, the least recently
// used entry is evicted.
func (c *TTLCache[K, V]) Set(key K, value V, expireAt time.Time) {
	if n, ok := c.nodeByKey[key]; ok {
		n.value = value
		n.expireAt = expireAt
		c.moveToTail(n)
		return
	}

	if len(c.nodeByKey) >= c.capacity {
		c.remove(c.head)
	}

	n := &node[K, V]{
		key:      key,
		value:    value,
		expireAt: expireAt,
	}
	c.nodeByKey[key] = n
	c.pushToTail(n)
}

// Remove removes the entry associated with key,
// and returns whether the entry was present.
func (c *TTLCache[K, V]) Remove(key K) bool {
	n, ok := c.nodeByKey[key]
	if !ok {
		return false
	}
	c.remove(n)
	return true
}

// Clear removes all entries from the cache.
func (c *TTLCache[K, V]) Clear() {
	c.nodeByKey = make(map[K]*node[K, V])
	c.head = nil
	c.tail = nil
}

func (c *TTLCache[K, V]) remove(n *node[K, V]) {
	delete(c.nodeByKey, n.key)

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
}

func (c *TTLCache[K, V]) pushToTail(n *node[K, V]) {
	n.prev = c.tail
	n.next = nil
	if c.tail != nil {
		c.tail.next = n
	} else {
		c.head = n
	}
	c.tail = n
}

func (c *TTLCache[K, V]) moveToTail(n *node[K, V]) {
	if c.tail == n {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	n.next.prev = n.prev

	n.prev = c.tail
	n.next = nil
	c.tail.next = n
	c.tail = n
}
