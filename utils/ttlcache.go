package utils

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// TTLCache is a concurrency-safe store of expiring keys and counters on top of go-cache.
// It owns a janitor goroutine that evicts expired keys every interval until Stop is called.
type TTLCache struct {
	items *cache.Cache

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewTTLCache creates a cache and starts its eviction loop.
// An interval <= 0 disables background eviction; expired keys are still ignored on read.
func NewTTLCache(interval time.Duration) *TTLCache {
	// go-cache's own janitor only stops when the cache is garbage collected, so eviction runs here
	c := &TTLCache{
		items: cache.New(cache.NoExpiration, 0),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if interval <= 0 {
		close(c.done)
		return c
	}
	go c.janitor(interval)
	return c
}

func (c *TTLCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.items.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}

// Stop terminates the eviction loop and waits for it to exit. Safe to call more than once.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Increment bumps the counter for key and returns the new value.
// The expiry is set when the key is first created (or recreated after expiring), giving fixed windows.
func (c *TTLCache) Increment(key string, ttl time.Duration) int {
	for {
		if err := c.items.Add(key, 1, ttl); err == nil {
			return 1
		}
		if n, err := c.items.IncrementInt(key, 1); err == nil {
			return n
		}
		// the window expired between Add and IncrementInt
	}
}

// SetIfAbsent stores key for ttl and reports whether it was newly added.
// Used as a replay guard: a second call with a live key returns false.
func (c *TTLCache) SetIfAbsent(key string, ttl time.Duration) bool {
	return c.items.Add(key, struct{}{}, ttl) == nil
}

// Has reports whether key is present and not expired
func (c *TTLCache) Has(key string) bool {
	_, found := c.items.Get(key)
	return found
}

// Delete removes key
func (c *TTLCache) Delete(key string) {
	c.items.Delete(key)
}

// DeleteExpired drops every expired key
func (c *TTLCache) DeleteExpired() {
	c.items.DeleteExpired()
}

// Len returns the number of stored keys, expired or not
func (c *TTLCache) Len() int {
	return c.items.ItemCount()
}
