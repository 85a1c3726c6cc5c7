// Package cache provides a TTL cache with an injected clock and an explicit
// janitor lifecycle, replacing ad hoc process-wide maps with implicit cleanup.
package cache

import (
	"sync"
	"time"

	"github.com/julianparmann/seatjumper-sub002/internal/clock"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a mutex-guarded map whose entries expire a fixed duration after Set.
type TTL[K comparable, V any] struct {
	mu      sync.Mutex
	clk     clock.Clock
	ttl     time.Duration
	entries map[K]entry[V]

	stopOnce sync.Once
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

func New[K comparable, V any](clk clock.Clock, ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		clk:     clk,
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(c.clk.Now()) {
		var zero V
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clk.Now().Add(c.ttl)}
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops every entry regardless of expiry.
func (c *TTL[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Sweep evicts expired entries and returns how many were dropped.
func (c *TTL[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	evicted := 0
	for key, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartJanitor sweeps expired entries every interval until Stop is called.
func (c *TTL[K, V]) StartJanitor(interval time.Duration) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the janitor and waits for it to exit. Stop without a prior
// StartJanitor returns immediately.
func (c *TTL[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}
