package cache

import (
	"sync"
	"time"
)

const (
	defaultCapacity      = 64
	defaultSweepInterval = time.Second
)

type entry struct {
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// InMemory is a Cacher whose entries live until the process exits or the
// sweeper removes them. The sweeper only scans the map once it holds more
// than capacity entries, so expired entries may linger in a small cache.
type InMemory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	closed   bool
	capacity int
	interval time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

type Option func(*InMemory)

// WithCapacity sets how many entries are held before sweeping starts.
func WithCapacity(capacity int) Option {
	return func(c *InMemory) {
		if capacity >= 0 {
			c.capacity = capacity
		}
	}
}

// WithSweepInterval sets how often the sweeper wakes up.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *InMemory) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// NewInMemory builds the cache and starts its sweeper. Call Close to stop it.
func NewInMemory(opts ...Option) *InMemory {
	c := newInMemory(opts...)
	go c.sweepLoop()
	return c
}

func newInMemory(opts ...Option) *InMemory {
	c := &InMemory{
		entries:  make(map[string]*entry),
		capacity: defaultCapacity,
		interval: defaultSweepInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemory) Cache(id string, payload []byte, ttl Duration) error {
	data := make([]byte, len(payload))
	copy(data, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.entries[id] = &entry{payload: data, createdAt: c.now(), ttl: ttl.TTL()}
	return nil
}

func (c *InMemory) Get(id string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrClosed
	}

	e, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	e.createdAt = c.now()

	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, true, nil
}

// Len reports how many entries are currently held, expired or not.
func (c *InMemory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the sweeper and waits for it to exit. It is safe to call more
// than once.
func (c *InMemory) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *InMemory) sweepLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep drops expired entries, but only when the cache is over capacity.
func (c *InMemory) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) <= c.capacity {
		return 0
	}

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}
