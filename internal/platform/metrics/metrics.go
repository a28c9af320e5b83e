package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Names of the domain counters the salary services increment.
const (
	StructuresCreated  = "structuresCreated"
	StructuresUpdated  = "structuresUpdated"
	StructuresRejected = "structuresRejected"
	SlipsGenerated     = "slipsGenerated"
	SlipsPaid          = "slipsPaid"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu       sync.Mutex
	counters map[string]*uint64
}

func New() *Collector {
	return &Collector{counters: map[string]*uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Add increments a named counter. A nil collector ignores the call.
func (c *Collector) Add(name string, delta uint64) {
	if c == nil || delta == 0 {
		return
	}
	c.mu.Lock()
	counter, ok := c.counters[name]
	if !ok {
		counter = new(uint64)
		c.counters[name] = counter
	}
	c.mu.Unlock()
	atomic.AddUint64(counter, delta)
}

func (c *Collector) Inc(name string) {
	c.Add(name, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	out := map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out[name] = atomic.LoadUint64(c.counters[name])
	}
	c.mu.Unlock()
	return out
}
