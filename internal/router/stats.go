// Package router provides dispatch counters for the wrapper.
package router

import (
	"sync/atomic"
	"time"
)

// Stats is a snapshot of wrapper activity.
type Stats struct {
	Uptime    string  `json:"uptime"`
	Requests  int64   `json:"requests"`
	Local     int64   `json:"local"`
	LocalText int64   `json:"local_text"`
	Cloud     int64   `json:"cloud"`
	Errors    int64   `json:"errors"`
	Fallbacks int64   `json:"fallbacks"`
	LocalRate float64 `json:"local_rate"`
}

// collector tracks per-target dispatch counts.
type collector struct {
	startTime time.Time
	requests  atomic.Int64
	local     atomic.Int64
	localText atomic.Int64
	cloud     atomic.Int64
	errors    atomic.Int64
	fallbacks atomic.Int64
}

func newCollector() *collector {
	return &collector{startTime: time.Now()}
}

func (c *collector) record(target string) {
	c.requests.Add(1)
	switch target {
	case "local":
		c.local.Add(1)
	case "local-text":
		c.localText.Add(1)
	case "cloud":
		c.cloud.Add(1)
	}
}

// snapshot returns current counters. LocalRate is the percentage of
// requests served by either local backend.
func (c *collector) snapshot() *Stats {
	requests := c.requests.Load()
	local := c.local.Load()
	localText := c.localText.Load()

	rate := float64(0)
	if requests > 0 {
		rate = float64(local+localText) / float64(requests) * 100
	}

	return &Stats{
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Requests:  requests,
		Local:     local,
		LocalText: localText,
		Cloud:     c.cloud.Load(),
		Errors:    c.errors.Load(),
		Fallbacks: c.fallbacks.Load(),
		LocalRate: rate,
	}
}
