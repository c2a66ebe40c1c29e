package slackhook

import (
	"sync"
	"time"
)

// eventDeduper suppresses Slack's redelivery of events we already handled.
type eventDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
}

func newEventDeduper(ttl time.Duration) *eventDeduper {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &eventDeduper{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// markIfNew returns true if the event ID has not been seen recently.
// When it returns true, the ID is recorded with an expiry timestamp.
func (d *eventDeduper) markIfNew(id string) bool {
	if id == "" {
		return true
	}

	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Remove expired entries
	for key, expiry := range d.entries {
		if now.After(expiry) {
			delete(d.entries, key)
		}
	}

	if expiry, ok := d.entries[id]; ok && now.Before(expiry) {
		return false
	}

	d.entries[id] = now.Add(d.ttl)
	return true
}
