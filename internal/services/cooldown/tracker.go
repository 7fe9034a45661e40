package cooldown

import (
	"sync"
	"time"
)

// Key identifies one deduplication bucket: the same species seen on the same
// device shares a bucket.
type Key struct {
	Device  int
	Species string
}

// Tracker suppresses repeat sightings of a species on a device inside a
// cooldown window. One shared instance is injected into every streaming
// connection; the map is guarded by a mutex since streams run concurrently.
type Tracker struct {
	window time.Duration
	mu     sync.Mutex
	last   map[Key]time.Time
}

func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		window: window,
		last:   make(map[Key]time.Time),
	}
}

// Accept reports whether a sighting at now counts as new for key. A sighting
// is new when the key has never been accepted, or when strictly more than the
// cooldown window elapsed since the last acceptance. Accepted sightings update
// the key's last-accepted time; suppressed ones leave it untouched.
func (t *Tracker) Accept(key Key, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, exists := t.last[key]
	if exists && now.Sub(last) <= t.window {
		return false
	}
	t.last[key] = now
	return true
}

// Window returns the configured cooldown window.
func (t *Tracker) Window() time.Duration {
	return t.window
}
