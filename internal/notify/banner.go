// Package notify implements the single-slot transient error banner.
package notify

import (
	"sync"
	"time"
)

// DisplayDuration is how long a raised message stays visible.
const DisplayDuration = 3 * time.Second

// Banner holds at most one message. A new message overwrites the previous one
// immediately; nothing is queued.
type Banner struct {
	mu       sync.Mutex
	text     string
	raisedAt time.Time
	gen      uint64
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Banner)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(b *Banner) { b.now = now } }

// WithTTL overrides DisplayDuration.
func WithTTL(d time.Duration) Option { return func(b *Banner) { b.ttl = d } }

func NewBanner(opts ...Option) *Banner {
	b := &Banner{ttl: DisplayDuration, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Raise shows text and returns the generation that identifies it.
func (b *Banner) Raise(text string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.text = text
	b.raisedAt = b.now()
	return b.gen
}

// Current returns the visible text, or "" once it expired or was dismissed.
func (b *Banner) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text == "" {
		return ""
	}
	if b.ttl > 0 && b.now().Sub(b.raisedAt) >= b.ttl {
		b.text = ""
	}
	return b.text
}

// Generation of the latest Raise or Dismiss.
func (b *Banner) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Dismiss clears the banner.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.text = ""
}

// Expire clears the banner only if gen is still the latest message, so a
// timer started for an old message never hides a newer one.
func (b *Banner) Expire(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen || b.text == "" {
		return false
	}
	b.text = ""
	return true
}

// TTL reports the display duration.
func (b *Banner) TTL() time.Duration { return b.ttl }
