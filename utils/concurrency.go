package utils

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between consecutive calls to Wait.
type Throttle struct {
	minInterval time.Duration
	mu          sync.Mutex
	last        time.Time
}

// NewThrottle creates a Throttle that spaces calls at least rateLimitMs apart.
func NewThrottle(rateLimitMs int) *Throttle {
	return &Throttle{minInterval: time.Duration(rateLimitMs) * time.Millisecond}
}

// Wait blocks until the minimum interval since the previous call has elapsed
// or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		elapsed := time.Since(t.last)
		if elapsed < t.minInterval {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.minInterval - elapsed):
			}
		}
	}
	t.last = time.Now()
	return nil
}

// URLSet is a thread-safe set of listing links.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// NewURLSetFrom creates a URLSet holding links. Empty strings are ignored.
func NewURLSetFrom(links []string) *URLSet {
	s := &URLSet{seen: make(map[string]struct{}, len(links))}
	for _, l := range links {
		if l != "" {
			s.seen[l] = struct{}{}
		}
	}
	return s
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL is already in the set.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Links returns the members in sorted order so persisted output is stable.
func (s *URLSet) Links() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.seen))
	for l := range s.seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
