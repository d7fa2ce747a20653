// Package ratelimit implements best-effort, single-process admission control
// using a sliding window per (action, identity) key.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FallbackIdentity is used when no caller identity can be resolved; requests
// are never failed over an unresolvable identity.
const FallbackIdentity = "127.0.0.1"

const defaultMaxBuckets = 4096

type (
	// Result is one admission decision.
	Result struct {
		Allowed   bool
		Remaining int
		ResetIn   time.Duration
	}

	bucket struct {
		hits []time.Time
	}

	// Limiter owns the shared bucket map. It is constructed once at process
	// start and injected into handlers; the LRU cap bounds memory under many
	// distinct identities.
	Limiter struct {
		mu      sync.Mutex
		buckets *lru.Cache[string, *bucket]

		nowFunc func() time.Time // mockable
	}
)

func NewLimiter(maxBuckets int) *Limiter {
	if maxBuckets <= 0 {
		maxBuckets = defaultMaxBuckets
	}
	cache, _ := lru.New[string, *bucket](maxBuckets) // only errors on size <= 0
	return &Limiter{buckets: cache, nowFunc: time.Now}
}

// Check records a hit for (identity, action) unless the bucket is already at
// the limit within the trailing window. A rejected check leaves the bucket
// untouched, so retries cannot extend a caller's own penalty.
func (l *Limiter) Check(identity, action string, limit int, window time.Duration) Result {
	// a non-positive limit admits nothing; there is no bucket state to consult
	if limit <= 0 {
		return Result{Allowed: false, Remaining: 0, ResetIn: window}
	}
	if identity == "" {
		identity = FallbackIdentity
	}
	key := action + "|" + identity

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	cutoff := now.Add(-window)

	b, ok := l.buckets.Get(key)
	if !ok {
		b = &bucket{}
		l.buckets.Add(key, b)
	}

	// prune stale hits lazily, on access only
	kept := b.hits[:0]
	for _, t := range b.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.hits = kept

	if len(b.hits) >= limit {
		oldest := b.hits[0]
		return Result{Allowed: false, Remaining: 0, ResetIn: oldest.Add(window).Sub(now)}
	}

	b.hits = append(b.hits, now)
	return Result{Allowed: true, Remaining: limit - len(b.hits), ResetIn: window}
}

// ClientIdentity derives a stable caller identity from the forwarded-address
// header chain. It trusts upstream proxy hygiene and is not a security
// boundary by itself; it never fails.
func ClientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return FallbackIdentity
}
