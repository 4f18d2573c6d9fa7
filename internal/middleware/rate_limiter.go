package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rule is the token bucket applied to every caller within one scope: Requests
// events per Window with Burst extra capacity.
type Rule struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func (r Rule) normalized() Rule {
	if r.Requests <= 0 {
		r.Requests = 1
	}
	if r.Window <= 0 {
		r.Window = time.Second
	}
	if r.Burst <= 0 {
		r.Burst = 1
	}
	return r
}

type bucketKey struct {
	scope  string
	caller string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per scope and caller. Scopes without a
// rule of their own use the fallback. Buckets idle for longer than the ttl are
// swept at most once per ttl.
type KeyedLimiter struct {
	mu        sync.Mutex
	buckets   map[bucketKey]*bucket
	rules     map[string]Rule
	fallback  Rule
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewKeyedLimiter returns a limiter applying fallback to every scope. A
// non-positive ttl keeps idle buckets for five minutes.
func NewKeyedLimiter(fallback Rule, ttl time.Duration) *KeyedLimiter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &KeyedLimiter{
		buckets:  make(map[bucketKey]*bucket),
		rules:    make(map[string]Rule),
		fallback: fallback.normalized(),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetRule overrides the rule for scope. Buckets already handed out keep their
// previous rate.
func (l *KeyedLimiter) SetRule(scope string, rule Rule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules[scope] = rule.normalized()
}

// Allow reports whether caller may act within scope now and consumes a token
// if so.
func (l *KeyedLimiter) Allow(scope, caller string) bool {
	if caller == "" {
		caller = "unknown"
	}
	key := bucketKey{scope: scope, caller: caller}

	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		rule, ok := l.rules[scope]
		if !ok {
			rule = l.fallback
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Requests)), rule.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweepLocked(now)
	}
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Len returns the number of live buckets.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
