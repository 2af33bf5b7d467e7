package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterPool is a per-identifier token-bucket pool backed by
// golang.org/x/time/rate.Limiter values. A limiter is created on first use
// for an identifier key (the API key when present, otherwise the client
// IP). Entries idle past the TTL are evicted by a lazily started cleanup
// goroutine.
type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu           sync.Mutex
	m            map[string]*limiterEntry
	cfg          SecConfig
	startCleanup sync.Once
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.startCleanup.Do(func() {
		go p.cleanupLoop(10*time.Minute, time.Minute)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*limiterEntry)
	}
	if e, ok := p.m[key]; ok {
		e.lastSeen = time.Now()
		return e.l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = 100
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 100
	}
	e := &limiterEntry{l: rate.NewLimiter(rate.Limit(rps), burst), lastSeen: time.Now()}
	p.m[key] = e
	return e.l
}

func (p *limiterPool) cleanupLoop(ttl, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for range t.C {
		cutoff := time.Now().Add(-ttl)
		p.mu.Lock()
		for k, e := range p.m {
			if e.lastSeen.Before(cutoff) {
				delete(p.m, k)
			}
		}
		p.mu.Unlock()
	}
}
