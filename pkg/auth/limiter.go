package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles login attempts per client key (normally the remote
// address). Guest provisioning shares it so a single client cannot mint
// unbounded identities.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

// NewLimiter builds a limiter pool; non-positive values fall back to
// 5 rps / burst 10.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &Limiter{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *Limiter) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// Allow reports whether one more attempt from key is within the budget.
func (p *Limiter) Allow(key string) bool {
	return p.get(key).Allow()
}
