package auth

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/smarteros/mcp-router/pkg/api"
)

// TenantLimiter enforces each tenant's events_per_minute limit using a
// token bucket per tenant. The bucket refills at the per-minute rate and
// bursts up to the full minute allowance, so a tenant can spend its
// quota in one spike but not exceed it.
type TenantLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	// DefaultEventsPerMinute applies to tenants without an
	// events_per_minute limit. Zero means unlimited.
	DefaultEventsPerMinute float64
}

// NewTenantLimiter creates a limiter with the given default allowance.
func NewTenantLimiter(defaultEventsPerMinute float64) *TenantLimiter {
	return &TenantLimiter{
		limiters:               make(map[string]*rate.Limiter),
		DefaultEventsPerMinute: defaultEventsPerMinute,
	}
}

// Allow reports whether the tenant may process one more event now.
func (l *TenantLimiter) Allow(t api.Tenant) bool {
	epm := t.EventsPerMinute()
	if epm == 0 {
		epm = l.DefaultEventsPerMinute
	}
	if epm <= 0 {
		return true // no limit configured
	}

	l.mu.Lock()
	lim, ok := l.limiters[t.ID]
	if !ok {
		// A fractional allowance below 1 would truncate the burst to 0
		// and block the tenant outright; a burst of 1 keeps it served at
		// the configured trickle.
		lim = rate.NewLimiter(rate.Limit(epm/60.0), max(1, int(epm)))
		l.limiters[t.ID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
