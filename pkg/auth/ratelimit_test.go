package auth

import (
	"testing"

	"github.com/smarteros/mcp-router/pkg/api"
)

func TestTenantLimiter_BurstThenReject(t *testing.T) {
	limiter := NewTenantLimiter(0)
	tn := api.Tenant{ID: "t1", Limits: map[string]float64{"events_per_minute": 2}}

	for i := 0; i < 2; i++ {
		if !limiter.Allow(tn) {
			t.Fatalf("request %d rejected within burst allowance", i)
		}
	}
	if limiter.Allow(tn) {
		t.Error("third request allowed, want rejection after burst of 2")
	}
}

func TestTenantLimiter_DefaultApplies(t *testing.T) {
	limiter := NewTenantLimiter(1)
	tn := api.Tenant{ID: "t-nolimit"}

	if !limiter.Allow(tn) {
		t.Fatal("first request rejected under default allowance")
	}
	if limiter.Allow(tn) {
		t.Error("second request allowed, want rejection under default of 1/min")
	}
}

func TestTenantLimiter_ZeroMeansUnlimited(t *testing.T) {
	limiter := NewTenantLimiter(0)
	tn := api.Tenant{ID: "t-free"}

	for i := 0; i < 500; i++ {
		if !limiter.Allow(tn) {
			t.Fatalf("request %d rejected with no limit configured", i)
		}
	}
}

func TestTenantLimiter_FractionalAllowanceStillServes(t *testing.T) {
	limiter := NewTenantLimiter(0)
	tn := api.Tenant{ID: "t-slow", Limits: map[string]float64{"events_per_minute": 0.5}}

	if !limiter.Allow(tn) {
		t.Fatal("first request rejected under a fractional allowance, want one-token burst")
	}
	if limiter.Allow(tn) {
		t.Error("second request allowed, want rejection until the bucket refills")
	}
}

func TestTenantLimiter_IsolatedPerTenant(t *testing.T) {
	limiter := NewTenantLimiter(0)
	a := api.Tenant{ID: "a", Limits: map[string]float64{"events_per_minute": 1}}
	b := api.Tenant{ID: "b", Limits: map[string]float64{"events_per_minute": 1}}

	if !limiter.Allow(a) {
		t.Fatal("tenant a first request rejected")
	}
	if limiter.Allow(a) {
		t.Error("tenant a second request allowed, want rejection")
	}
	if !limiter.Allow(b) {
		t.Error("tenant b rejected after tenant a exhausted its own quota")
	}
}
