package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Check(t *testing.T) {
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(0)
	l.nowFunc = func() time.Time { return now }

	window := time.Minute

	// remaining decrements monotonically down to zero
	for i, wantRemaining := range []int{4, 3, 2, 1, 0} {
		res := l.Check("1.2.3.4", "invite-create", 5, window)
		if !res.Allowed {
			t.Fatalf("Check() #%d not allowed, want allowed", i+1)
		}
		if res.Remaining != wantRemaining {
			t.Errorf("Check() #%d Remaining = %d, want %d", i+1, res.Remaining, wantRemaining)
		}
	}

	// at the limit: rejected, with a reset hint no longer than the window
	res := l.Check("1.2.3.4", "invite-create", 5, window)
	if res.Allowed {
		t.Error("Check() allowed over the limit")
	}
	if res.ResetIn <= 0 || res.ResetIn > window {
		t.Errorf("Check() ResetIn = %v, want within (0, %v]", res.ResetIn, window)
	}

	// rejects leave no trace: repeating the rejected call does not move ResetIn
	resetIn := res.ResetIn
	res = l.Check("1.2.3.4", "invite-create", 5, window)
	if res.Allowed || res.ResetIn != resetIn {
		t.Errorf("rejected Check() recorded a hit; ResetIn = %v, want %v", res.ResetIn, resetIn)
	}

	// other identities and actions are isolated
	if res = l.Check("5.6.7.8", "invite-create", 5, window); !res.Allowed {
		t.Error("Check() other identity was rejected")
	}
	if res = l.Check("1.2.3.4", "invite-verify", 5, window); !res.Allowed {
		t.Error("Check() other action was rejected")
	}

	// once the window slides past the hits, service recovers
	now = now.Add(window + time.Second)
	res = l.Check("1.2.3.4", "invite-create", 5, window)
	if !res.Allowed {
		t.Error("Check() still rejected after the window elapsed")
	}
	if res.Remaining != 4 {
		t.Errorf("Check() Remaining = %d after recovery, want 4", res.Remaining)
	}
}

func TestLimiter_Check_emptyIdentity(t *testing.T) {
	l := NewLimiter(2)

	// empty identities collapse into the shared fallback bucket
	if res := l.Check("", "invite-verify", 1, time.Minute); !res.Allowed {
		t.Fatal("Check() first fallback hit rejected")
	}
	if res := l.Check(FallbackIdentity, "invite-verify", 1, time.Minute); res.Allowed {
		t.Error("Check() fallback identity not shared with empty identity")
	}
}

func TestLimiter_Check_nonPositiveLimit(t *testing.T) {
	l := NewLimiter(2)
	window := time.Minute

	for _, limit := range []int{0, -1} {
		res := l.Check("1.2.3.4", "invite-create", limit, window)
		if res.Allowed {
			t.Errorf("Check(limit=%d) allowed, want rejected", limit)
		}
		if res.Remaining != 0 || res.ResetIn != window {
			t.Errorf("Check(limit=%d) = %+v, want Remaining 0 and ResetIn %v", limit, res, window)
		}
	}

	// a zero limit on one action does not poison the identity's other buckets
	if res := l.Check("1.2.3.4", "invite-verify", 1, window); !res.Allowed {
		t.Error("Check() rejected an unrelated action after a zero-limit check")
	}
}

func TestLimiter_Check_evictsOldBuckets(t *testing.T) {
	l := NewLimiter(2)

	l.Check("a", "invite-create", 1, time.Minute)
	l.Check("b", "invite-create", 1, time.Minute)
	l.Check("c", "invite-create", 1, time.Minute) // evicts a

	// a's history is gone; it gets a fresh bucket
	if res := l.Check("a", "invite-create", 1, time.Minute); !res.Allowed {
		t.Error("Check() evicted bucket still rejecting")
	}
}

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "no headers", want: FallbackIdentity},
		{name: "x-forwarded-for single", headers: map[string]string{"X-Forwarded-For": "1.2.3.4"}, want: "1.2.3.4"},
		{name: "x-forwarded-for chain", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, want: "1.2.3.4"},
		{name: "x-forwarded-for padded", headers: map[string]string{"X-Forwarded-For": "  1.2.3.4 , 10.0.0.1"}, want: "1.2.3.4"},
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "5.6.7.8"}, want: "5.6.7.8"},
		{name: "forwarded-for wins over real-ip", headers: map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "5.6.7.8"}, want: "1.2.3.4"},
		{name: "empty forwarded-for falls through", headers: map[string]string{"X-Forwarded-For": " ", "X-Real-IP": "5.6.7.8"}, want: "5.6.7.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIdentity(req); got != tt.want {
				t.Errorf("ClientIdentity() = %q, want %q", got, tt.want)
			}
		})
	}
}
