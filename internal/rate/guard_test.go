package rate

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGuardBudget(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 2))
	now := time.Now()

	for i := 0; i < 2; i++ {
		if d := guard.ShouldCall(now); !d.Allowed {
			t.Fatalf("call %d blocked: %+v", i, d)
		}
	}
	d := guard.ShouldCall(now)
	if d.Allowed || d.Reason != "budget" {
		t.Fatalf("expected budget block, got %+v", d)
	}
	if !d.RetryAt.After(now) {
		t.Fatalf("expected retry in the future, got %s", d.RetryAt)
	}

	if d := guard.ShouldCall(now.Add(31 * time.Second)); !d.Allowed {
		t.Fatalf("expected token refill after half a minute, got %+v", d)
	}
}

func TestGuardWithoutLimitsIsDisabled(t *testing.T) {
	guard := NewGuard(Provider("test"))
	if d := guard.ShouldCall(time.Now()); d.Allowed || d.Reason != "disabled" {
		t.Fatalf("expected disabled, got %+v", d)
	}
}

func TestGuardRetryAfterCooldown(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 10).RetryAfter("Retry-After"))

	h := http.Header{}
	h.Set("Retry-After", "30")
	guard.RecordResponse(http.StatusTooManyRequests, h)

	d := guard.ShouldCall(time.Now())
	if d.Allowed || d.Reason != "cooldown" {
		t.Fatalf("expected cooldown, got %+v", d)
	}
	if guard.LastStatus() != http.StatusTooManyRequests {
		t.Fatalf("unexpected last status: %d", guard.LastStatus())
	}
	if d := guard.ShouldCall(time.Now().Add(31 * time.Second)); !d.Allowed {
		t.Fatalf("expected call after cooldown, got %+v", d)
	}
}

func TestGuardIgnoresRetryAfterWithoutHeaderName(t *testing.T) {
	guard := NewGuard(Provider("test").MaxRequestsPer(Minute, 10))

	h := http.Header{}
	h.Set("Retry-After", "30")
	guard.RecordResponse(http.StatusTooManyRequests, h)

	if d := guard.ShouldCall(time.Now()); !d.Allowed {
		t.Fatalf("expected call without a configured header, got %+v", d)
	}
}

func TestWrapHTTPBlocksWhenBudgetSpent(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = io.WriteString(w, "payload")
	}))
	defer server.Close()

	client := WrapHTTP(Provider("test").MaxRequestsPer(Minute, 1), nil)
	post := func() (*http.Response, error) {
		return client.Post(server.URL+"/x", "application/json", strings.NewReader(`{"a":1}`))
	}

	resp, err := post()
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "payload" {
		t.Fatalf("unexpected body: %q", body)
	}

	_, err = post()
	var rlErr RateLimitError
	if !errors.As(err, &rlErr) || rlErr.Provider != "test" || rlErr.Reason != "budget" {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("blocked call reached the server: %d hits", hits)
	}
}

func TestDeclarationIsImmutable(t *testing.T) {
	base := Provider("test")
	derived := base.MaxRequestsPer(Minute, 5).RetryAfter("Retry-After")

	if len(base.Limits()) != 0 || base.RetryAfterHeader() != "" {
		t.Fatalf("builder mutated the original declaration")
	}
	if len(derived.Limits()) != 1 || derived.RetryAfterHeader() != "Retry-After" {
		t.Fatalf("unexpected derived declaration: %+v", derived)
	}
}
