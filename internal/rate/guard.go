package rate

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// RateLimitError is returned when calls are blocked.
type RateLimitError struct {
	Provider string
	Reason   string
	RetryAt  time.Time
}

func (e RateLimitError) Error() string {
	if e.RetryAt.IsZero() {
		return fmt.Sprintf("%s rate limited: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s rate limited: %s (retry at %s)", e.Provider, e.Reason, e.RetryAt.UTC().Format(time.RFC3339))
}

type Decision struct {
	Allowed bool
	Reason  string
	RetryAt time.Time
}

// state tracks observed limits.
type state struct {
	limiters   map[Window]*xrate.Limiter
	cooldown   time.Time
	lastStatus int
}

// Guard enforces rate limits for a provider.
type Guard struct {
	decl Declaration
	mu   sync.Mutex
	// state is mutated under mu
	state state
}

// WrapHTTP wraps an http.Client with rate-limit enforcement.
func WrapHTTP(decl Declaration, base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	client := *base
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = &roundTripper{
		base:  transport,
		guard: NewGuard(decl),
	}
	return &client
}

// NewGuard builds a guard with a full budget for every declared window.
func NewGuard(decl Declaration) *Guard {
	st := state{limiters: make(map[Window]*xrate.Limiter)}
	for window, limit := range decl.Limits() {
		if limit <= 0 {
			continue
		}
		every := window.Duration() / time.Duration(limit)
		st.limiters[window] = xrate.NewLimiter(xrate.Every(every), limit)
	}
	return &Guard{decl: decl, state: st}
}

type roundTripper struct {
	base  http.RoundTripper
	guard *Guard
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	decision := rt.guard.ShouldCall(time.Now())
	if !decision.Allowed {
		blockedCounter.WithLabelValues(rt.guard.decl.ProviderName(), decision.Reason).Inc()
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, RateLimitError{
			Provider: rt.guard.decl.ProviderName(),
			Reason:   decision.Reason,
			RetryAt:  decision.RetryAt,
		}
	}

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	rt.guard.RecordResponse(resp.StatusCode, resp.Header)
	return resp, nil
}

// ShouldCall reports whether a request may go out at now, consuming budget
// when it may.
func (g *Guard) ShouldCall(now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.decl.HasLimits() || len(g.state.limiters) == 0 {
		return Decision{Allowed: false, Reason: "disabled"}
	}

	if !g.state.cooldown.IsZero() && now.Before(g.state.cooldown) {
		return Decision{Allowed: false, Reason: "cooldown", RetryAt: g.state.cooldown}
	}

	reservations := make([]*xrate.Reservation, 0, len(g.state.limiters))
	for window, limiter := range g.state.limiters {
		r := limiter.ReserveN(now, 1)
		if delay := r.DelayFrom(now); !r.OK() || delay > 0 {
			r.CancelAt(now)
			for _, prev := range reservations {
				prev.CancelAt(now)
			}
			retryAt := now.Add(delay)
			if !r.OK() {
				retryAt = now.Add(window.Duration())
			}
			return Decision{Allowed: false, Reason: "budget", RetryAt: retryAt}
		}
		reservations = append(reservations, r)
	}

	for window, limiter := range g.state.limiters {
		remainingGauge.WithLabelValues(g.decl.ProviderName(), window.String()).Set(limiter.TokensAt(now))
	}
	return Decision{Allowed: true}
}

// RecordResponse updates the cooldown from a provider response.
func (g *Guard) RecordResponse(status int, headers http.Header) {
	g.mu.Lock()
	defer g.mu.Unlock()

	provider := g.decl.ProviderName()
	g.state.lastStatus = status
	lastStatusGauge.WithLabelValues(provider).Set(float64(status))

	if retryAfter := headerInt(headers, g.decl.RetryAfterHeader()); retryAfter > 0 {
		g.state.cooldown = time.Now().Add(time.Duration(retryAfter) * time.Second)
		retryAfterGauge.WithLabelValues(provider).Set(float64(retryAfter))
	}
}

// LastStatus returns the last HTTP status recorded, or 0.
func (g *Guard) LastStatus() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.lastStatus
}

func headerInt(h http.Header, key string) int {
	if key == "" {
		return -1
	}
	val := h.Get(key)
	if val == "" {
		return -1
	}
	out, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return out
}
