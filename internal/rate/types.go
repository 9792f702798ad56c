package rate

import "time"

// Window represents a provider rate-limit bucket.
type Window int

const (
	Minute Window = iota
)

func (w Window) String() string {
	switch w {
	case Minute:
		return "minute"
	default:
		return "unknown"
	}
}

func (w Window) Duration() time.Duration {
	return time.Minute
}

// Declaration defines a provider's limits and the header it uses to ask
// callers to back off.
type Declaration struct {
	provider         string
	limits           map[Window]int
	retryAfterHeader string
}

// Provider creates a new declaration for a provider.
func Provider(name string) Declaration {
	return Declaration{provider: name}
}

func (d Declaration) ProviderName() string {
	return d.provider
}

func (d Declaration) MaxRequestsPer(window Window, limit int) Declaration {
	limits := make(map[Window]int, len(d.limits)+1)
	for w, l := range d.limits {
		limits[w] = l
	}
	limits[window] = limit
	d.limits = limits
	return d
}

// RetryAfter names the response header carrying a cooldown in seconds.
func (d Declaration) RetryAfter(header string) Declaration {
	d.retryAfterHeader = header
	return d
}

func (d Declaration) Limits() map[Window]int {
	return d.limits
}

func (d Declaration) RetryAfterHeader() string {
	return d.retryAfterHeader
}

func (d Declaration) HasLimits() bool {
	return len(d.limits) > 0
}
