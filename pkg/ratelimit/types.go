package ratelimit

import (
	"time"
)

// Strategy selects the throttling algorithm applied to each check.
type Strategy string

const (
	// StrategyFixedWindow counts requests in fixed windows; the counter
	// resets when the window rolls over.
	StrategyFixedWindow Strategy = "fixed_window"

	// StrategySlidingWindow is a decayed-counter approximation of a sliding
	// window: the counter is scaled down by the elapsed fraction of the
	// window before each comparison. O(1) memory per identifier, but it
	// under-penalizes bursts near window boundaries. It is not a precise
	// timestamped sliding log.
	StrategySlidingWindow Strategy = "sliding_window"

	// StrategyTokenBucket grants a bucket of MaxRequests tokens per
	// identifier, continuously refilled at MaxRequests per Window up to
	// capacity. Each allowed request consumes one token.
	StrategyTokenBucket Strategy = "token_bucket"

	// StrategyLeakyBucket drains the counter at MaxRequests per Window and
	// otherwise behaves like a fixed window.
	StrategyLeakyBucket Strategy = "leaky_bucket"
)

// KeyFunc maps an identifier (API token, IP, user ID) to the storage key
// quota is tracked under.
type KeyFunc func(identifier string) string

// Config defines limiter behavior. A zero Strategy means fixed window; a
// nil KeyFunc uses the identifier itself as the key.
type Config struct {
	Strategy    Strategy
	Window      time.Duration
	MaxRequests int

	// SkipSuccessful/SkipFailed make checks with a matching reported
	// outcome free: the current state is returned without consuming quota.
	SkipSuccessful bool
	SkipFailed     bool

	KeyFunc KeyFunc
}

func (c Config) validate() error {
	if c.Window <= 0 {
		return ErrInvalidWindow
	}
	if c.MaxRequests <= 0 {
		return ErrInvalidLimit
	}
	switch c.Strategy {
	case "", StrategyFixedWindow, StrategySlidingWindow, StrategyTokenBucket, StrategyLeakyBucket:
	default:
		return ErrInvalidStrategy
	}
	return nil
}

func (c Config) strategy() Strategy {
	if c.Strategy == "" {
		return StrategyFixedWindow
	}
	return c.Strategy
}

func (c Config) key(identifier string) string {
	if c.KeyFunc == nil {
		return identifier
	}
	return c.KeyFunc(identifier)
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int // never negative
	ResetAt   time.Time

	// RetryAfter is how long to wait before retrying, rounded up to whole
	// seconds. Zero when the request was allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter as integer seconds for use in a
// Retry-After header.
func (r Result) RetryAfterSeconds() int {
	return int(r.RetryAfter / time.Second)
}

// Violator is an identifier ranked by how many of its requests were
// blocked.
type Violator struct {
	Identifier string `json:"identifier"`
	Blocked    int64  `json:"blocked"`
}

// Stats aggregates limiter activity since construction. Counters are kept
// across Reset/ResetAll calls.
type Stats struct {
	TotalRequests   int64      `json:"total_requests"`
	AllowedRequests int64      `json:"allowed_requests"`
	BlockedRequests int64      `json:"blocked_requests"`
	TopViolators    []Violator `json:"top_violators"` // desc by blocked, at most 10
}

// maxViolators caps the top-violators ranking.
const maxViolators = 10
