// Package ratelimit implements an in-memory, per-identifier rate limiter
// with four selectable strategies: fixed window, sliding window (decayed
// counter approximation), token bucket, and leaky bucket.
//
// State is process-local. Per-identifier entries live in a sharded mutex
// map so each Check is an atomic read-modify-write; concurrent checks for
// the same identifier cannot race past the limit. Entries are created
// lazily on first check and evicted by a background sweep once their window
// has passed.
//
// Reads are free: Peek (and the IsAllowed/Remaining/ResetTime convenience
// wrappers) inspect state without consuming quota.
//
// # Usage
//
//	limiter, err := ratelimit.New(ratelimit.Config{
//	    Strategy:    ratelimit.StrategyFixedWindow,
//	    Window:      time.Minute,
//	    MaxRequests: 100,
//	})
//	if err != nil {
//	    // invalid configuration
//	}
//	defer limiter.Close()
//
//	res := limiter.Check(clientIP)
//	if !res.Allowed {
//	    // deny with res.RetryAfter
//	}
//
// Operational notifications (checks, denials, resets, cleanup sweeps) are
// published through an optional events.Emitter.
package ratelimit
